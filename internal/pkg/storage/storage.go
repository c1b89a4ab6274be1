package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2/log"

	"github.com/StefanBrandt/FotoFix/internal/pkg/env"
)

// Artifact namespaces. Originals are written once at intake; enhanced and
// preview artifacts are written by the enhancement pipeline under the job's
// display identifier.
type Kind string

const (
	KindOriginal Kind = "original"
	KindEnhanced Kind = "enhanced"
	KindPreview  Kind = "preview"
)

// AssetStore persists and retrieves binary image content by namespace + name.
type AssetStore interface {
	Save(kind Kind, name string, data []byte) (string, error)
	Read(kind Kind, name string) ([]byte, error)
	Path(kind Kind, name string) string
	Exists(kind Kind, name string) bool
	Delete(kind Kind, name string) error
}

// LocalStore is the filesystem-backed asset store.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the store rooted at IMAGES_DIR and ensures the
// namespace directories exist.
func NewLocalStore() (*LocalStore, error) {
	return NewLocalStoreAt(env.GetEnv("IMAGES_DIR", "./images"))
}

// NewLocalStoreAt creates a store rooted at an explicit directory.
func NewLocalStoreAt(baseDir string) (*LocalStore, error) {
	s := &LocalStore{baseDir: baseDir}
	for _, kind := range []Kind{KindOriginal, KindEnhanced, KindPreview} {
		dir := filepath.Join(baseDir, string(kind))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}
	return s, nil
}

func (s *LocalStore) Path(kind Kind, name string) string {
	return filepath.Join(s.baseDir, string(kind), name)
}

func (s *LocalStore) Save(kind Kind, name string, data []byte) (string, error) {
	path := s.Path(kind, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("error creating directory: %w", err)
	}
	// Write through a temp file so readers never observe a partial artifact.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("error writing asset %s/%s: %w", kind, name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("error finalizing asset %s/%s: %w", kind, name, err)
	}
	return path, nil
}

func (s *LocalStore) Read(kind Kind, name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(kind, name))
	if err != nil {
		return nil, fmt.Errorf("error reading asset %s/%s: %w", kind, name, err)
	}
	return data, nil
}

func (s *LocalStore) Exists(kind Kind, name string) bool {
	_, err := os.Stat(s.Path(kind, name))
	return err == nil
}

func (s *LocalStore) Delete(kind Kind, name string) error {
	err := os.Remove(s.Path(kind, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var defaultStore AssetStore

// SetupStorage initializes the default asset store.
func SetupStorage() {
	store, err := NewLocalStore()
	if err != nil {
		panic(err)
	}
	defaultStore = store
	log.Info("[Storage] Local asset store initialized")
}

// GetStore returns the default asset store.
func GetStore() AssetStore {
	if defaultStore == nil {
		SetupStorage()
	}
	return defaultStore
}

// SetStore swaps the default store; used by tests.
func SetStore(store AssetStore) {
	defaultStore = store
}
