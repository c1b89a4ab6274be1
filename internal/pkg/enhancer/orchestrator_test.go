package enhancer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/StefanBrandt/FotoFix/app/models"
	"github.com/StefanBrandt/FotoFix/internal/pkg/storage"
)

func newOrchestratorTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:enhancer_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Photo{}, &models.EnhancementJob{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	store, err := storage.NewLocalStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	return store
}

type fakeTransformer struct {
	result *TransformResult
	err    error
	calls  int
}

func (f *fakeTransformer) Transform(ctx context.Context, imageData []byte, mimeType, instructions string) (*TransformResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func seedPhoto(t *testing.T, db *gorm.DB, store storage.AssetStore, data []byte) *models.Photo {
	t.Helper()
	photo := &models.Photo{
		UUID:         uuid.NewString(),
		OriginalName: "kitchen.jpg",
		MimeType:     "image/jpeg",
		FileSize:     int64(len(data)),
	}
	path, err := store.Save(storage.KindOriginal, photo.UUID+".jpg", data)
	if err != nil {
		t.Fatalf("save original: %v", err)
	}
	photo.FilePath = path
	if err := db.Create(photo).Error; err != nil {
		t.Fatalf("create photo: %v", err)
	}
	return photo
}

func TestEnhanceViaTransformer(t *testing.T) {
	db := newOrchestratorTestDB(t)
	store := newTestStore(t)

	source := encodeTestJPEG(t, 800, 600)
	vendorOutput := encodeTestJPEG(t, 800, 600)
	transformer := &fakeTransformer{result: &TransformResult{Data: vendorOutput, Mime: "image/jpeg"}}

	o := NewOrchestrator(db, store, transformer)
	photo := seedPhoto(t, db, store, source)

	job, err := o.CreateJob(photo.UUID, DefaultInstructions, PhotoTypeInterior)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if job.Generation != 0 || job.DisplayID != photo.UUID {
		t.Fatalf("first generation must use the photo uuid, got %q", job.DisplayID)
	}

	if err := o.Enhance(context.Background(), job); err != nil {
		t.Fatalf("enhance: %v", err)
	}

	if job.Status != models.JobStatusReady {
		t.Fatalf("expected ready, got %q", job.Status)
	}
	if job.EnhancedVia != models.EnhancedViaAI {
		t.Fatalf("expected ai path, got %q", job.EnhancedVia)
	}
	if !job.HasPreview || job.PreviewPath == "" {
		t.Fatalf("expected preview to be derived")
	}
	if transformer.calls != 1 {
		t.Fatalf("expected one transform call, got %d", transformer.calls)
	}

	if _, err := store.Read(storage.KindEnhanced, job.DisplayID+"_enhanced.jpg"); err != nil {
		t.Fatalf("enhanced artifact missing: %v", err)
	}
	if _, err := store.Read(storage.KindPreview, job.DisplayID+"_preview.jpg"); err != nil {
		t.Fatalf("preview artifact missing: %v", err)
	}
}

func TestEnhanceFallsBackWhenTransformerFails(t *testing.T) {
	db := newOrchestratorTestDB(t)
	store := newTestStore(t)

	source := encodeTestJPEG(t, 800, 600)
	transformer := &fakeTransformer{err: errors.New("vendor unavailable")}

	o := NewOrchestrator(db, store, transformer)
	photo := seedPhoto(t, db, store, source)

	job, err := o.CreateJob(photo.UUID, DefaultInstructions, PhotoTypeInterior)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := o.Enhance(context.Background(), job); err != nil {
		t.Fatalf("enhance: %v", err)
	}

	if job.Status != models.JobStatusReady {
		t.Fatalf("expected ready, got %q", job.Status)
	}
	if job.EnhancedVia != models.EnhancedViaFallback {
		t.Fatalf("expected fallback path, got %q", job.EnhancedVia)
	}
	if !job.HasPreview {
		t.Fatalf("expected preview from fallback output")
	}
}

func TestEnhanceFallsBackWhenVendorReturnsNoImage(t *testing.T) {
	db := newOrchestratorTestDB(t)
	store := newTestStore(t)

	source := encodeTestJPEG(t, 800, 600)
	// A textual answer instead of image bytes counts as no image.
	transformer := &fakeTransformer{result: &TransformResult{Data: []byte("cannot comply"), Mime: "text/plain"}}

	o := NewOrchestrator(db, store, transformer)
	photo := seedPhoto(t, db, store, source)

	job, err := o.CreateJob(photo.UUID, DefaultInstructions, PhotoTypeExterior)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := o.Enhance(context.Background(), job); err != nil {
		t.Fatalf("enhance: %v", err)
	}

	if job.EnhancedVia != models.EnhancedViaFallback {
		t.Fatalf("expected fallback path, got %q", job.EnhancedVia)
	}
}

func TestEnhanceUndecodableSourceFails(t *testing.T) {
	db := newOrchestratorTestDB(t)
	store := newTestStore(t)

	transformer := &fakeTransformer{err: errors.New("vendor unavailable")}
	o := NewOrchestrator(db, store, transformer)
	photo := seedPhoto(t, db, store, []byte("this is not an image"))

	job, err := o.CreateJob(photo.UUID, DefaultInstructions, PhotoTypeExterior)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	err = o.Enhance(context.Background(), job)
	if !errors.Is(err, ErrSourceUndecodable) {
		t.Fatalf("expected ErrSourceUndecodable, got %v", err)
	}
	if job.Status != models.JobStatusFailed {
		t.Fatalf("expected failed, got %q", job.Status)
	}
	if job.FailureReason == "" {
		t.Fatalf("expected failure reason to be recorded")
	}
}

func TestRedoCreatesNextGeneration(t *testing.T) {
	db := newOrchestratorTestDB(t)
	store := newTestStore(t)

	source := encodeTestJPEG(t, 800, 600)
	transformer := &fakeTransformer{result: &TransformResult{Data: encodeTestJPEG(t, 800, 600), Mime: "image/jpeg"}}

	o := NewOrchestrator(db, store, transformer)
	photo := seedPhoto(t, db, store, source)

	first, err := o.CreateJob(photo.UUID, DefaultInstructions, PhotoTypeInterior)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := o.Enhance(context.Background(), first); err != nil {
		t.Fatalf("enhance: %v", err)
	}

	redo, err := o.Redo(first.DisplayID, "")
	if err != nil {
		t.Fatalf("redo: %v", err)
	}
	if redo.Generation != 1 {
		t.Fatalf("expected generation 1, got %d", redo.Generation)
	}
	if redo.DisplayID != photo.UUID+"_redo1" {
		t.Fatalf("unexpected redo display id %q", redo.DisplayID)
	}
	if redo.Instructions != first.Instructions {
		t.Fatalf("redo without custom text must reuse the prior instructions")
	}

	// A second redo targets the highest generation even when addressed via
	// the first generation's id.
	custom, err := o.Redo(first.DisplayID, "make the lawn greener")
	if err != nil {
		t.Fatalf("second redo: %v", err)
	}
	if custom.Generation != 2 {
		t.Fatalf("expected generation 2, got %d", custom.Generation)
	}
	if !strings.Contains(custom.Instructions, "make the lawn greener") {
		t.Fatalf("custom text missing from instructions %q", custom.Instructions)
	}

	// The first generation stays untouched.
	stored, err := models.FindJobByDisplayID(db, first.DisplayID)
	if err != nil {
		t.Fatalf("reload first generation: %v", err)
	}
	if stored.Status != models.JobStatusReady {
		t.Fatalf("first generation must stay ready, got %q", stored.Status)
	}
}

func TestEnsurePreviewRegeneratesLazily(t *testing.T) {
	db := newOrchestratorTestDB(t)
	store := newTestStore(t)

	o := NewOrchestrator(db, store, &fakeTransformer{})

	enhanced := encodeTestJPEG(t, 900, 700)
	enhancedPath, err := store.Save(storage.KindEnhanced, "photo-l_enhanced.jpg", enhanced)
	if err != nil {
		t.Fatalf("save enhanced: %v", err)
	}

	job := &models.EnhancementJob{
		PhotoUUID:    "photo-l",
		Generation:   0,
		Status:       models.JobStatusReady,
		EnhancedVia:  models.EnhancedViaAI,
		EnhancedPath: enhancedPath,
		HasPreview:   false,
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}

	previewPath, err := o.EnsurePreview(job)
	if err != nil {
		t.Fatalf("ensure preview: %v", err)
	}
	if previewPath == "" || !job.HasPreview {
		t.Fatalf("expected preview to be regenerated")
	}

	stored, err := models.FindJobByDisplayID(db, job.DisplayID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if !stored.HasPreview || stored.PreviewPath != previewPath {
		t.Fatalf("preview regeneration must be persisted")
	}

	// Second call answers from the stored path.
	again, err := o.EnsurePreview(stored)
	if err != nil {
		t.Fatalf("ensure preview again: %v", err)
	}
	if again != previewPath {
		t.Fatalf("expected stable preview path, got %q", again)
	}
}
