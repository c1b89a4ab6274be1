package enhancer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/StefanBrandt/FotoFix/app/models"
	"github.com/StefanBrandt/FotoFix/internal/pkg/s3mirror"
	"github.com/StefanBrandt/FotoFix/internal/pkg/storage"
)

// ErrSourceUndecodable marks a job whose source image no path in the pipeline
// could read. It is the only way to reach the failed terminal state.
var ErrSourceUndecodable = errors.New("source image is undecodable by every available path")

// Orchestrator drives one enhancement job through the full pipeline:
// external transform, deterministic fallback, copy-through last resort,
// preview derivation. Every run terminates in ready or failed.
type Orchestrator struct {
	db          *gorm.DB
	store       storage.AssetStore
	transformer Transformer
	mirror      *s3mirror.Client

	transformTimeout time.Duration
}

// NewOrchestrator wires the pipeline dependencies.
func NewOrchestrator(db *gorm.DB, store storage.AssetStore, transformer Transformer) *Orchestrator {
	return &Orchestrator{
		db:               db,
		store:            store,
		transformer:      transformer,
		transformTimeout: defaultGeminiTimeout,
	}
}

// WithMirror attaches the optional off-site artifact mirror.
func (o *Orchestrator) WithMirror(mirror *s3mirror.Client) *Orchestrator {
	o.mirror = mirror
	return o
}

// WithTransformTimeout bounds the external transform call.
func (o *Orchestrator) WithTransformTimeout(timeout time.Duration) *Orchestrator {
	o.transformTimeout = timeout
	return o
}

// CreateJob inserts a new job row in created state. The generation is
// assigned from the lineage's current maximum; the unique (photo, generation)
// index arbitrates concurrent redos, and collisions are resolved by
// recomputing the generation. Concurrent redos are deliberate independent
// user actions, so they are not deduplicated.
func (o *Orchestrator) CreateJob(photoUUID, instructions, photoType string) (*models.EnhancementJob, error) {
	const maxAttempts = 3

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		maxGen, err := models.MaxGenerationForPhoto(o.db, photoUUID)
		if err != nil {
			return nil, err
		}

		job := &models.EnhancementJob{
			PhotoUUID:    photoUUID,
			Generation:   maxGen + 1,
			Instructions: instructions,
			PhotoType:    photoType,
			Status:       models.JobStatusCreated,
		}
		if err := o.db.Create(job).Error; err != nil {
			// Most likely a generation collision with a concurrent redo;
			// recompute and try again.
			lastErr = err
			continue
		}

		SetJobStatus(job.DisplayID, models.JobStatusCreated)
		return job, nil
	}
	return nil, fmt.Errorf("could not assign a generation for photo %s: %w", photoUUID, lastErr)
}

// Redo creates the next generation for the lineage of an existing job. Prior
// instructions are reused unless overridden; the full pipeline re-runs, so a
// redo is always a fresh attempt against the external transform.
func (o *Orchestrator) Redo(displayID, customInstructions string) (*models.EnhancementJob, error) {
	prev, err := models.FindJobByDisplayID(o.db, displayID)
	if err != nil {
		return nil, err
	}

	instructions := prev.Instructions
	if custom := strings.TrimSpace(customInstructions); custom != "" {
		instructions = GenerateInstructions(nil, prev.PhotoType, custom)
	}

	return o.CreateJob(prev.PhotoUUID, instructions, prev.PhotoType)
}

// Enhance runs the pipeline for a created job until it reaches a terminal
// state. The returned error reflects the terminal failure, if any; the job
// row always records the outcome.
func (o *Orchestrator) Enhance(ctx context.Context, job *models.EnhancementJob) error {
	log.Infof("[Enhancer] Processing job %s (generation %d)", job.DisplayID, job.Generation)

	// Redo always re-reads the original upload, never a prior enhancement.
	photo, err := models.FindPhotoByUUID(o.db, job.PhotoUUID)
	if err != nil {
		return o.fail(job, fmt.Errorf("base photo %s not found: %w", job.PhotoUUID, err))
	}

	sourceFormat, err := FormatFromMime(photo.MimeType)
	if err != nil {
		return o.fail(job, err)
	}

	sourceData, err := o.store.Read(storage.KindOriginal, filepath.Base(photo.FilePath))
	if err != nil {
		return o.fail(job, fmt.Errorf("reading base asset: %w", err))
	}

	enhancedData, enhancedFormat, enhancedVia := o.transform(ctx, job, sourceData, sourceFormat)

	// Preview derivation from whichever image won.
	previewData, previewErr := RenderPreview(enhancedData, enhancedFormat, PreviewWidth())
	if previewErr != nil && enhancedVia == models.EnhancedViaOriginal {
		// The copy-through bytes are not decodable either: nothing in this
		// pipeline can read the source.
		return o.fail(job, fmt.Errorf("%w: %v", ErrSourceUndecodable, previewErr))
	}

	enhancedName := job.DisplayID + "_enhanced" + enhancedFormat.Ext()
	enhancedPath, err := o.store.Save(storage.KindEnhanced, enhancedName, enhancedData)
	if err != nil {
		return o.fail(job, fmt.Errorf("saving enhanced artifact: %w", err))
	}

	previewPath := ""
	hasPreview := false
	if previewErr == nil {
		o.transition(job, models.JobStatusPreviewGenerated)
		previewName := job.DisplayID + "_preview" + enhancedFormat.Ext()
		previewPath, err = o.store.Save(storage.KindPreview, previewName, previewData)
		if err != nil {
			// Preview persistence failed after a usable enhanced image was
			// produced; treat like a derivation miss and regenerate lazily.
			log.Warnf("[Enhancer] Saving preview for %s failed: %v", job.DisplayID, err)
			previewPath = ""
		} else {
			hasPreview = true
		}
	} else {
		log.Warnf("[Enhancer] Preview derivation for %s failed, will regenerate lazily: %v", job.DisplayID, previewErr)
	}

	updates := map[string]interface{}{
		"status":        models.JobStatusReady,
		"enhanced_via":  enhancedVia,
		"enhanced_path": enhancedPath,
		"preview_path":  previewPath,
		"has_preview":   hasPreview,
	}
	if err := o.db.Model(job).Updates(updates).Error; err != nil {
		return o.fail(job, fmt.Errorf("persisting job result: %w", err))
	}
	job.Status = models.JobStatusReady
	job.EnhancedVia = enhancedVia
	job.EnhancedPath = enhancedPath
	job.PreviewPath = previewPath
	job.HasPreview = hasPreview
	SetJobStatus(job.DisplayID, models.JobStatusReady)

	o.mirrorArtifacts(job, enhancedData, previewData)

	log.Infof("[Enhancer] Job %s ready (via %s)", job.DisplayID, enhancedVia)
	return nil
}

// transform runs the external call and the local fallbacks; it always returns
// some image bytes. The returned via tag records which path produced them.
func (o *Orchestrator) transform(ctx context.Context, job *models.EnhancementJob, sourceData []byte, sourceFormat Format) ([]byte, Format, string) {
	o.transition(job, models.JobStatusTransformRequested)

	transformCtx, cancel := context.WithTimeout(ctx, o.transformTimeout)
	defer cancel()

	result, err := o.transformer.Transform(transformCtx, sourceData, sourceFormat.Mime(), job.Instructions)
	if err == nil {
		if vendorFormat, data, ok := usableVendorImage(result); ok {
			o.transition(job, models.JobStatusTransformSucceeded)
			return data, vendorFormat, models.EnhancedViaAI
		}
		err = ErrNoImage
	}

	if errors.Is(err, ErrNoImage) {
		log.Infof("[Enhancer] Transform for %s returned no usable image, applying fallback", job.DisplayID)
	} else {
		log.Warnf("[Enhancer] Transform for %s failed: %v", job.DisplayID, err)
	}
	o.transition(job, models.JobStatusTransformFailed)

	if fallbackData, fbErr := ApplyFallback(sourceData, sourceFormat); fbErr == nil {
		o.transition(job, models.JobStatusFallbackApplied)
		return fallbackData, sourceFormat, models.EnhancedViaFallback
	} else {
		log.Warnf("[Enhancer] Fallback for %s could not decode source: %v", job.DisplayID, fbErr)
	}

	// Last resort: pass the original through unchanged.
	return sourceData, sourceFormat, models.EnhancedViaOriginal
}

// usableVendorImage validates a transform response end to end: supported
// format and actually decodable bytes. Anything else counts as a non-image
// outcome.
func usableVendorImage(result *TransformResult) (Format, []byte, bool) {
	if result == nil || len(result.Data) == 0 {
		return 0, nil, false
	}
	format, err := FormatFromMime(result.Mime)
	if err != nil {
		return 0, nil, false
	}
	if _, err := DecodeImage(result.Data, format); err != nil {
		return 0, nil, false
	}
	return format, result.Data, true
}

// EnsurePreview lazily regenerates a missing preview from the stored enhanced
// artifact. Returns the preview path.
func (o *Orchestrator) EnsurePreview(job *models.EnhancementJob) (string, error) {
	if job.HasPreview && job.PreviewPath != "" {
		return job.PreviewPath, nil
	}

	enhancedName := filepath.Base(job.EnhancedPath)
	enhancedData, err := o.store.Read(storage.KindEnhanced, enhancedName)
	if err != nil {
		return "", err
	}

	format, err := FormatFromMime(mimeForExt(filepath.Ext(enhancedName)))
	if err != nil {
		return "", err
	}

	previewData, err := RenderPreview(enhancedData, format, PreviewWidth())
	if err != nil {
		return "", err
	}

	previewName := job.DisplayID + "_preview" + format.Ext()
	previewPath, err := o.store.Save(storage.KindPreview, previewName, previewData)
	if err != nil {
		return "", err
	}

	if err := o.db.Model(job).Updates(map[string]interface{}{
		"preview_path": previewPath,
		"has_preview":  true,
	}).Error; err != nil {
		return "", err
	}
	job.PreviewPath = previewPath
	job.HasPreview = true

	log.Infof("[Enhancer] Regenerated preview for %s", job.DisplayID)
	return previewPath, nil
}

func (o *Orchestrator) transition(job *models.EnhancementJob, status string) {
	if err := job.UpdateJobStatus(o.db, status); err != nil {
		log.Errorf("[Enhancer] Failed to persist status %s for %s: %v", status, job.DisplayID, err)
	}
	SetJobStatus(job.DisplayID, status)
}

func (o *Orchestrator) fail(job *models.EnhancementJob, cause error) error {
	log.Errorf("[Enhancer] Job %s failed: %v", job.DisplayID, cause)
	if err := o.db.Model(job).Updates(map[string]interface{}{
		"status":         models.JobStatusFailed,
		"failure_reason": cause.Error(),
	}).Error; err != nil {
		log.Errorf("[Enhancer] Failed to persist failure for %s: %v", job.DisplayID, err)
	}
	job.Status = models.JobStatusFailed
	job.FailureReason = cause.Error()
	SetJobStatus(job.DisplayID, models.JobStatusFailed)
	return cause
}

// mirrorArtifacts copies sellable artifacts off-site; failures are logged,
// never propagated.
func (o *Orchestrator) mirrorArtifacts(job *models.EnhancementJob, enhancedData, previewData []byte) {
	if o.mirror == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := o.mirror.MirrorArtifact(ctx, "enhanced", job.DisplayID, job.EnhancedPath, enhancedData); err != nil {
		log.Warnf("[Enhancer] Mirroring enhanced artifact for %s failed: %v", job.DisplayID, err)
	}
	if job.HasPreview && previewData != nil {
		if err := o.mirror.MirrorArtifact(ctx, "preview", job.DisplayID, job.PreviewPath, previewData); err != nil {
			log.Warnf("[Enhancer] Mirroring preview for %s failed: %v", job.DisplayID, err)
		}
	}
}

func mimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}
