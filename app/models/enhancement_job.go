package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Enhancement job states. The pipeline moves every job through these in order;
// "ready" and "failed" are the only terminal states.
const (
	JobStatusCreated            = "created"
	JobStatusTransformRequested = "transform_requested"
	JobStatusTransformSucceeded = "transform_succeeded"
	JobStatusTransformFailed    = "transform_failed"
	JobStatusFallbackApplied    = "fallback_applied"
	JobStatusPreviewGenerated   = "preview_generated"
	JobStatusReady              = "ready"
	JobStatusFailed             = "failed"
)

// How the enhanced artifact was produced.
const (
	EnhancedViaAI       = "ai"
	EnhancedViaFallback = "fallback"
	EnhancedViaOriginal = "original"
)

// EnhancementJob is one enhancement attempt against a base photo. Generation 0
// is the first pass; every redo inserts a new row with generation+1 and never
// touches earlier generations. The composite unique index makes duplicate
// generations impossible even under concurrent redo requests.
type EnhancementJob struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PhotoUUID  string `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;not null;index:ux_enhancement_jobs_photo_generation,unique,priority:1" json:"photo_uuid"`
	Generation int    `gorm:"not null;default:0;index:ux_enhancement_jobs_photo_generation,unique,priority:2" json:"generation"`
	// DisplayID is derived from (PhotoUUID, Generation) at create time and is
	// the only identifier clients ever see.
	DisplayID     string `gorm:"type:varchar(64);uniqueIndex;not null" json:"display_id"`
	Instructions  string `gorm:"type:text" json:"instructions"`
	PhotoType     string `gorm:"type:varchar(20)" json:"photo_type"`
	Status        string `gorm:"type:varchar(30);not null;default:'created';index" json:"status"`
	EnhancedVia   string `gorm:"type:varchar(20)" json:"enhanced_via"`
	EnhancedPath  string `gorm:"type:varchar(255)" json:"-"`
	PreviewPath   string `gorm:"type:varchar(255)" json:"-"`
	HasPreview    bool   `gorm:"default:false" json:"has_preview"`
	FailureReason string `gorm:"type:text" json:"failure_reason,omitempty"`
	PreviewCount  int64  `gorm:"default:0" json:"preview_count"`
	DownloadCount int64  `gorm:"default:0" json:"download_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// JobDisplayID derives the externally visible identifier for a generation.
// Inbound lookups go through the stored display_id column; this suffix is
// never parsed back apart.
func JobDisplayID(photoUUID string, generation int) string {
	if generation == 0 {
		return photoUUID
	}
	return fmt.Sprintf("%s_redo%d", photoUUID, generation)
}

// BeforeCreate fills the derived display identifier.
func (j *EnhancementJob) BeforeCreate(tx *gorm.DB) error {
	if j.DisplayID == "" {
		j.DisplayID = JobDisplayID(j.PhotoUUID, j.Generation)
	}
	return nil
}

// IsTerminal reports whether the job reached a terminal state.
func (j *EnhancementJob) IsTerminal() bool {
	return j.Status == JobStatusReady || j.Status == JobStatusFailed
}

// FindJobByDisplayID looks up a job by its externally visible identifier.
func FindJobByDisplayID(db *gorm.DB, displayID string) (*EnhancementJob, error) {
	var job EnhancementJob
	result := db.Where("display_id = ?", displayID).First(&job)
	return &job, result.Error
}

// MaxGenerationForPhoto returns the highest generation recorded for a lineage,
// or -1 when the photo has no jobs yet.
func MaxGenerationForPhoto(db *gorm.DB, photoUUID string) (int, error) {
	var gen *int
	err := db.Model(&EnhancementJob{}).
		Where("photo_uuid = ?", photoUUID).
		Select("MAX(generation)").
		Scan(&gen).Error
	if err != nil {
		return -1, err
	}
	if gen == nil {
		return -1, nil
	}
	return *gen, nil
}

// UpdateJobStatus writes a state transition for a job.
func (j *EnhancementJob) UpdateJobStatus(db *gorm.DB, status string) error {
	j.Status = status
	return db.Model(j).Update("status", status).Error
}
