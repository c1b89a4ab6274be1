package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Photo is the immutable original upload. Every enhancement generation of the
// same lineage reads from this record; nothing in the pipeline mutates it.
type Photo struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UUID         string `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	OriginalName string `gorm:"type:varchar(255);not null" json:"original_name"`
	FilePath     string `gorm:"type:varchar(255);not null" json:"file_path"`
	FileSize     int64  `gorm:"type:bigint" json:"file_size"`
	MimeType     string `gorm:"type:varchar(50)" json:"mime_type"`
	Width        int    `gorm:"type:int" json:"width"`
	Height       int    `gorm:"type:int" json:"height"`
	// EXIF metadata captured at intake
	CameraModel *string    `gorm:"type:varchar(255)" json:"camera_model"`
	TakenAt     *time.Time `gorm:"type:datetime" json:"taken_at"`
	Latitude    *float64   `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude   *float64   `gorm:"type:decimal(11,8)" json:"longitude"`
	Metadata    *JSON      `gorm:"type:json" json:"metadata"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates the asset identifier if none was assigned.
func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	return nil
}

// FindPhotoByUUID looks up an original upload by its asset identifier.
func FindPhotoByUUID(db *gorm.DB, uuid string) (*Photo, error) {
	var photo Photo
	result := db.Where("uuid = ?", uuid).First(&photo)
	return &photo, result.Error
}
