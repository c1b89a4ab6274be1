package models

import (
	"time"

	"gorm.io/gorm"
)

// PaidEntitlement is the durable fact that one enhancement job's full
// resolution output may be downloaded. The unique index on the job identifier
// is the database-level backstop for the exactly-once reconciliation
// guarantee: a second materialization attempt degenerates into a no-op insert.
type PaidEntitlement struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	JobDisplayID      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"job_display_id"`
	CheckoutSessionID uint      `gorm:"not null;index" json:"checkout_session_id"`
	ProviderSessionID string    `gorm:"type:varchar(191);not null;index" json:"provider_session_id"`
	PaidAt            time.Time `gorm:"not null" json:"paid_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// HasEntitlement reports whether a job identifier has been paid for.
func HasEntitlement(db *gorm.DB, jobDisplayID string) (bool, error) {
	var count int64
	err := db.Model(&PaidEntitlement{}).Where("job_display_id = ?", jobDisplayID).Count(&count).Error
	return count > 0, err
}

// ListEntitlementsBySession returns all entitlements materialized for one
// provider checkout session.
func ListEntitlementsBySession(db *gorm.DB, providerSessionID string) ([]PaidEntitlement, error) {
	var entitlements []PaidEntitlement
	err := db.Where("provider_session_id = ?", providerSessionID).Order("id").Find(&entitlements).Error
	return entitlements, err
}
