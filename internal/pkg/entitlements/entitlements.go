package entitlements

import (
	"errors"

	"gorm.io/gorm"

	"github.com/StefanBrandt/FotoFix/app/models"
)

// Delivery decision errors. The HTTP layer maps these onto status codes.
var (
	// ErrNotReady means the job has not produced a deliverable artifact yet.
	ErrNotReady = errors.New("enhancement is not ready")
	// ErrNotPaid means no entitlement exists for the job.
	ErrNotPaid = errors.New("no paid entitlement for this image")
)

// DeliveryGate decides which artifact of an enhancement job a caller may
// fetch. Previews are free once a job is ready; full resolution requires a
// paid entitlement.
type DeliveryGate struct {
	db *gorm.DB
}

// NewDeliveryGate wires the gate to a DB handle.
func NewDeliveryGate(db *gorm.DB) *DeliveryGate {
	return &DeliveryGate{db: db}
}

// CanPreview returns the job when its watermark-free preview may be served.
func (g *DeliveryGate) CanPreview(displayID string) (*models.EnhancementJob, error) {
	job, err := models.FindJobByDisplayID(g.db, displayID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusReady {
		return nil, ErrNotReady
	}
	return job, nil
}

// CanDownload returns the job when its full resolution output may be served.
// An entitlement is bound to one exact generation; paying for a redo never
// unlocks its siblings.
func (g *DeliveryGate) CanDownload(displayID string) (*models.EnhancementJob, error) {
	job, err := g.CanPreview(displayID)
	if err != nil {
		return nil, err
	}

	paid, err := models.HasEntitlement(g.db, displayID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, ErrNotPaid
	}
	return job, nil
}
