package payment

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/StefanBrandt/FotoFix/app/models"
)

// Repository provides the DB operations used by checkout and reconciliation.
type Repository interface {
	CreateCheckoutSession(session *models.CheckoutSession) error
	FindCheckoutSessionByProviderID(providerSessionID string) (*models.CheckoutSession, error)
	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
	HasAnyEntitlementForSession(providerSessionID string) (bool, error)
	MaterializeEntitlements(session *models.CheckoutSession, paidAt time.Time) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateCheckoutSession(session *models.CheckoutSession) error {
	return r.db.Create(session).Error
}

func (r *gormRepository) FindCheckoutSessionByProviderID(providerSessionID string) (*models.CheckoutSession, error) {
	return models.FindCheckoutSessionByProviderID(r.db, providerSessionID)
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) HasAnyEntitlementForSession(providerSessionID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.PaidEntitlement{}).
		Where("provider_session_id = ?", providerSessionID).
		Count(&count).Error
	return count > 0, err
}

// MaterializeEntitlements writes every entitlement of a session and flips the
// session to reconciled in one transaction. Inserts ignore conflicts on the
// unique job id, so replays and racing confirmation paths converge on the
// same final state without partial outcomes.
func (r *gormRepository) MaterializeEntitlements(session *models.CheckoutSession, paidAt time.Time) error {
	selection, err := session.Selection()
	if err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, jobDisplayID := range selection {
			entitlement := &models.PaidEntitlement{
				JobDisplayID:      jobDisplayID,
				CheckoutSessionID: session.ID,
				ProviderSessionID: session.ProviderSessionID,
				PaidAt:            paidAt,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "job_display_id"}},
				DoNothing: true,
			}).Create(entitlement).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.CheckoutSession{}).
			Where("id = ?", session.ID).
			Update("status", models.CheckoutStatusReconciled).Error
	})
}
