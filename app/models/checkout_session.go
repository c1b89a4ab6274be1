package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Checkout session states. A session is created pending and flipped to
// reconciled exactly once, by whichever confirmation path observes the
// payment first.
const (
	CheckoutStatusPending    = "pending"
	CheckoutStatusReconciled = "reconciled"
)

// CheckoutSession is the durable pending record written before the buyer is
// redirected to the payment provider. It stores the selection and the computed
// total so reconciliation never has to re-derive pricing from the provider.
type CheckoutSession struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	ProviderSessionID string `gorm:"type:varchar(191);uniqueIndex;not null" json:"provider_session_id"`
	BuyerSessionID    string `gorm:"type:char(36);index" json:"-"`
	SelectedJobIDs    JSON   `gorm:"type:json;not null" json:"selected_job_ids"`
	UnitAmount        int64  `gorm:"not null" json:"unit_amount"`
	AmountTotal       int64  `gorm:"not null" json:"amount_total"`
	Currency          string `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	Status            string `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SetSelection stores the ordered job selection as JSON.
func (s *CheckoutSession) SetSelection(jobIDs []string) error {
	raw, err := json.Marshal(jobIDs)
	if err != nil {
		return err
	}
	s.SelectedJobIDs = JSON(raw)
	return nil
}

// Selection returns the ordered job selection.
func (s *CheckoutSession) Selection() ([]string, error) {
	var jobIDs []string
	if err := json.Unmarshal([]byte(s.SelectedJobIDs), &jobIDs); err != nil {
		return nil, err
	}
	return jobIDs, nil
}

// FindCheckoutSessionByProviderID looks up a session by the provider's id.
func FindCheckoutSessionByProviderID(db *gorm.DB, providerSessionID string) (*CheckoutSession, error) {
	var session CheckoutSession
	result := db.Where("provider_session_id = ?", providerSessionID).First(&session)
	return &session, result.Error
}
