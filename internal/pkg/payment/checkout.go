package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/StefanBrandt/FotoFix/app/models"
	"github.com/StefanBrandt/FotoFix/internal/pkg/env"
)

// Provider is the slice of the payment provider the checkout flow needs.
// StripeClient implements it; tests substitute their own.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*ProviderSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*ProviderSession, error)
}

// DefaultUnitAmount is the fallback price per image in minor currency units.
const DefaultUnitAmount int64 = 2000

// UnitAmountFromEnv reads the per-image price from PRICE_PER_IMAGE.
func UnitAmountFromEnv() int64 {
	raw := strings.TrimSpace(env.GetEnv("PRICE_PER_IMAGE", ""))
	if raw == "" {
		return DefaultUnitAmount
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount <= 0 {
		log.Warnf("[Payment] Invalid PRICE_PER_IMAGE %q, using default", raw)
		return DefaultUnitAmount
	}
	return amount
}

// CheckoutSessionManager opens provider checkout sessions and records the
// durable pending state reconciliation later settles against.
type CheckoutSessionManager struct {
	db       *gorm.DB
	repo     Repository
	provider Provider
}

// NewCheckoutSessionManager wires the checkout flow.
func NewCheckoutSessionManager(db *gorm.DB, provider Provider) *CheckoutSessionManager {
	return &CheckoutSessionManager{
		db:       db,
		repo:     NewRepository(db),
		provider: provider,
	}
}

// CreateCheckout validates the selection, opens a provider session and writes
// the pending checkout record. The record is durable before the caller ever
// sees the redirect URL, so a crash between redirect and payment can always be
// reconciled later.
func (m *CheckoutSessionManager) CreateCheckout(ctx context.Context, buyerSessionID string, selection []string) (*models.CheckoutSession, string, error) {
	ids := dedupeSelection(selection)
	if len(ids) == 0 {
		return nil, "", ErrEmptySelection
	}

	unitAmount := UnitAmountFromEnv()
	currency := strings.ToLower(strings.TrimSpace(env.GetEnv("PRICE_CURRENCY", "usd")))

	lineItems := make([]CheckoutLineItem, 0, len(ids))
	for _, displayID := range ids {
		job, err := models.FindJobByDisplayID(m.db, displayID)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %s", ErrUnknownJob, displayID)
		}
		if job.Status != models.JobStatusReady {
			return nil, "", fmt.Errorf("%w: %s", ErrJobNotReady, displayID)
		}
		lineItems = append(lineItems, CheckoutLineItem{
			Name:       "Enhanced photo " + displayID,
			UnitAmount: unitAmount,
			Quantity:   1,
		})
	}

	providerSession, err := m.provider.CreateCheckoutSession(ctx, CreateSessionParams{
		SuccessURL:        checkoutReturnURL("CHECKOUT_SUCCESS_URL", "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         checkoutReturnURL("CHECKOUT_CANCEL_URL", "/checkout/cancel"),
		Currency:          currency,
		LineItems:         lineItems,
		ClientReferenceID: buyerSessionID,
	})
	if err != nil {
		return nil, "", err
	}

	session := &models.CheckoutSession{
		ProviderSessionID: providerSession.ID,
		BuyerSessionID:    buyerSessionID,
		UnitAmount:        unitAmount,
		AmountTotal:       unitAmount * int64(len(ids)),
		Currency:          currency,
		Status:            models.CheckoutStatusPending,
	}
	if err := session.SetSelection(ids); err != nil {
		return nil, "", err
	}
	if err := m.repo.CreateCheckoutSession(session); err != nil {
		return nil, "", err
	}

	log.Infof("[Payment] Opened checkout session %s for %d image(s)", providerSession.ID, len(ids))
	return session, providerSession.URL, nil
}

func checkoutReturnURL(envKey, defaultPath string) string {
	if configured := strings.TrimSpace(env.GetEnv(envKey, "")); configured != "" {
		return configured
	}
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8080"), "/")
	return base + defaultPath
}

func dedupeSelection(selection []string) []string {
	seen := make(map[string]struct{}, len(selection))
	out := make([]string, 0, len(selection))
	for _, id := range selection {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
