package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/StefanBrandt/FotoFix/app/models"
)

// Webhook event types that confirm a settled checkout session.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	ProviderStripe             = "stripe"
)

// WebhookEvent is the parsed, signature-checked webhook input.
type WebhookEvent struct {
	EventID           string
	EventType         string
	ProviderSessionID string
	PaymentStatus     string
	PayloadJSON       string
	SignatureValid    bool
}

// Reconciler turns payment confirmations into paid entitlements exactly once
// per checkout session, no matter how many times or over which path the
// confirmation arrives. Webhook push and verification poll both terminate
// here.
type Reconciler struct {
	repo     Repository
	provider Provider

	// One mutex per provider session id serializes racing confirmations.
	sessionLocks sync.Map
}

// NewReconciler wires the reconciliation paths.
func NewReconciler(db *gorm.DB, provider Provider) *Reconciler {
	return &Reconciler{
		repo:     NewRepository(db),
		provider: provider,
	}
}

// NewReconcilerWithRepository is the test seam.
func NewReconcilerWithRepository(repo Repository, provider Provider) *Reconciler {
	return &Reconciler{repo: repo, provider: provider}
}

// OnProviderEvent handles one webhook delivery. Every delivery is recorded
// for audit; duplicates, foreign sessions and irrelevant event types are
// acknowledged without effect so the provider stops retrying.
func (r *Reconciler) OnProviderEvent(ctx context.Context, event WebhookEvent) error {
	record := &models.PaymentWebhookEvent{
		Provider:        ProviderStripe,
		ProviderEventID: event.EventID,
		EventType:       event.EventType,
		PayloadJSON:     event.PayloadJSON,
		SignatureValid:  event.SignatureValid,
	}
	created, stored, err := r.repo.CreateWebhookEventIfNotExists(record)
	if err != nil {
		return err
	}
	if !created && stored.ProcessedAt != nil {
		log.Infof("[Payment] Webhook event %s already processed, skipping", event.EventID)
		return nil
	}

	if !event.SignatureValid {
		return r.finishEvent(stored.ID, "invalid signature")
	}

	if event.EventType != EventCheckoutCompleted && event.EventType != EventAsyncPaymentSucceeded {
		return r.finishEvent(stored.ID, "")
	}
	if event.PaymentStatus != "" && event.PaymentStatus != "paid" {
		return r.finishEvent(stored.ID, "")
	}

	session, err := r.repo.FindCheckoutSessionByProviderID(event.ProviderSessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Payment] Webhook for unknown checkout session %s, ignoring", event.ProviderSessionID)
			return r.finishEvent(stored.ID, ErrUnknownSession.Error())
		}
		return err
	}

	if err := r.reconcile(session); err != nil {
		_ = r.finishEvent(stored.ID, err.Error())
		return err
	}
	return r.finishEvent(stored.ID, "")
}

// VerifyNow is the poll path. It answers from local state when the session is
// already settled, otherwise asks the provider. Provider failures and unpaid
// sessions both surface as ErrNotPaid so the client simply polls again.
func (r *Reconciler) VerifyNow(ctx context.Context, providerSessionID string) (*models.CheckoutSession, error) {
	session, err := r.repo.FindCheckoutSessionByProviderID(providerSessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownSession
		}
		return nil, err
	}

	if session.Status == models.CheckoutStatusReconciled {
		return session, nil
	}
	if settled, err := r.repo.HasAnyEntitlementForSession(providerSessionID); err == nil && settled {
		// Entitlements landed but the status flip raced; converge.
		if err := r.reconcile(session); err != nil {
			return nil, err
		}
		return session, nil
	}

	providerSession, err := r.provider.RetrieveSession(ctx, providerSessionID)
	if err != nil {
		log.Warnf("[Payment] Provider lookup for session %s failed: %v", providerSessionID, err)
		return nil, fmt.Errorf("%w: %v", ErrNotPaid, err)
	}
	if !providerSession.Paid() {
		return nil, ErrNotPaid
	}

	if err := r.reconcile(session); err != nil {
		return nil, err
	}
	return session, nil
}

// reconcile materializes the session's entitlements exactly once. The
// per-session mutex serializes the two confirmation paths in this process;
// the unique index on job display id is the backstop across processes.
func (r *Reconciler) reconcile(session *models.CheckoutSession) error {
	lock, _ := r.sessionLocks.LoadOrStore(session.ProviderSessionID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	current, err := r.repo.FindCheckoutSessionByProviderID(session.ProviderSessionID)
	if err != nil {
		return err
	}
	if current.Status == models.CheckoutStatusReconciled {
		return nil
	}

	if err := r.repo.MaterializeEntitlements(current, time.Now()); err != nil {
		return err
	}
	session.Status = models.CheckoutStatusReconciled

	log.Infof("[Payment] Reconciled checkout session %s", session.ProviderSessionID)
	return nil
}

func (r *Reconciler) finishEvent(eventID uint, processingError string) error {
	if err := r.repo.MarkWebhookProcessed(eventID, processingError); err != nil {
		log.Errorf("[Payment] Failed to mark webhook event %d processed: %v", eventID, err)
		return err
	}
	return nil
}
