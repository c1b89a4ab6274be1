package controllers

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/StefanBrandt/FotoFix/internal/pkg/env"
	"github.com/StefanBrandt/FotoFix/internal/pkg/payment"
	"github.com/StefanBrandt/FotoFix/internal/pkg/session"
)

type createCheckoutRequest struct {
	SelectedImages []string `json:"selected_images" validate:"required,min=1,max=10,dive,min=1"`
}

func (r *createCheckoutRequest) Validate() error {
	v := validator.New()
	return v.Struct(r)
}

// HandleCreateCheckout opens a hosted checkout for a selection of ready
// enhancements and returns the redirect URL.
// Response: 201 { session_id, checkout_url, amount_total, currency }
func HandleCreateCheckout(c *fiber.Ctx) error {
	var req createCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	buyerSessionID, err := session.BuyerSessionID(c)
	if err != nil {
		fiberlog.Errorf("[Checkout] Buyer session unavailable: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "session unavailable"})
	}

	checkout, checkoutURL, err := checkoutManager.CreateCheckout(c.UserContext(), buyerSessionID, req.SelectedImages)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrEmptySelection):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, payment.ErrUnknownJob):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, payment.ErrJobNotReady):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			fiberlog.Errorf("[Checkout] Creating checkout failed: %v", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not open checkout session"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id":   checkout.ProviderSessionID,
		"checkout_url": checkoutURL,
		"amount_total": checkout.AmountTotal,
		"currency":     checkout.Currency,
	})
}

type verifyCheckoutRequest struct {
	SessionID string `json:"session_id" validate:"required,min=1"`
}

func (r *verifyCheckoutRequest) Validate() error {
	v := validator.New()
	return v.Struct(r)
}

// HandleVerifyCheckout is the poll half of payment confirmation. It settles
// the session from local state or a live provider lookup; a not-yet-paid
// answer is a normal response, not an error, so clients just poll again.
// Response: { paid, entitlements? }
func HandleVerifyCheckout(c *fiber.Ctx) error {
	var req verifyCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	checkout, err := paymentReconciler.VerifyNow(c.UserContext(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrUnknownSession):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, payment.ErrNotPaid):
			return c.JSON(fiber.Map{"paid": false})
		default:
			fiberlog.Errorf("[Checkout] Verify for %s failed: %v", req.SessionID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "verification failed"})
		}
	}

	selection, err := checkout.Selection()
	if err != nil {
		fiberlog.Errorf("[Checkout] Corrupt selection for %s: %v", req.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "verification failed"})
	}

	return c.JSON(fiber.Map{
		"paid":         true,
		"entitlements": selection,
	})
}

// stripeEvent is the slice of a webhook payload this service reads.
type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string `json:"id"`
			PaymentStatus string `json:"payment_status"`
		} `json:"object"`
	} `json:"data"`
}

// HandleStripeWebhook is the push half of payment confirmation. Signature
// failures are rejected; everything else is acknowledged with 200 so the
// provider stops retrying, whether or not the event had an effect.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	valid := payment.VerifyStripeSignature(payload, signature, secret, payment.DefaultSignatureTolerance)
	if !valid {
		fiberlog.Warn("[Webhook] Rejected stripe event with invalid signature")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid signature"})
	}

	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil || event.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	err := paymentReconciler.OnProviderEvent(c.UserContext(), payment.WebhookEvent{
		EventID:           event.ID,
		EventType:         event.Type,
		ProviderSessionID: event.Data.Object.ID,
		PaymentStatus:     event.Data.Object.PaymentStatus,
		PayloadJSON:       string(payload),
		SignatureValid:    true,
	})
	if err != nil {
		fiberlog.Errorf("[Webhook] Processing event %s failed: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event processing failed"})
	}

	return c.JSON(fiber.Map{"received": true})
}
