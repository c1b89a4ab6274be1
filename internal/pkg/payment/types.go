package payment

import "errors"

// Reconciliation outcomes and validation failures surfaced to the HTTP layer.
var (
	// ErrEmptySelection means a checkout was requested with no images.
	ErrEmptySelection = errors.New("checkout selection is empty")
	// ErrUnknownJob means the selection referenced an image id with no job row.
	ErrUnknownJob = errors.New("selected image is unknown")
	// ErrJobNotReady means the selection referenced a job that has not reached
	// the ready state.
	ErrJobNotReady = errors.New("selected image is not ready for purchase")
	// ErrUnknownSession means the provider session id has no local checkout
	// record. Webhooks for foreign sessions are logged and dropped.
	ErrUnknownSession = errors.New("unknown checkout session")
	// ErrNotPaid means the provider has not (yet) confirmed the payment. It
	// covers both genuinely unpaid sessions and provider lookups that failed;
	// callers retry, they never fail the session.
	ErrNotPaid = errors.New("payment not confirmed")
)

// ProviderSession is the provider-agnostic view of a hosted checkout session.
type ProviderSession struct {
	ID            string
	URL           string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
}

// Paid reports whether the provider considers the session settled.
func (s *ProviderSession) Paid() bool {
	return s.PaymentStatus == "paid"
}

// CheckoutLineItem describes one purchasable image in a hosted checkout.
type CheckoutLineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// CreateSessionParams carries everything the provider needs to open a hosted
// checkout session.
type CreateSessionParams struct {
	SuccessURL string
	CancelURL  string
	Currency   string
	LineItems  []CheckoutLineItem
	// ClientReferenceID ties the provider session back to local state.
	ClientReferenceID string
}
