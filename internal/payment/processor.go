// AngelaMos | 2026
// processor.go

package payment

import (
	"context"
	"errors"
)

var (
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrMalformedEvent       = errors.New("malformed webhook event")
	ErrProcessorUnavailable = errors.New("payment processor unavailable")
)

// Processor is the hosted checkout provider.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	ConstructEvent(payload []byte, signature string) (*Event, error)
}

type CheckoutRequest struct {
	Email       string
	ProductName string
	Description string
	Currency    string
	UnitAmount  int64
	SuccessURL  string
	CancelURL   string
}

// Event is the part of a verified processor notification the entitlement
// flow cares about.
type Event struct {
	ID            string
	Type          string
	Email         string
	PaymentStatus string
}

const (
	EventCheckoutCompleted             = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"

	PaymentStatusPaid = "paid"
)

// Grants reports whether the event should flip the premium flag.
func (e *Event) Grants() bool {
	switch e.Type {
	case EventCheckoutCompleted, EventCheckoutAsyncPaymentSucceeded:
		return e.PaymentStatus == PaymentStatusPaid
	default:
		return false
	}
}

// Handled reports whether the event type belongs to the checkout flow.
func (e *Event) Handled() bool {
	return e.Type == EventCheckoutCompleted || e.Type == EventCheckoutAsyncPaymentSucceeded
}
