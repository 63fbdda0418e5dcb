// AngelaMos | 2026
// stripe.go

package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

type StripeProcessor struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProcessor(secretKey, webhookSecret string) *StripeProcessor {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeProcessor{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

func (p *StripeProcessor) CreateCheckoutSession(
	ctx context.Context,
	req CheckoutRequest,
) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.ProductName),
						Description: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail:     stripe.String(req.Email),
		ClientReferenceID: stripe.String(req.Email),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
	}
	params.AddMetadata("email", req.Email)

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w: %w", ErrProcessorUnavailable, err)
	}

	return sess.URL, nil
}

func (p *StripeProcessor) ConstructEvent(payload []byte, signature string) (*Event, error) {
	if err := webhook.ValidatePayload(payload, signature, p.webhookSecret); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: decode event: %w", ErrMalformedEvent, err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
	default:
		return out, nil
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%w: checkout event without data", ErrMalformedEvent)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: decode checkout session: %w", ErrMalformedEvent, err)
	}

	out.PaymentStatus = string(sess.PaymentStatus)
	out.Email = sessionEmail(&sess)

	return out, nil
}

// sessionEmail prefers the address the session was opened for, then the
// one the customer typed at checkout, then the metadata copy.
func sessionEmail(sess *stripe.CheckoutSession) string {
	if sess.CustomerEmail != "" {
		return sess.CustomerEmail
	}
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		return sess.CustomerDetails.Email
	}
	if email := sess.Metadata["email"]; email != "" {
		return email
	}
	return sess.ClientReferenceID
}
