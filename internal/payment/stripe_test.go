// AngelaMos | 2026
// stripe_test.go

package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signed(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	require.NotNil(t, sp)
	return sp.Header, []byte(payload)
}

func TestStripeConstructEvent(t *testing.T) {
	p := NewStripeProcessor("sk_test_unused", testWebhookSecret)

	tests := []struct {
		name   string
		body   string
		expect Event
	}{
		{
			name: "customer email on session",
			body: `{"id":"evt_1","object":"event","type":"checkout.session.completed",` +
				`"data":{"object":{"id":"cs_1","object":"checkout.session",` +
				`"customer_email":"Ann@Example.com","payment_status":"paid"}}}`,
			expect: Event{
				ID: "evt_1", Type: EventCheckoutCompleted,
				Email: "Ann@Example.com", PaymentStatus: PaymentStatusPaid,
			},
		},
		{
			name: "falls back to customer details",
			body: `{"id":"evt_2","object":"event","type":"checkout.session.async_payment_succeeded",` +
				`"data":{"object":{"id":"cs_2","object":"checkout.session",` +
				`"customer_details":{"email":"bob@example.com"},"payment_status":"paid"}}}`,
			expect: Event{
				ID: "evt_2", Type: EventCheckoutAsyncPaymentSucceeded,
				Email: "bob@example.com", PaymentStatus: PaymentStatusPaid,
			},
		},
		{
			name: "unrelated event keeps only id and type",
			body: `{"id":"evt_3","object":"event","type":"customer.created",` +
				`"data":{"object":{"id":"cus_1","object":"customer","email":"x@example.com"}}}`,
			expect: Event{ID: "evt_3", Type: "customer.created"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, payload := signed(t, tt.body)

			ev, err := p.ConstructEvent(payload, header)

			require.NoError(t, err)
			assert.Equal(t, tt.expect, *ev)
		})
	}
}

func TestStripeConstructEventRejectsBadSignature(t *testing.T) {
	p := NewStripeProcessor("sk_test_unused", testWebhookSecret)
	header, payload := signed(t, `{"id":"evt_1","object":"event","type":"checkout.session.completed"}`)

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = ' '

	_, err := p.ConstructEvent(tampered, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = p.ConstructEvent(payload, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	other := NewStripeProcessor("sk_test_unused", "whsec_other")
	_, err = other.ConstructEvent(payload, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeConstructEventMalformedSession(t *testing.T) {
	p := NewStripeProcessor("sk_test_unused", testWebhookSecret)

	for _, body := range []string{
		`not json at all`,
		`{"id":"evt_4","object":"event","type":"checkout.session.completed"}`,
		`{"id":"evt_5","object":"event","type":"checkout.session.completed",` +
			`"data":{"object":{"id":"cs_5","object":"checkout.session","payment_status":5}}}`,
	} {
		header, payload := signed(t, body)

		_, err := p.ConstructEvent(payload, header)
		assert.ErrorIs(t, err, ErrMalformedEvent, body)
		assert.NotErrorIs(t, err, ErrInvalidSignature, body)
	}
}
