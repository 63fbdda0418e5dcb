// AngelaMos | 2026
// service.go

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
	"github.com/carterperez-dev/lifelessons-api/internal/middleware"
	"github.com/carterperez-dev/lifelessons-api/internal/user"
)

const (
	ProductName        = "Lifetime Premium Access"
	ProductDescription = "Unlock every premium life lesson, forever."
	PriceCurrency      = "BDT"
	PriceMinorUnits    = 150000
)

// EntitlementStore is the single write path for the premium flag.
type EntitlementStore interface {
	GrantPremium(ctx context.Context, email string) (*user.User, bool, error)
}

// WebhookOutcome describes what the webhook path did with an event.
type WebhookOutcome string

const (
	OutcomeGranted   WebhookOutcome = "granted"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	OutcomeIgnored   WebhookOutcome = "ignored"
	OutcomeUnpaid    WebhookOutcome = "unpaid"
	OutcomeNoEmail   WebhookOutcome = "no_email"
	OutcomeNoUser    WebhookOutcome = "no_user"
	OutcomeMalformed WebhookOutcome = "malformed"
)

type Service struct {
	processor Processor
	store     EntitlementStore
	ledger    EventLedger
	clientURL string
	logger    *slog.Logger
}

func NewService(
	processor Processor,
	store EntitlementStore,
	ledger EventLedger,
	clientURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		processor: processor,
		store:     store,
		ledger:    ledger,
		clientURL: strings.TrimRight(clientURL, "/"),
		logger:    logger,
	}
}

// CreateCheckoutSession opens a hosted checkout for the caller. It never
// touches the entitlement store.
func (s *Service) CreateCheckoutSession(
	ctx context.Context,
	identity *middleware.Identity,
	redirectURL string,
) (string, error) {
	if identity == nil || identity.Email == "" {
		return "", fmt.Errorf("create checkout: %w", core.ErrUnauthorized)
	}

	ctx, span := core.StartSpan(ctx, "payment.create_checkout_session")
	defer span.End()

	redirect := url.QueryEscape(SafeRedirectPath(redirectURL))

	checkoutURL, err := s.processor.CreateCheckoutSession(ctx, CheckoutRequest{
		Email:       strings.ToLower(identity.Email),
		ProductName: ProductName,
		Description: ProductDescription,
		Currency:    PriceCurrency,
		UnitAmount:  PriceMinorUnits,
		SuccessURL:  s.clientURL + "/payment/success?redirect=" + redirect,
		CancelURL:   s.clientURL + "/payment/cancel?redirect=" + redirect,
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		if !errors.Is(err, ErrProcessorUnavailable) {
			err = fmt.Errorf("%w: %w", ErrProcessorUnavailable, err)
		}
		return "", err
	}

	return checkoutURL, nil
}

// HandleWebhook verifies and applies one processor notification. A nil
// error means the event should be acknowledged.
func (s *Service) HandleWebhook(
	ctx context.Context,
	payload []byte,
	signature string,
) (WebhookOutcome, error) {
	event, err := s.processor.ConstructEvent(payload, signature)
	if err != nil {
		if errors.Is(err, ErrMalformedEvent) {
			s.logger.ErrorContext(ctx, "signed webhook event could not be decoded",
				"error", err)
			return OutcomeMalformed, nil
		}
		return "", fmt.Errorf("construct event: %w", err)
	}

	ctx, span := core.StartSpan(ctx, "payment.webhook",
		attribute.String("payment.event_id", event.ID),
		attribute.String("payment.event_type", event.Type),
	)
	defer span.End()

	logger := s.logger.With("event_id", event.ID, "event_type", event.Type)

	if !event.Handled() {
		return OutcomeIgnored, nil
	}

	if !event.Grants() {
		logger.Info("checkout not paid yet, waiting for async confirmation",
			"payment_status", event.PaymentStatus)
		return OutcomeUnpaid, nil
	}

	email := strings.ToLower(strings.TrimSpace(event.Email))
	if email == "" {
		logger.Warn("checkout event carries no payer email")
		return OutcomeNoEmail, nil
	}

	if s.seen(ctx, logger, event.ID) {
		core.AddSpanEvent(ctx, "duplicate_event")
		return OutcomeDuplicate, nil
	}

	_, granted, err := s.store.GrantPremium(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		logger.Warn("paid checkout for unknown user", "email", email)
		return OutcomeNoUser, nil
	}
	if err != nil {
		core.SetSpanError(ctx, err)
		return "", fmt.Errorf("grant premium from webhook: %w", err)
	}

	if err := s.ledger.Record(ctx, event.ID); err != nil {
		logger.Warn("failed to record webhook event", "error", err)
	}

	logger.Info("premium granted via webhook", "email", email, "transitioned", granted)

	return OutcomeGranted, nil
}

// seen consults the ledger. Ledger failures fall through to the grant.
func (s *Service) seen(ctx context.Context, logger *slog.Logger, eventID string) bool {
	if eventID == "" {
		return false
	}

	ok, err := s.ledger.Seen(ctx, eventID)
	if err != nil {
		logger.Warn("webhook ledger unavailable", "error", err)
		return false
	}

	return ok
}

// ConfirmPayment is the client-side confirmation path. It converges on
// the same flag assignment as the webhook.
func (s *Service) ConfirmPayment(
	ctx context.Context,
	identity *middleware.Identity,
) (*user.User, error) {
	if identity == nil || identity.Email == "" {
		return nil, fmt.Errorf("confirm payment: %w", core.ErrUnauthorized)
	}

	ctx, span := core.StartSpan(ctx, "payment.confirm")
	defer span.End()

	u, granted, err := s.store.GrantPremium(ctx, identity.Email)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			core.SetSpanError(ctx, err)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "premium confirmed by client",
		"email", u.Email, "transitioned", granted)

	return u, nil
}
