// AngelaMos | 2026
// service_test.go

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
	"github.com/carterperez-dev/lifelessons-api/internal/middleware"
	"github.com/carterperez-dev/lifelessons-api/internal/user"
)

const validSignature = "t=1,v1=valid"

type fakeProcessor struct {
	mu       sync.Mutex
	requests []CheckoutRequest
	failWith error
}

func (f *fakeProcessor) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return "", f.failWith
	}
	f.requests = append(f.requests, req)
	return "https://checkout.example/session/" + fmt.Sprint(len(f.requests)), nil
}

func (f *fakeProcessor) ConstructEvent(payload []byte, signature string) (*Event, error) {
	if signature != validSignature {
		return nil, ErrInvalidSignature
	}
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	return &ev, nil
}

type fakeStore struct {
	mu          sync.Mutex
	users       map[string]*user.User
	transitions int
	calls       int
	failWith    error
}

func newFakeStore(emails ...string) *fakeStore {
	s := &fakeStore{users: map[string]*user.User{}}
	for i, e := range emails {
		s.users[e] = &user.User{ID: fmt.Sprintf("u%d", i), Email: e, Name: e, Role: user.RoleUser}
	}
	return s
}

func (s *fakeStore) GrantPremium(_ context.Context, email string) (*user.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failWith != nil {
		return nil, false, s.failWith
	}
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, false, fmt.Errorf("fake: %w", core.ErrNotFound)
	}
	granted := !u.IsPremium
	if granted {
		u.IsPremium = true
		s.transitions++
	}
	cp := *u
	return &cp, granted, nil
}

func (s *fakeStore) premium(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	return ok && u.IsPremium
}

type fakeLedger struct {
	mu      sync.Mutex
	events  map[string]bool
	failing bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{events: map[string]bool{}}
}

func (l *fakeLedger) Seen(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failing {
		return false, errors.New("redis down")
	}
	return l.events[id], nil
}

func (l *fakeLedger) Record(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failing {
		return errors.New("redis down")
	}
	l.events[id] = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func eventPayload(t *testing.T, ev Event) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func paidEvent(id, email string) Event {
	return Event{ID: id, Type: EventCheckoutCompleted, Email: email, PaymentStatus: PaymentStatusPaid}
}

type fixture struct {
	svc    *Service
	proc   *fakeProcessor
	store  *fakeStore
	ledger *fakeLedger
}

func newFixture(emails ...string) *fixture {
	f := &fixture{
		proc:   &fakeProcessor{},
		store:  newFakeStore(emails...),
		ledger: newFakeLedger(),
	}
	f.svc = NewService(f.proc, f.store, f.ledger, "https://client.example/", discardLogger())
	return f
}

func TestCreateCheckoutSession(t *testing.T) {
	f := newFixture("ann@example.com")

	url, err := f.svc.CreateCheckoutSession(context.Background(),
		&middleware.Identity{Email: "Ann@Example.com"}, "//evil.example")
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	require.Len(t, f.proc.requests, 1)
	req := f.proc.requests[0]
	assert.Equal(t, "ann@example.com", req.Email)
	assert.Equal(t, int64(PriceMinorUnits), req.UnitAmount)
	assert.Equal(t, PriceCurrency, req.Currency)
	assert.Equal(t, "https://client.example/payment/success?redirect=%2Fdashboard", req.SuccessURL)
	assert.Equal(t, "https://client.example/payment/cancel?redirect=%2Fdashboard", req.CancelURL)

	assert.Zero(t, f.store.calls, "checkout must not touch entitlements")
}

func TestCreateCheckoutSessionProcessorFailure(t *testing.T) {
	f := newFixture("ann@example.com")
	f.proc.failWith = errors.New("connection reset")

	_, err := f.svc.CreateCheckoutSession(context.Background(),
		&middleware.Identity{Email: "ann@example.com"}, "/lessons/1")
	assert.ErrorIs(t, err, ErrProcessorUnavailable)

	_, err = f.svc.CreateCheckoutSession(context.Background(), nil, "/")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestWebhookInvalidSignatureLeavesStateUnchanged(t *testing.T) {
	f := newFixture("ann@example.com")

	_, err := f.svc.HandleWebhook(context.Background(),
		eventPayload(t, paidEvent("evt_1", "ann@example.com")), "t=1,v1=forged")

	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.False(t, f.store.premium("ann@example.com"))
	assert.Zero(t, f.store.calls)
}

func TestWebhookUndecodableEventIsAcknowledged(t *testing.T) {
	f := newFixture("ann@example.com")

	outcome, err := f.svc.HandleWebhook(context.Background(), []byte(`{"ID":`), validSignature)

	require.NoError(t, err)
	assert.Equal(t, OutcomeMalformed, outcome)
	assert.Zero(t, f.store.calls)
}

func TestWebhookGrantsPremium(t *testing.T) {
	f := newFixture("ann@example.com")

	outcome, err := f.svc.HandleWebhook(context.Background(),
		eventPayload(t, paidEvent("evt_1", "ANN@example.com")), validSignature)

	require.NoError(t, err)
	assert.Equal(t, OutcomeGranted, outcome)
	assert.True(t, f.store.premium("ann@example.com"))
	assert.True(t, f.ledger.events["evt_1"])
}

func TestWebhookRedeliveryIsShortCircuited(t *testing.T) {
	f := newFixture("ann@example.com")
	payload := eventPayload(t, paidEvent("evt_1", "ann@example.com"))

	_, err := f.svc.HandleWebhook(context.Background(), payload, validSignature)
	require.NoError(t, err)

	outcome, err := f.svc.HandleWebhook(context.Background(), payload, validSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 1, f.store.calls)
}

func TestWebhookLedgerFailureDoesNotBlockGrant(t *testing.T) {
	f := newFixture("ann@example.com")
	f.ledger.failing = true

	outcome, err := f.svc.HandleWebhook(context.Background(),
		eventPayload(t, paidEvent("evt_1", "ann@example.com")), validSignature)

	require.NoError(t, err)
	assert.Equal(t, OutcomeGranted, outcome)
	assert.True(t, f.store.premium("ann@example.com"))
}

func TestWebhookAcknowledgesWithoutGrant(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		outcome WebhookOutcome
	}{
		{
			name:    "unrelated event type",
			event:   Event{ID: "evt_a", Type: "customer.created", Email: "ann@example.com"},
			outcome: OutcomeIgnored,
		},
		{
			name: "delayed payment not yet settled",
			event: Event{
				ID: "evt_b", Type: EventCheckoutCompleted,
				Email: "ann@example.com", PaymentStatus: "unpaid",
			},
			outcome: OutcomeUnpaid,
		},
		{
			name:    "no payer email",
			event:   paidEvent("evt_c", "  "),
			outcome: OutcomeNoEmail,
		},
		{
			name:    "payer never signed up",
			event:   paidEvent("evt_d", "ghost@example.com"),
			outcome: OutcomeNoUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("ann@example.com")

			outcome, err := f.svc.HandleWebhook(context.Background(),
				eventPayload(t, tt.event), validSignature)

			require.NoError(t, err)
			assert.Equal(t, tt.outcome, outcome)
			assert.False(t, f.store.premium("ann@example.com"))
			assert.Empty(t, f.ledger.events)
		})
	}
}

func TestWebhookAsyncPaymentSucceededGrants(t *testing.T) {
	f := newFixture("ann@example.com")

	ev := paidEvent("evt_async", "ann@example.com")
	ev.Type = EventCheckoutAsyncPaymentSucceeded

	outcome, err := f.svc.HandleWebhook(context.Background(), eventPayload(t, ev), validSignature)

	require.NoError(t, err)
	assert.Equal(t, OutcomeGranted, outcome)
	assert.True(t, f.store.premium("ann@example.com"))
}

func TestWebhookStoreFailureIsRetryable(t *testing.T) {
	f := newFixture("ann@example.com")
	f.store.failWith = errors.New("connection refused")

	_, err := f.svc.HandleWebhook(context.Background(),
		eventPayload(t, paidEvent("evt_1", "ann@example.com")), validSignature)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, f.ledger.events, "failed grants must not be recorded")
}

func TestConfirmThenWebhookConverges(t *testing.T) {
	f := newFixture("ann@example.com")
	identity := &middleware.Identity{Email: "ann@example.com"}

	u, err := f.svc.ConfirmPayment(context.Background(), identity)
	require.NoError(t, err)
	assert.True(t, u.IsPremium)

	outcome, err := f.svc.HandleWebhook(context.Background(),
		eventPayload(t, paidEvent("evt_1", "ann@example.com")), validSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeGranted, outcome)

	u, err = f.svc.ConfirmPayment(context.Background(), identity)
	require.NoError(t, err)
	assert.True(t, u.IsPremium)

	assert.Equal(t, 1, f.store.transitions)
}

func TestConfirmPaymentUnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ConfirmPayment(context.Background(), &middleware.Identity{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.ConfirmPayment(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestConcurrentGrantsTransitionOnce(t *testing.T) {
	f := newFixture("ann@example.com")
	identity := &middleware.Identity{Email: "ann@example.com"}

	payloads := make([][]byte, 3)
	for i := range payloads {
		payloads[i] = eventPayload(t, paidEvent(fmt.Sprintf("evt_%d", i), "ann@example.com"))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 40)

	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.svc.ConfirmPayment(context.Background(), identity)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := f.svc.HandleWebhook(context.Background(), payloads[i%3], validSignature)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.True(t, f.store.premium("ann@example.com"))
	assert.Equal(t, 1, f.store.transitions)
}
