package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "github.com/re-trade/checkout-api/internal/entity"
)

// --- hand-rolled ports ---

type stubOrders struct {
	mu        sync.Mutex
	calls     int
	lastItems []domain.CartItem
	orderID   string
	err       error
	createdAt time.Time
}

func (s *stubOrders) CreateOrder(ctx context.Context, items []domain.CartItem, addressID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastItems = items
	s.createdAt = time.Now()
	if s.err != nil {
		return "", s.err
	}
	return s.orderID, nil
}

func (s *stubOrders) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return &domain.Order{ID: orderID}, nil
}

type stubPayments struct {
	mu       sync.Mutex
	calls    int
	lastID   string // orderID of the last init call
	url      string
	err      error
	block    bool // block until ctx is done, then return url/err
	calledAt time.Time
}

func (s *stubPayments) ListMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	return []domain.PaymentMethod{{ID: "m1", Name: "Gateway"}}, nil
}

func (s *stubPayments) InitPayment(ctx context.Context, methodID, content, orderID string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.lastID = orderID
	s.calledAt = time.Now()
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.url, s.err
}

type memStore struct {
	mu       sync.Mutex
	attempts map[string]domain.CheckoutAttempt
	states   []domain.State // every state ever written, in order
}

func newMemStore() *memStore {
	return &memStore{attempts: map[string]domain.CheckoutAttempt{}}
}

func (m *memStore) Put(ctx context.Context, a *domain.CheckoutAttempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = *a
	m.states = append(m.states, a.State)
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (*domain.CheckoutAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, nil
	}
	cp := a
	return &cp, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, id)
	return nil
}

func (m *memStore) sawState(s domain.State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.states {
		if st == s {
			return true
		}
	}
	return false
}

func (m *memStore) only() domain.CheckoutAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		return a
	}
	return domain.CheckoutAttempt{}
}

type noopJournal struct{}

func (noopJournal) Record(ctx context.Context, a *domain.CheckoutAttempt) error       { return nil }
func (noopJournal) UpdateOutcome(ctx context.Context, id, outcome, note string) error { return nil }

type stubGuard struct{ locked bool }

func (g *stubGuard) TryLock(ctx context.Context, scope, key string) (bool, error) {
	return !g.locked, nil
}

func (g *stubGuard) Unlock(ctx context.Context, scope, key string) error { return nil }

// memGuard contends for real: a key locks on first use.
type memGuard struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (g *memGuard) TryLock(ctx context.Context, scope, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys == nil {
		g.keys = map[string]bool{}
	}
	k := scope + ":" + key
	if g.keys[k] {
		return false, nil
	}
	g.keys[k] = true
	return true, nil
}

func (g *memGuard) Unlock(ctx context.Context, scope, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, scope+":"+key)
	return nil
}

type memPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *memPublisher) Publish(ctx context.Context, rk string, msg any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, rk)
	return nil
}

func testTimings() Timings {
	return Timings{
		ProcessingDelay: 80 * time.Millisecond,
		RedirectTimeout: 500 * time.Millisecond,
		ProcessTimeout:  time.Second,
	}
}

func newTestCheckout(orders *stubOrders, payments *stubPayments, store *memStore) *Checkout {
	return NewCheckout(orders, payments, store, noopJournal{}, &stubGuard{}, &memPublisher{}, testTimings())
}

func validInput() CheckoutInput {
	return CheckoutInput{
		UserID:          "u1",
		AddressID:       "a1",
		Items:           []domain.CartItem{{ProductID: "p1", Quantity: 2}},
		PaymentMethodID: "m1",
	}
}

// --- validation guard ---

func TestCheckout_ValidationBlocksNetwork(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*CheckoutInput)
		wantErr error
	}{
		{"missing address", func(in *CheckoutInput) { in.AddressID = "" }, ErrAddressRequired},
		{"no items", func(in *CheckoutInput) { in.Items = nil }, ErrNoItems},
		{"no payment method", func(in *CheckoutInput) { in.PaymentMethodID = "" }, ErrPaymentMethodRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := &stubOrders{orderID: "o123"}
			payments := &stubPayments{url: "https://pay.example/x"}
			uc := newTestCheckout(orders, payments, newMemStore())

			in := validInput()
			tc.mutate(&in)
			_, err := uc.Execute(context.Background(), in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if orders.calls != 0 || payments.calls != 0 {
				t.Fatalf("no network call may happen on validation failure (orders=%d payments=%d)",
					orders.calls, payments.calls)
			}
		})
	}
}

// --- happy path & processing delay ---

func TestCheckout_HappyPath(t *testing.T) {
	orders := &stubOrders{orderID: "o123"}
	payments := &stubPayments{url: "https://pay.example/x"}
	store := newMemStore()
	uc := newTestCheckout(orders, payments, store)

	out, err := uc.Execute(context.Background(), validInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if out.OrderID != "o123" || out.RedirectURL != "https://pay.example/x" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if orders.calls != 1 || payments.calls != 1 {
		t.Fatalf("expected exactly one order and one payment call")
	}
	if payments.lastID != "o123" {
		t.Fatalf("payment must carry the created order id, got %q", payments.lastID)
	}
	if !store.sawState(domain.StateProcessing) {
		t.Fatal("machine must pass through PROCESSING before payment initiation")
	}
	if got := store.only().State; got != domain.StateCompleted {
		t.Fatalf("expected COMPLETED, got %s", got)
	}
}

func TestCheckout_WaitsProcessingDelayBeforePayment(t *testing.T) {
	orders := &stubOrders{orderID: "o123"}
	payments := &stubPayments{url: "https://pay.example/x"}
	uc := newTestCheckout(orders, payments, newMemStore())

	if _, err := uc.Execute(context.Background(), validInput()); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	gap := payments.calledAt.Sub(orders.createdAt)
	if gap < testTimings().ProcessingDelay {
		t.Fatalf("payment fired %v after order success, want >= %v", gap, testTimings().ProcessingDelay)
	}
}

// --- failure handling ---

func TestCheckout_OrderFailureReturnsToInitial(t *testing.T) {
	orders := &stubOrders{err: errors.New("rejected")}
	payments := &stubPayments{url: "https://pay.example/x"}
	store := newMemStore()
	uc := newTestCheckout(orders, payments, store)

	_, err := uc.Execute(context.Background(), validInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if payments.calls != 0 {
		t.Fatal("payment must not be attempted when the order was never created")
	}
	a := store.only()
	if a.State != domain.StateInitial || a.OrderID != "" {
		t.Fatalf("expected clean INITIAL attempt, got %+v", a)
	}
}

func TestCheckout_BlankRedirectURLIsFailure(t *testing.T) {
	orders := &stubOrders{orderID: "o123"}
	payments := &stubPayments{url: "   "}
	store := newMemStore()
	uc := newTestCheckout(orders, payments, store)

	_, err := uc.Execute(context.Background(), validInput())
	if !errors.Is(err, ErrBlankRedirect) {
		t.Fatalf("expected ErrBlankRedirect, got %v", err)
	}
	if got := store.only().State; got != domain.StatePaymentFailed {
		t.Fatalf("expected PAYMENT_FAILED, got %s", got)
	}
}

func TestCheckout_WatchdogInterruptsStalledPayment(t *testing.T) {
	orders := &stubOrders{orderID: "o123"}
	payments := &stubPayments{block: true, url: "https://pay.example/late"}
	store := newMemStore()
	uc := NewCheckout(orders, payments, store, noopJournal{}, &stubGuard{}, &memPublisher{}, Timings{
		ProcessingDelay: 10 * time.Millisecond,
		RedirectTimeout: 60 * time.Millisecond,
		ProcessTimeout:  time.Second,
	})

	start := time.Now()
	_, err := uc.Execute(context.Background(), validInput())
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 800*time.Millisecond {
		t.Fatalf("watchdog did not cut the call off in time (%v)", elapsed)
	}
	a := store.only()
	if a.State != domain.StatePaymentFailed {
		t.Fatalf("expected PAYMENT_FAILED, got %s", a.State)
	}
	if a.FailureNote == "" {
		t.Fatal("interruption must leave a note distinct from a rejection")
	}
	// the late outcome must not resurrect the attempt
	time.Sleep(50 * time.Millisecond)
	if got, _ := store.Get(context.Background(), a.ID); got.State != domain.StatePaymentFailed {
		t.Fatalf("late response mutated a timed-out attempt: %s", got.State)
	}
}

func TestCheckout_RepeatedAttemptIDCreatesOneOrder(t *testing.T) {
	orders := &stubOrders{orderID: "o123"}
	payments := &stubPayments{url: "https://pay.example/x"}
	store := newMemStore()
	uc := NewCheckout(orders, payments, store, noopJournal{}, &memGuard{}, &memPublisher{}, testTimings())

	in := validInput()
	in.AttemptID = "client-key-1"

	out, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if out.AttemptID != "client-key-1" {
		t.Fatalf("attempt id = %q, want the client's key", out.AttemptID)
	}

	_, err = uc.Execute(context.Background(), in)
	if !errors.Is(err, ErrDuplicateAttempt) {
		t.Fatalf("second submission: expected ErrDuplicateAttempt, got %v", err)
	}
	if orders.calls != 1 {
		t.Fatalf("orders created = %d, want exactly 1", orders.calls)
	}
	// the duplicate must not clobber the live attempt
	a, _ := store.Get(context.Background(), "client-key-1")
	if a.State != domain.StateCompleted {
		t.Fatalf("live attempt overwritten by the duplicate: %s", a.State)
	}
}

func TestCheckout_OrderFailureReleasesAttemptKey(t *testing.T) {
	orders := &stubOrders{err: errors.New("out of stock")}
	payments := &stubPayments{url: "https://pay.example/x"}
	uc := NewCheckout(orders, payments, newMemStore(), noopJournal{}, &memGuard{}, &memPublisher{}, testTimings())

	in := validInput()
	in.AttemptID = "client-key-2"

	if _, err := uc.Execute(context.Background(), in); err == nil {
		t.Fatal("expected order failure")
	}

	// the order was never created, so the same key may try again
	orders.err = nil
	orders.orderID = "o456"
	out, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("resubmission after order failure: %v", err)
	}
	if out.OrderID != "o456" {
		t.Fatalf("order id = %q", out.OrderID)
	}
}

func TestCheckout_DuplicateGuardBlocksSecondOrder(t *testing.T) {
	orders := &stubOrders{orderID: "o123"}
	uc := NewCheckout(orders, &stubPayments{url: "u"}, newMemStore(), noopJournal{},
		&stubGuard{locked: true}, &memPublisher{}, testTimings())

	_, err := uc.Execute(context.Background(), validInput())
	if !errors.Is(err, ErrDuplicateAttempt) {
		t.Fatalf("expected ErrDuplicateAttempt, got %v", err)
	}
	if orders.calls != 0 {
		t.Fatal("guarded attempt must not create an order")
	}
}

func TestCheckout_CallerDisconnectStillPersistsInterrupt(t *testing.T) {
	orders := &stubOrders{orderID: "o123"}
	payments := &stubPayments{url: "https://pay.example/x"}
	store := newMemStore()
	uc := NewCheckout(orders, payments, store, noopJournal{}, &stubGuard{}, &memPublisher{}, Timings{
		ProcessingDelay: 300 * time.Millisecond,
		RedirectTimeout: time.Second,
		ProcessTimeout:  time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := uc.Execute(ctx, validInput())
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if payments.calls != 0 {
		t.Fatal("payment must not be initiated after the caller disconnected")
	}
	a := store.only()
	if a.State != domain.StatePaymentFailed {
		t.Fatalf("disconnect during processing must persist PAYMENT_FAILED, got %s", a.State)
	}
}

// --- retry & reset ---

func failedAttempt(store *memStore, orderID string) string {
	a := &domain.CheckoutAttempt{
		ID:              "att-1",
		UserID:          "u1",
		State:           domain.StatePaymentFailed,
		AddressID:       "a1",
		Items:           []domain.CartItem{{ProductID: "p1", Quantity: 1}},
		PaymentMethodID: "m1",
		OrderID:         orderID,
		FailureNote:     "gateway rejected",
	}
	_ = store.Put(context.Background(), a)
	return a.ID
}

func TestRetryPayment_ReusesCapturedOrder(t *testing.T) {
	orders := &stubOrders{orderID: "o-should-not-be-used"}
	payments := &stubPayments{url: "https://pay.example/retry"}
	store := newMemStore()
	uc := newTestCheckout(orders, payments, store)

	id := failedAttempt(store, "o123")
	out, err := uc.RetryPayment(context.Background(), id)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if orders.calls != 0 {
		t.Fatal("retry must never call order creation again")
	}
	if payments.lastID != "o123" {
		t.Fatalf("retry must reuse the captured order id, got %q", payments.lastID)
	}
	if out.RedirectURL != "https://pay.example/retry" {
		t.Fatalf("unexpected redirect: %q", out.RedirectURL)
	}
}

func TestRetryPayment_WithoutCapturedOrderFailsFast(t *testing.T) {
	payments := &stubPayments{url: "u"}
	store := newMemStore()
	uc := newTestCheckout(&stubOrders{}, payments, store)

	id := failedAttempt(store, "")
	_, err := uc.RetryPayment(context.Background(), id)
	if !errors.Is(err, ErrNoOrderCaptured) {
		t.Fatalf("expected ErrNoOrderCaptured, got %v", err)
	}
	if payments.calls != 0 {
		t.Fatal("no payment call without an order id")
	}
}

func TestRetryPayment_OnlyFromPaymentFailed(t *testing.T) {
	store := newMemStore()
	uc := newTestCheckout(&stubOrders{}, &stubPayments{url: "u"}, store)

	a := &domain.CheckoutAttempt{ID: "att-2", State: domain.StateCompleted, OrderID: "o1"}
	_ = store.Put(context.Background(), a)

	_, err := uc.RetryPayment(context.Background(), "att-2")
	if !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestForceReset_ClearsOrderID(t *testing.T) {
	store := newMemStore()
	uc := newTestCheckout(&stubOrders{}, &stubPayments{}, store)

	id := failedAttempt(store, "o123")
	if err := uc.ForceReset(context.Background(), id); err != nil {
		t.Fatalf("reset: %v", err)
	}
	a, _ := store.Get(context.Background(), id)
	if a.State != domain.StateInitial || a.OrderID != "" {
		t.Fatalf("expected clean INITIAL attempt, got %+v", a)
	}
}

func TestForceReset_UnknownAttempt(t *testing.T) {
	uc := newTestCheckout(&stubOrders{}, &stubPayments{}, newMemStore())
	if err := uc.ForceReset(context.Background(), "nope"); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
}

// --- events ---

func TestCheckout_PublishesLifecycleEvents(t *testing.T) {
	pub := &memPublisher{}
	uc := NewCheckout(&stubOrders{orderID: "o1"}, &stubPayments{url: "u"},
		newMemStore(), noopJournal{}, &stubGuard{}, pub, testTimings())

	if _, err := uc.Execute(context.Background(), validInput()); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.keys) != 1 || pub.keys[0] != RKCheckoutCompleted {
		t.Fatalf("expected a single %s event, got %v", RKCheckoutCompleted, pub.keys)
	}
}
