package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	domain "github.com/re-trade/checkout-api/internal/entity"
)

var (
	ErrAddressRequired       = errors.New("delivery address required")
	ErrNoItems               = errors.New("no items selected")
	ErrPaymentMethodRequired = errors.New("payment method required")
	ErrBlankRedirect         = errors.New("payment gateway returned a blank redirect url")
	ErrInterrupted           = errors.New("payment step interrupted")
	ErrNoOrderCaptured       = errors.New("no order id captured for this attempt")
	ErrAttemptNotFound       = errors.New("checkout attempt not found")
	ErrDuplicateAttempt      = errors.New("order already created for this attempt")
)

// Timings bounds the post-creation phase of a checkout attempt. The
// watchdogs are client-side: expiry declares the step failed regardless of
// the outstanding call, and the call's context is cancelled so a late
// response cannot mutate the attempt afterwards.
type Timings struct {
	ProcessingDelay time.Duration // pause between order creation and payment
	RedirectTimeout time.Duration // bound on the payment-initiation call
	ProcessTimeout  time.Duration // bound on the whole post-creation phase
}

func DefaultTimings() Timings {
	return Timings{
		ProcessingDelay: 1500 * time.Millisecond,
		RedirectTimeout: 45 * time.Second,
		ProcessTimeout:  60 * time.Second,
	}
}

type CheckoutInput struct {
	UserID          string
	AddressID       string
	Items           []domain.CartItem
	PaymentMethodID string
	// AttemptID is the client's idempotency key for this attempt. A repeated
	// submission with the same id is refused instead of creating a second
	// order. Generated server-side when blank.
	AttemptID string
}

type CheckoutOutput struct {
	AttemptID   string
	OrderID     string
	RedirectURL string
}

// Checkout drives the sequence address-selected -> order-created ->
// payment-initiated -> redirect for one attempt at a time.
type Checkout struct {
	orders   OrderService
	payments PaymentService
	store    AttemptStore
	journal  AttemptJournal
	guard    OrderGuard
	events   EventPublisher
	timings  Timings
}

func NewCheckout(orders OrderService, payments PaymentService, store AttemptStore,
	journal AttemptJournal, guard OrderGuard, events EventPublisher, t Timings) *Checkout {
	if t.ProcessingDelay <= 0 {
		t = DefaultTimings()
	}
	return &Checkout{
		orders: orders, payments: payments, store: store,
		journal: journal, guard: guard, events: events, timings: t,
	}
}

// validate enforces the checkout guard in order: address, items, method.
// The first failing check wins; nothing is sent to the network.
func validate(in CheckoutInput) error {
	if in.AddressID == "" {
		return ErrAddressRequired
	}
	if len(in.Items) == 0 {
		return ErrNoItems
	}
	for _, it := range in.Items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	if in.PaymentMethodID == "" {
		return ErrPaymentMethodRequired
	}
	return nil
}

func (uc *Checkout) Execute(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	if err := validate(in); err != nil {
		return CheckoutOutput{}, err
	}

	attemptID := strings.TrimSpace(in.AttemptID)
	if attemptID == "" {
		attemptID = uuid.NewString()
	}

	now := time.Now()
	a := &domain.CheckoutAttempt{
		ID:              attemptID,
		UserID:          in.UserID,
		State:           domain.StateInitial,
		AddressID:       in.AddressID,
		Items:           in.Items,
		PaymentMethodID: in.PaymentMethodID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := a.Apply(domain.EventBegin, time.Now()); err != nil {
		return CheckoutOutput{}, err
	}

	// One order creation per attempt id, ever. Checked before the attempt is
	// stored so a duplicate submission cannot clobber the live one.
	ok, err := uc.guard.TryLock(ctx, "checkout", a.ID)
	if err != nil {
		return CheckoutOutput{}, fmt.Errorf("order guard: %w", err)
	}
	if !ok {
		return CheckoutOutput{}, ErrDuplicateAttempt
	}

	if err := uc.store.Put(ctx, a); err != nil {
		return CheckoutOutput{}, fmt.Errorf("store attempt: %w", err)
	}
	_ = uc.journal.Record(ctx, a)

	orderID, err := uc.orders.CreateOrder(ctx, a.Items, a.AddressID)
	if err != nil {
		// Nothing was created; back to a fully editable state. The guard is
		// released so a resubmission with the same attempt id may retry.
		_ = a.Apply(domain.EventOrderError, time.Now())
		_ = uc.store.Put(ctx, a)
		_ = uc.guard.Unlock(ctx, "checkout", a.ID)
		return CheckoutOutput{}, fmt.Errorf("create order: %w", err)
	}
	a.OrderID = orderID
	if err := a.Apply(domain.EventOrderCreated, time.Now()); err != nil {
		return CheckoutOutput{}, err
	}
	_ = uc.store.Put(ctx, a)

	return uc.runPaymentPhase(ctx, a)
}

// runPaymentPhase waits out the processing delay, then initiates payment.
// Bounded by ProcessTimeout as a whole and RedirectTimeout for the call.
func (uc *Checkout) runPaymentPhase(ctx context.Context, a *domain.CheckoutAttempt) (CheckoutOutput, error) {
	phaseCtx, cancel := context.WithTimeout(ctx, uc.timings.ProcessTimeout)
	defer cancel()

	select {
	case <-time.After(uc.timings.ProcessingDelay):
	case <-phaseCtx.Done():
		return CheckoutOutput{}, uc.interrupt(context.WithoutCancel(ctx), a, "processing window expired")
	}

	if err := a.Apply(domain.EventDelayElapsed, time.Now()); err != nil {
		return CheckoutOutput{}, err
	}
	_ = uc.store.Put(ctx, a)

	return uc.initiatePayment(phaseCtx, a)
}

// initiatePayment performs the redirecting step. Callers must have the
// attempt in StateRedirecting.
func (uc *Checkout) initiatePayment(ctx context.Context, a *domain.CheckoutAttempt) (CheckoutOutput, error) {
	callCtx, cancel := context.WithTimeout(ctx, uc.timings.RedirectTimeout)
	defer cancel()

	url, err := uc.payments.InitPayment(callCtx, a.PaymentMethodID, paymentContent(a.OrderID), a.OrderID)
	if err != nil {
		if callCtx.Err() != nil {
			return CheckoutOutput{}, uc.interrupt(context.WithoutCancel(ctx), a, "payment initiation timed out")
		}
		return CheckoutOutput{}, uc.failPayment(context.WithoutCancel(ctx), a, err)
	}
	if strings.TrimSpace(url) == "" {
		return CheckoutOutput{}, uc.failPayment(context.WithoutCancel(ctx), a, ErrBlankRedirect)
	}

	a.RedirectURL = url
	if err := a.Apply(domain.EventRedirectReady, time.Now()); err != nil {
		return CheckoutOutput{}, err
	}
	_ = uc.store.Put(ctx, a)
	_ = uc.journal.UpdateOutcome(ctx, a.ID, string(domain.StateCompleted), "")
	_ = uc.events.Publish(ctx, RKCheckoutCompleted, CheckoutEventMsg{
		AttemptID: a.ID, UserID: a.UserID, OrderID: a.OrderID,
	})
	return CheckoutOutput{AttemptID: a.ID, OrderID: a.OrderID, RedirectURL: url}, nil
}

// RetryPayment re-runs only the payment step of a failed attempt, reusing
// the order created the first time around. It never creates a second order.
func (uc *Checkout) RetryPayment(ctx context.Context, attemptID string) (CheckoutOutput, error) {
	a, err := uc.store.Get(ctx, attemptID)
	if err != nil {
		return CheckoutOutput{}, err
	}
	if a == nil {
		return CheckoutOutput{}, ErrAttemptNotFound
	}
	if a.OrderID == "" {
		return CheckoutOutput{}, ErrNoOrderCaptured
	}
	if err := a.Apply(domain.EventRetry, time.Now()); err != nil {
		return CheckoutOutput{}, err
	}
	_ = uc.store.Put(ctx, a)
	return uc.initiatePayment(ctx, a)
}

// ForceReset abandons the attempt and returns it to the editable state,
// clearing the captured order id. The created order is left to the backend's
// own expiry; no cancellation endpoint exists.
func (uc *Checkout) ForceReset(ctx context.Context, attemptID string) error {
	a, err := uc.store.Get(ctx, attemptID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAttemptNotFound
	}
	if err := a.Apply(domain.EventReset, time.Now()); err != nil {
		return err
	}
	if err := uc.store.Put(ctx, a); err != nil {
		return err
	}
	return uc.journal.UpdateOutcome(ctx, a.ID, "RESET", "")
}

func (uc *Checkout) GetAttempt(ctx context.Context, attemptID string) (*domain.CheckoutAttempt, error) {
	a, err := uc.store.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAttemptNotFound
	}
	return a, nil
}

func (uc *Checkout) interrupt(ctx context.Context, a *domain.CheckoutAttempt, note string) error {
	a.FailureNote = note
	_ = a.Apply(domain.EventInterrupted, time.Now())
	_ = uc.store.Put(ctx, a)
	_ = uc.journal.UpdateOutcome(ctx, a.ID, string(domain.StatePaymentFailed), note)
	_ = uc.events.Publish(ctx, RKCheckoutPaymentFailed, CheckoutEventMsg{
		AttemptID: a.ID, UserID: a.UserID, OrderID: a.OrderID, FailureNote: note,
	})
	return fmt.Errorf("%w: %s", ErrInterrupted, note)
}

func (uc *Checkout) failPayment(ctx context.Context, a *domain.CheckoutAttempt, cause error) error {
	a.FailureNote = cause.Error()
	_ = a.Apply(domain.EventPaymentError, time.Now())
	_ = uc.store.Put(ctx, a)
	_ = uc.journal.UpdateOutcome(ctx, a.ID, string(domain.StatePaymentFailed), cause.Error())
	_ = uc.events.Publish(ctx, RKCheckoutPaymentFailed, CheckoutEventMsg{
		AttemptID: a.ID, UserID: a.UserID, OrderID: a.OrderID, FailureNote: cause.Error(),
	})
	if errors.Is(cause, ErrBlankRedirect) {
		return cause
	}
	return fmt.Errorf("init payment: %w", cause)
}

func paymentContent(orderID string) string {
	return "payment for order " + orderID
}
