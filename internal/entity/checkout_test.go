package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNext_HappyPath(t *testing.T) {
	s := StateInitial
	for _, ev := range []Event{EventBegin, EventOrderCreated, EventDelayElapsed, EventRedirectReady} {
		next, err := Next(s, ev)
		if err != nil {
			t.Fatalf("transition %s on %s: %v", ev, s, err)
		}
		s = next
	}
	if s != StateCompleted {
		t.Fatalf("expected COMPLETED, got %s", s)
	}
	if !Terminal(s) {
		t.Fatalf("COMPLETED must be terminal")
	}
}

func TestNext_IllegalTransitions(t *testing.T) {
	cases := []struct {
		from State
		ev   Event
	}{
		{StateInitial, EventOrderCreated},
		{StateInitial, EventRetry},
		{StateCreating, EventRedirectReady},
		{StateProcessing, EventBegin},
		{StateRedirecting, EventRetry},
		{StatePaymentFailed, EventOrderCreated},
		{StateCompleted, EventReset},
	}
	for _, tc := range cases {
		if _, err := Next(tc.from, tc.ev); !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("%s on %s: expected ErrIllegalTransition, got %v", tc.ev, tc.from, err)
		}
	}
}

func TestNext_FailureAndRecovery(t *testing.T) {
	// order failure returns to initial
	s, err := Next(StateCreating, EventOrderError)
	if err != nil || s != StateInitial {
		t.Fatalf("order error: got %s, %v", s, err)
	}
	// payment failure is recoverable via retry
	s, _ = Next(StateRedirecting, EventPaymentError)
	if s != StatePaymentFailed {
		t.Fatalf("expected PAYMENT_FAILED, got %s", s)
	}
	s, _ = Next(s, EventRetry)
	if s != StateRedirecting {
		t.Fatalf("retry: expected REDIRECTING, got %s", s)
	}
	// watchdog interruption during processing
	s, _ = Next(StateProcessing, EventInterrupted)
	if s != StatePaymentFailed {
		t.Fatalf("interrupt: expected PAYMENT_FAILED, got %s", s)
	}
}

func TestApply_ResetClearsCapturedOrder(t *testing.T) {
	a := &CheckoutAttempt{
		ID:          "a1",
		State:       StatePaymentFailed,
		OrderID:     "o123",
		RedirectURL: "https://pay.example/x",
		FailureNote: "gateway rejected",
	}
	if err := a.Apply(EventReset, time.Now()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if a.State != StateInitial {
		t.Fatalf("expected INITIAL, got %s", a.State)
	}
	if a.OrderID != "" || a.RedirectURL != "" || a.FailureNote != "" {
		t.Fatalf("reset must clear order id, url and note: %+v", a)
	}
}

func TestApply_IllegalLeavesAttemptUntouched(t *testing.T) {
	a := &CheckoutAttempt{ID: "a1", State: StateInitial}
	stamp := a.UpdatedAt
	if err := a.Apply(EventRetry, time.Now()); err == nil {
		t.Fatal("expected error")
	}
	if a.State != StateInitial || !a.UpdatedAt.Equal(stamp) {
		t.Fatalf("attempt mutated on illegal transition: %+v", a)
	}
}
