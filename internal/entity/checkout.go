package domain

import (
	"errors"
	"fmt"
	"time"
)

// State of a single checkout attempt. One attempt = one user-initiated
// sequence from item/address confirmation through payment-gateway redirect.
type State string

const (
	StateInitial       State = "INITIAL"
	StateCreating      State = "CREATING"
	StateProcessing    State = "PROCESSING"
	StateRedirecting   State = "REDIRECTING"
	StatePaymentFailed State = "PAYMENT_FAILED"
	StateCompleted     State = "COMPLETED"
)

// Event drives the checkout state machine.
type Event string

const (
	EventBegin         Event = "BEGIN"
	EventOrderCreated  Event = "ORDER_CREATED"
	EventOrderError    Event = "ORDER_ERROR"
	EventDelayElapsed  Event = "DELAY_ELAPSED"
	EventRedirectReady Event = "REDIRECT_READY"
	EventPaymentError  Event = "PAYMENT_ERROR"
	EventInterrupted   Event = "INTERRUPTED"
	EventRetry         Event = "RETRY"
	EventReset         Event = "RESET"
)

var ErrIllegalTransition = errors.New("illegal checkout transition")

// transitions is the single source of truth for legal state changes.
var transitions = map[State]map[Event]State{
	StateInitial: {
		EventBegin: StateCreating,
	},
	StateCreating: {
		EventOrderCreated: StateProcessing,
		EventOrderError:   StateInitial,
	},
	StateProcessing: {
		EventDelayElapsed: StateRedirecting,
		EventPaymentError: StatePaymentFailed,
		EventInterrupted:  StatePaymentFailed,
	},
	StateRedirecting: {
		EventRedirectReady: StateCompleted,
		EventPaymentError:  StatePaymentFailed,
		EventInterrupted:   StatePaymentFailed,
	},
	StatePaymentFailed: {
		EventRetry: StateRedirecting,
		EventReset: StateInitial,
	},
}

// Next returns the state reached by applying ev in s.
func Next(s State, ev Event) (State, error) {
	if to, ok := transitions[s][ev]; ok {
		return to, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, s)
}

// Terminal reports whether no event can leave s.
func Terminal(s State) bool {
	return len(transitions[s]) == 0
}

// CheckoutAttempt is the persisted record of one checkout attempt.
type CheckoutAttempt struct {
	ID              string
	UserID          string
	State           State
	AddressID       string
	Items           []CartItem
	PaymentMethodID string
	OrderID         string // captured after order creation; reused by retry
	RedirectURL     string
	FailureNote     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Apply transitions the attempt and stamps it. The attempt is not mutated
// when the transition is illegal.
func (a *CheckoutAttempt) Apply(ev Event, now time.Time) error {
	next, err := Next(a.State, ev)
	if err != nil {
		return err
	}
	a.State = next
	a.UpdatedAt = now
	if ev == EventReset {
		// reset abandons the created order; see DESIGN.md for the
		// missing compensating cancellation.
		a.OrderID = ""
		a.RedirectURL = ""
		a.FailureNote = ""
	}
	return nil
}
