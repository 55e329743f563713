package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckoutOutcomes counts finished checkout attempts by terminal result:
	// completed | payment_failed | order_failed | rejected.
	CheckoutOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_attempts_total",
			Help: "Checkout attempts by outcome",
		},
		[]string{"outcome"},
	)

	RegistrationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seller_registrations_total",
			Help: "Seller registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Rollbacks counts compensating profile deletions, split by whether the
	// rollback call itself succeeded.
	Rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seller_profile_rollbacks_total",
			Help: "Compensating seller-profile rollbacks",
		},
		[]string{"result"},
	)

	CallbackResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Payment gateway callbacks by verdict",
		},
		[]string{"verdict"},
	)
)
