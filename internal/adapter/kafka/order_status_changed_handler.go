package kafka

import (
	"context"

	"github.com/re-trade/checkout-api/internal/usecase"
)

// AttemptSettler mirrors the journal's order-keyed settlement.
type AttemptSettler interface {
	SettleByOrderID(ctx context.Context, orderID, outcome string) error
}

type StatusCache interface {
	SetStatus(ctx context.Context, orderID, status string) error
}

// OrderStatusChangedHandler applies settled order statuses from the order
// service to the attempt journal and the status cache.
type OrderStatusChangedHandler struct {
	Journal AttemptSettler
	Cache   StatusCache // optional
}

func NewOrderStatusChangedHandler(journal AttemptSettler, cache StatusCache) *OrderStatusChangedHandler {
	return &OrderStatusChangedHandler{Journal: journal, Cache: cache}
}

func (h *OrderStatusChangedHandler) Handle(ctx context.Context, ev usecase.OrderStatusChangedMsg) error {
	// Map external status -> journal outcome
	var outcome string
	switch ev.Status {
	case "PAID":
		outcome = "PAID"
	case "CANCELLED":
		outcome = "CANCELLED"
	default:
		outcome = "PAYMENT_FAILED"
	}

	if err := h.Journal.SettleByOrderID(ctx, ev.OrderID, outcome); err != nil {
		return err
	}

	// Cache best-effort
	if h.Cache != nil {
		_ = h.Cache.SetStatus(ctx, ev.OrderID, outcome)
	}
	return nil
}
