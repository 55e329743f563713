package usecase

import (
	"context"
	"fmt"
)

// AttemptSettler finalizes every journal row that captured a given order.
type AttemptSettler interface {
	SettleByOrderID(ctx context.Context, orderID, outcome string) error
}

// StatusCache mirrors settled order statuses for cheap lookups.
type StatusCache interface {
	SetStatus(ctx context.Context, orderID, status string) error
}

// SettleCallback applies a verified gateway verdict to the attempt journal
// and the status cache. Shared by the HTTP and the queue callback paths.
type SettleCallback struct {
	journal AttemptSettler
	cache   StatusCache
}

func NewSettleCallback(journal AttemptSettler, cache StatusCache) *SettleCallback {
	return &SettleCallback{journal: journal, cache: cache}
}

func (uc *SettleCallback) Settle(ctx context.Context, orderID, status string) error {
	outcome := "PAYMENT_FAILED"
	if status == "PAID" {
		outcome = "PAID"
	}
	if err := uc.journal.SettleByOrderID(ctx, orderID, outcome); err != nil {
		return fmt.Errorf("settle attempt: %w", err)
	}
	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, orderID, outcome)
	}
	return nil
}
