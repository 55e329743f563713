package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	domain "github.com/re-trade/checkout-api/internal/entity"
	"github.com/re-trade/checkout-api/internal/usecase"
)

var ErrNotFound = errors.New("not found")

// MySQLAttemptJournal is the durable record of checkout attempts and their
// outcomes, used for support and reconciliation against the order service.
type MySQLAttemptJournal struct{ db *sql.DB }

func NewMySQLAttemptJournal(db *sql.DB) *MySQLAttemptJournal { return &MySQLAttemptJournal{db: db} }

func (r *MySQLAttemptJournal) Record(ctx context.Context, a *domain.CheckoutAttempt) error {
	items, err := json.Marshal(a.Items)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO checkout_attempts (id,user_id,state,address_id,items_json,payment_method_id,order_id,note,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,NOW(),NOW())
ON DUPLICATE KEY UPDATE state=VALUES(state), order_id=VALUES(order_id), note=VALUES(note), updated_at=NOW()
`, a.ID, a.UserID, string(a.State), a.AddressID, items, a.PaymentMethodID, a.OrderID, a.FailureNote)
	return err
}

func (r *MySQLAttemptJournal) UpdateOutcome(ctx context.Context, attemptID, outcome, note string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE checkout_attempts
SET state = ?, note = ?, updated_at = NOW()
WHERE id = ?`,
		outcome, note, attemptID,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateOutcomeIf performs a guarded transition; rows == 0 means the journal
// row was not in fromState (already settled, or unknown id).
func (r *MySQLAttemptJournal) UpdateOutcomeIf(ctx context.Context, attemptID, fromState, toState string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE checkout_attempts
SET state = ?, updated_at = NOW()
WHERE id = ? AND state = ?`,
		toState, attemptID, fromState,
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// SettleByOrderID marks every attempt that captured the given order id. Used
// by the status feed and the payment-callback consumer.
func (r *MySQLAttemptJournal) SettleByOrderID(ctx context.Context, orderID, outcome string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE checkout_attempts
SET state = ?, updated_at = NOW()
WHERE order_id = ?`,
		outcome, orderID,
	)
	return err
}

var _ usecase.AttemptJournal = (*MySQLAttemptJournal)(nil)
