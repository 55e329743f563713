package queue

import (
	"context"
	"encoding/base64"

	"github.com/re-trade/checkout-api/internal/adapter/observ"
	"github.com/re-trade/checkout-api/internal/logging"
	"github.com/re-trade/checkout-api/internal/usecase"
)

type Verifier interface {
	Verify(payload, sig []byte) error
}

// PaymentCallbackHandler consumes gateway callbacks from payment.callback.q.
// The signature covers the raw payload; an unverifiable message is dropped,
// not requeued, since retrying cannot make a forged signature valid.
type PaymentCallbackHandler struct {
	settle   *usecase.SettleCallback
	verifier Verifier
}

func NewPaymentCallbackHandler(settle *usecase.SettleCallback, verifier Verifier) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{settle: settle, verifier: verifier}
}

// HandleCallback is meant to be wired through queue.JSONHandler[usecase.PaymentCallbackMsg].
func (h *PaymentCallbackHandler) HandleCallback(ctx context.Context, msg usecase.PaymentCallbackMsg) error {
	log := logging.New("payment-callback")

	sig, err := base64.StdEncoding.DecodeString(msg.Signature)
	if err != nil {
		observ.CallbackResults.WithLabelValues("bad_encoding").Inc()
		log.Error("callback signature not base64", "order_id", msg.OrderID)
		return nil // poison; do not requeue
	}
	if err := h.verifier.Verify([]byte(msg.Payload), sig); err != nil {
		observ.CallbackResults.WithLabelValues("bad_signature").Inc()
		log.Error("callback signature rejected", "order_id", msg.OrderID)
		return nil // forged or corrupted; do not requeue
	}

	if err := h.settle.Settle(ctx, msg.OrderID, msg.Status); err != nil {
		return err
	}
	observ.CallbackResults.WithLabelValues("settled").Inc()
	return nil
}
