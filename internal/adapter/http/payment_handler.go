package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/re-trade/checkout-api/internal/logging"
	"github.com/re-trade/checkout-api/internal/usecase"
)

type PaymentHandler struct {
	payments usecase.PaymentService
	callback *usecase.SettleCallback
}

func NewPaymentHandler(payments usecase.PaymentService, callback *usecase.SettleCallback) *PaymentHandler {
	return &PaymentHandler{payments: payments, callback: callback}
}

// ListMethods passes the payment service's method list through unchanged.
func (h *PaymentHandler) ListMethods(c *gin.Context) {
	methods, err := h.payments.ListMethods(callerCtx(c))
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"methods": methods})
}

type callbackReq struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// Callback is the HTTP variant of the gateway callback; the signature has
// already been checked by the CallbackVerify middleware.
func (h *PaymentHandler) Callback(c *gin.Context) {
	var req callbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	if err := h.callback.Settle(c.Request.Context(), req.OrderID, req.Status); err != nil {
		logging.From(c).Error("callback settle failed", "order_id", req.OrderID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settle_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
