package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/re-trade/checkout-api/internal/adapter/backend"
	"github.com/re-trade/checkout-api/internal/adapter/observ"
	domain "github.com/re-trade/checkout-api/internal/entity"
	"github.com/re-trade/checkout-api/internal/usecase"
)

// StatusReader answers settled order statuses from the mirror kept by the
// callback consumers.
type StatusReader interface {
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
}

type CheckoutHandler struct {
	checkout *usecase.Checkout
	buyNow   *usecase.BuyNow
	statuses StatusReader
}

func NewCheckoutHandler(checkout *usecase.Checkout, buyNow *usecase.BuyNow, statuses StatusReader) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, buyNow: buyNow, statuses: statuses}
}

type checkoutReq struct {
	AttemptID       string            `json:"attemptId"` // optional idempotency key
	AddressID       string            `json:"addressId"`
	Items           []domain.CartItem `json:"items"`
	PaymentMethodID string            `json:"paymentMethodId"`
}

type checkoutResp struct {
	AttemptID   string `json:"attemptId"`
	OrderID     string `json:"orderId"`
	RedirectURL string `json:"redirectUrl"`
}

// Checkout runs one full attempt. The redirect URL comes back to the caller,
// who performs the actual navigation to the gateway.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	out, err := h.checkout.Execute(callerCtx(c), usecase.CheckoutInput{
		UserID:          c.GetString("user_id"),
		AddressID:       req.AddressID,
		Items:           req.Items,
		PaymentMethodID: req.PaymentMethodID,
		AttemptID:       req.AttemptID,
	})
	if err != nil {
		observ.CheckoutOutcomes.WithLabelValues(outcomeLabel(err)).Inc()
		writeCheckoutError(c, err)
		return
	}

	observ.CheckoutOutcomes.WithLabelValues("completed").Inc()
	c.JSON(http.StatusOK, checkoutResp{
		AttemptID: out.AttemptID, OrderID: out.OrderID, RedirectURL: out.RedirectURL,
	})
}

func (h *CheckoutHandler) RetryPayment(c *gin.Context) {
	out, err := h.checkout.RetryPayment(callerCtx(c), c.Param("id"))
	if err != nil {
		observ.CheckoutOutcomes.WithLabelValues(outcomeLabel(err)).Inc()
		writeCheckoutError(c, err)
		return
	}
	observ.CheckoutOutcomes.WithLabelValues("completed").Inc()
	c.JSON(http.StatusOK, checkoutResp{
		AttemptID: out.AttemptID, OrderID: out.OrderID, RedirectURL: out.RedirectURL,
	})
}

func (h *CheckoutHandler) ForceReset(c *gin.Context) {
	if err := h.checkout.ForceReset(callerCtx(c), c.Param("id")); err != nil {
		writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": string(domain.StateInitial)})
}

func (h *CheckoutHandler) GetAttempt(c *gin.Context) {
	a, err := h.checkout.GetAttempt(callerCtx(c), c.Param("id"))
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	resp := gin.H{
		"attemptId": a.ID,
		"state":     string(a.State),
		"orderId":   a.OrderID,
		"note":      a.FailureNote,
	}
	if h.statuses != nil && a.OrderID != "" {
		if status, ok, err := h.statuses.GetStatus(c.Request.Context(), a.OrderID); err == nil && ok {
			resp["orderStatus"] = status
		}
	}
	c.JSON(http.StatusOK, resp)
}

type buyNowReq struct {
	AddressID       string `json:"addressId"`
	ProductID       string `json:"productId"`
	Quantity        int    `json:"quantity"`
	PaymentMethodID string `json:"paymentMethodId"`
}

func (h *CheckoutHandler) BuyNow(c *gin.Context) {
	var req buyNowReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	out, err := h.buyNow.Execute(callerCtx(c), usecase.BuyNowInput{
		UserID:          c.GetString("user_id"),
		AddressID:       req.AddressID,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": out.OrderID, "redirectUrl": out.RedirectURL})
}

// callerCtx carries the caller's bearer token into backend calls.
func callerCtx(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if tok := c.GetString("bearer_token"); tok != "" {
		ctx = backend.WithToken(ctx, tok)
	}
	return ctx
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, usecase.ErrAddressRequired),
		errors.Is(err, usecase.ErrNoItems),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, usecase.ErrPaymentMethodRequired):
		return "rejected"
	case errors.Is(err, usecase.ErrInterrupted),
		errors.Is(err, usecase.ErrBlankRedirect):
		return "payment_failed"
	default:
		return "order_failed"
	}
}

func writeCheckoutError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, usecase.ErrAddressRequired),
		errors.Is(err, usecase.ErrNoItems),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, usecase.ErrPaymentMethodRequired):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrAttemptNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrNoOrderCaptured),
		errors.Is(err, usecase.ErrDuplicateAttempt),
		errors.Is(err, domain.ErrIllegalTransition):
		status = http.StatusConflict
	case errors.Is(err, usecase.ErrInterrupted):
		status = http.StatusGatewayTimeout
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
