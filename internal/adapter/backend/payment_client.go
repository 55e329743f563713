package backend

import (
	"context"
	"net/http"

	domain "github.com/re-trade/checkout-api/internal/entity"
	"github.com/re-trade/checkout-api/internal/usecase"
)

type PaymentClient struct {
	c *Client
}

func NewPaymentClient(c *Client) *PaymentClient { return &PaymentClient{c: c} }

func (p *PaymentClient) ListMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	var methods []domain.PaymentMethod
	if err := p.c.doJSON(ctx, http.MethodGet, "/api/v1/payment-methods", nil, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

type initPaymentReq struct {
	PaymentMethodID string `json:"paymentMethodId"`
	PaymentContent  string `json:"paymentContent"`
	OrderID         string `json:"orderId"`
}

type initPaymentContent struct {
	URL string `json:"url"`
}

// InitPayment returns the gateway redirect URL. Blank-url handling is the
// caller's concern; the wire contract only promises a string.
func (p *PaymentClient) InitPayment(ctx context.Context, methodID, content, orderID string) (string, error) {
	var out initPaymentContent
	err := p.c.doJSON(ctx, http.MethodPost, "/api/v1/payments/init", initPaymentReq{
		PaymentMethodID: methodID,
		PaymentContent:  content,
		OrderID:         orderID,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

var _ usecase.PaymentService = (*PaymentClient)(nil)
