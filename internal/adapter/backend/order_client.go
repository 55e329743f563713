package backend

import (
	"context"
	"net/http"

	domain "github.com/re-trade/checkout-api/internal/entity"
	"github.com/re-trade/checkout-api/internal/usecase"
)

type OrderClient struct {
	c *Client
}

func NewOrderClient(c *Client) *OrderClient { return &OrderClient{c: c} }

type createOrderReq struct {
	Items     []domain.CartItem `json:"items"`
	AddressID string            `json:"addressId"`
}

type createOrderContent struct {
	OrderID string `json:"orderId"`
}

func (o *OrderClient) CreateOrder(ctx context.Context, items []domain.CartItem, addressID string) (string, error) {
	var content createOrderContent
	err := o.c.doJSON(ctx, http.MethodPost, "/api/v1/orders", createOrderReq{
		Items:     items,
		AddressID: addressID,
	}, &content)
	if err != nil {
		return "", err
	}
	return content.OrderID, nil
}

type orderContent struct {
	OrderID       string            `json:"orderId"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"paymentStatus"`
	Items         []domain.CartItem `json:"items"`
	Destination   domain.Address    `json:"destination"`
	TotalCents    int64             `json:"totalCents"`
	Currency      string            `json:"currency"`
}

func (o *OrderClient) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var content orderContent
	if err := o.c.doJSON(ctx, http.MethodGet, "/api/v1/orders/"+orderID, nil, &content); err != nil {
		return nil, err
	}
	return &domain.Order{
		ID:            content.OrderID,
		Status:        domain.OrderStatus(content.Status),
		PaymentStatus: content.PaymentStatus,
		Items:         content.Items,
		Destination:   content.Destination,
		Total:         domain.Money{Cents: content.TotalCents, Currency: content.Currency},
	}, nil
}

var _ usecase.OrderService = (*OrderClient)(nil)
