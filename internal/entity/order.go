package domain

import "errors"

// OrderStatus as reported by the order service.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderFailed    OrderStatus = "FAILED"
	OrderCancelled OrderStatus = "CANCELLED"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

type Money struct {
	Cents    int64
	Currency string
}

// CartItem is one selected product line. It exists only for the lifetime of
// a checkout attempt; the order service owns the authoritative order lines.
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (i CartItem) Validate() error {
	if i.ProductID == "" || i.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Address is owned by the external account system; the checkout flow
// references it by id only.
type Address struct {
	ID           string `json:"id"`
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	AddressLine  string `json:"addressLine"`
	Ward         string `json:"ward"`
	District     string `json:"district"`
	State        string `json:"state"`
	Country      string `json:"country"`
	Defaulted    bool   `json:"defaulted"`
}

type PaymentMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImgURL      string `json:"imgUrl"`
}

// Order is the client-side view of a created order. Only the id is observed
// on creation; the rest comes back on fetch.
type Order struct {
	ID            string
	Status        OrderStatus
	PaymentStatus string
	Items         []CartItem
	Destination   Address
	Total         Money
}
