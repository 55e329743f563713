package usecase

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/re-trade/checkout-api/internal/entity"
)

type BuyNowInput struct {
	UserID          string
	AddressID       string
	ProductID       string
	Quantity        int
	PaymentMethodID string
}

type BuyNowOutput struct {
	OrderID     string
	RedirectURL string
}

// BuyNow is the single-item checkout: same order -> payment sequencing and
// blank-url rule as Checkout, but without the retry state and without the
// watchdog timers. A failure simply returns the caller to an editable state.
type BuyNow struct {
	orders   OrderService
	payments PaymentService
}

func NewBuyNow(orders OrderService, payments PaymentService) *BuyNow {
	return &BuyNow{orders: orders, payments: payments}
}

func (uc *BuyNow) Execute(ctx context.Context, in BuyNowInput) (BuyNowOutput, error) {
	if err := validate(CheckoutInput{
		UserID:          in.UserID,
		AddressID:       in.AddressID,
		Items:           []domain.CartItem{{ProductID: in.ProductID, Quantity: in.Quantity}},
		PaymentMethodID: in.PaymentMethodID,
	}); err != nil {
		return BuyNowOutput{}, err
	}

	orderID, err := uc.orders.CreateOrder(ctx, []domain.CartItem{
		{ProductID: in.ProductID, Quantity: in.Quantity},
	}, in.AddressID)
	if err != nil {
		return BuyNowOutput{}, fmt.Errorf("create order: %w", err)
	}

	url, err := uc.payments.InitPayment(ctx, in.PaymentMethodID, paymentContent(orderID), orderID)
	if err != nil {
		return BuyNowOutput{}, fmt.Errorf("init payment: %w", err)
	}
	if strings.TrimSpace(url) == "" {
		return BuyNowOutput{}, ErrBlankRedirect
	}
	return BuyNowOutput{OrderID: orderID, RedirectURL: url}, nil
}
