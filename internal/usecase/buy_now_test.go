package usecase

import (
	"context"
	"errors"
	"testing"

	domain "github.com/re-trade/checkout-api/internal/entity"
)

func TestBuyNowHappyPath(t *testing.T) {
	orders := &stubOrders{orderID: "ord-77"}
	payments := &stubPayments{url: "https://pay.example/ord-77"}
	uc := NewBuyNow(orders, payments)

	out, err := uc.Execute(context.Background(), BuyNowInput{
		UserID:          "u1",
		AddressID:       "addr-1",
		ProductID:       "p1",
		Quantity:        2,
		PaymentMethodID: "m1",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.OrderID != "ord-77" {
		t.Fatalf("order id = %q, want ord-77", out.OrderID)
	}
	if out.RedirectURL != "https://pay.example/ord-77" {
		t.Fatalf("redirect = %q", out.RedirectURL)
	}
	if payments.lastID != "ord-77" {
		t.Fatalf("payment initiated for %q, want ord-77", payments.lastID)
	}
}

func TestBuyNowValidationBlocksNetwork(t *testing.T) {
	cases := []struct {
		name string
		in   BuyNowInput
		want error
	}{
		{"no address", BuyNowInput{UserID: "u1", ProductID: "p1", Quantity: 1, PaymentMethodID: "m1"}, ErrAddressRequired},
		{"zero quantity", BuyNowInput{UserID: "u1", AddressID: "a1", ProductID: "p1", PaymentMethodID: "m1"}, domain.ErrInvalidQuantity},
		{"no method", BuyNowInput{UserID: "u1", AddressID: "a1", ProductID: "p1", Quantity: 1}, ErrPaymentMethodRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := &stubOrders{orderID: "ord-1"}
			payments := &stubPayments{url: "https://pay.example/x"}
			_, err := NewBuyNow(orders, payments).Execute(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if orders.calls != 0 || payments.calls != 0 {
				t.Fatalf("backend called despite invalid input (orders=%d payments=%d)", orders.calls, payments.calls)
			}
		})
	}
}

func TestBuyNowOrderFailure(t *testing.T) {
	boom := errors.New("stock exhausted")
	orders := &stubOrders{err: boom}
	payments := &stubPayments{url: "https://pay.example/x"}

	_, err := NewBuyNow(orders, payments).Execute(context.Background(), BuyNowInput{
		UserID: "u1", AddressID: "a1", ProductID: "p1", Quantity: 1, PaymentMethodID: "m1",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if payments.calls != 0 {
		t.Fatalf("payment initiated after failed order")
	}
}

func TestBuyNowBlankRedirect(t *testing.T) {
	orders := &stubOrders{orderID: "ord-9"}
	payments := &stubPayments{url: "   "}

	_, err := NewBuyNow(orders, payments).Execute(context.Background(), BuyNowInput{
		UserID: "u1", AddressID: "a1", ProductID: "p1", Quantity: 1, PaymentMethodID: "m1",
	})
	if !errors.Is(err, ErrBlankRedirect) {
		t.Fatalf("err = %v, want ErrBlankRedirect", err)
	}
}
