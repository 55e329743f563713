package usecase

// Routing keys on the checkout.events exchange.
const (
	RKCheckoutCompleted     = "checkout.completed"
	RKCheckoutPaymentFailed = "checkout.payment_failed"
	RKSellerRegistered      = "seller.registered"
	RKSellerRolledBack      = "seller.rolled_back"
)

type CheckoutEventMsg struct {
	AttemptID   string `json:"attemptId"`
	UserID      string `json:"userId"`
	OrderID     string `json:"orderId,omitempty"`
	FailureNote string `json:"failureNote,omitempty"`
}

type SellerEventMsg struct {
	SellerID string `json:"sellerId"`
	ShopName string `json:"shopName"`
	Reason   string `json:"reason,omitempty"`
}

// PaymentCallbackMsg arrives from the payment gateway on payment.callback.q.
// Signature is RSA-SHA256 over the raw payload, base64 encoded, verified
// before the message is acted on.
type PaymentCallbackMsg struct {
	OrderID   string `json:"orderId"`
	Status    string `json:"status"` // PAID | FAILED
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// OrderStatusChangedMsg is emitted by the order service on Kafka whenever an
// order settles.
type OrderStatusChangedMsg struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
	Status  string `json:"status"` // e.g. "PAID"
}
