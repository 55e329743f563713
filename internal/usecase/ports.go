package usecase

import (
	"context"

	domain "github.com/re-trade/checkout-api/internal/entity"
)

// OrderService is the external order endpoint. CreateOrder returns only the
// new order id; everything else about the order is server-owned.
type OrderService interface {
	CreateOrder(ctx context.Context, items []domain.CartItem, addressID string) (string, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

// PaymentService is the external payment endpoint. InitPayment returns the
// gateway redirect URL, consumed exactly once by the caller.
type PaymentService interface {
	ListMethods(ctx context.Context) ([]domain.PaymentMethod, error)
	InitPayment(ctx context.Context, methodID, content, orderID string) (string, error)
}

// SellerService covers profile creation, its compensating rollback, and
// identity verification.
type SellerService interface {
	RegisterProfile(ctx context.Context, p RegisterProfileRequest) (string, error)
	Rollback(ctx context.Context, sellerID string) error
	VerifyIdentity(ctx context.Context, front, back []byte) error
}

// MediaService uploads a binary and returns its public URL.
type MediaService interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// LocationService resolves administrative-division codes to display names.
type LocationService interface {
	ResolveProvince(ctx context.Context, code string) (string, error)
	ResolveDistrict(ctx context.Context, provinceCode, code string) (string, error)
	ResolveWard(ctx context.Context, districtCode, code string) (string, error)
}

// AttemptStore holds live checkout attempts so retry/reset can find them
// across requests. Implementations are expected to expire entries.
type AttemptStore interface {
	Put(ctx context.Context, a *domain.CheckoutAttempt) error
	Get(ctx context.Context, id string) (*domain.CheckoutAttempt, error)
	Delete(ctx context.Context, id string) error
}

// AttemptJournal is the durable, append-mostly record of attempt outcomes.
type AttemptJournal interface {
	Record(ctx context.Context, a *domain.CheckoutAttempt) error
	UpdateOutcome(ctx context.Context, attemptID, outcome, note string) error
}

// OrderGuard prevents a second order creation for the same attempt. Unlock
// releases a held key when the guarded step never created anything.
type OrderGuard interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Unlock(ctx context.Context, scope, key string) error
}

// EventPublisher fans lifecycle events out to the broker. Best-effort from
// the orchestrator's point of view.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, msg any) error
}

// RegisterProfileRequest is the wire shape of the profile-creation call,
// with address names already resolved and image fields already URLs.
type RegisterProfileRequest struct {
	ShopName      string `json:"shopName"`
	Description   string `json:"description"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	AddressLine   string `json:"addressLine"`
	Province      string `json:"province"`
	District      string `json:"district"`
	Ward          string `json:"ward"`
	TaxCode       string `json:"taxCode"`
	AvatarURL     string `json:"avatarUrl"`
	BackgroundURL string `json:"backgroundUrl"`
}
