package usecase

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/re-trade/checkout-api/internal/entity"
	"github.com/re-trade/checkout-api/internal/logging"
)

var (
	ErrUnresolvedAddress      = errors.New("unresolved address code")
	ErrIdentityImagesRequired = errors.New("identity images required")
	ErrVerificationFailed     = errors.New("identity verification failed")
	ErrRollbackFailed         = errors.New("profile rollback failed")
)

type RegisterOutput struct {
	SellerID string
}

// Registration runs the seller-registration saga: validate, resolve address,
// upload images, create profile, verify identity. Profile creation and
// verification are not atomic on the backend, so a failed verification is
// compensated by rolling the just-created profile back.
type Registration struct {
	sellers  SellerService
	media    MediaService
	location LocationService
	events   EventPublisher
}

func NewRegistration(sellers SellerService, media MediaService, location LocationService, events EventPublisher) *Registration {
	return &Registration{sellers: sellers, media: media, location: location, events: events}
}

func (uc *Registration) Execute(ctx context.Context, f domain.RegistrationForm) (RegisterOutput, error) {
	log := logging.FromCtx(ctx)

	// 1. per-step field validation; collected errors block submission
	if err := ValidateSteps(f); err != nil {
		return RegisterOutput{}, err
	}

	// 2. resolve administrative codes; fails closed on any unresolved code
	province, err := uc.location.ResolveProvince(ctx, f.ProvinceCode)
	if err != nil {
		return RegisterOutput{}, fmt.Errorf("%w: province %s: %v", ErrUnresolvedAddress, f.ProvinceCode, err)
	}
	district, err := uc.location.ResolveDistrict(ctx, f.ProvinceCode, f.DistrictCode)
	if err != nil {
		return RegisterOutput{}, fmt.Errorf("%w: district %s: %v", ErrUnresolvedAddress, f.DistrictCode, err)
	}
	ward, err := uc.location.ResolveWard(ctx, f.DistrictCode, f.WardCode)
	if err != nil {
		return RegisterOutput{}, fmt.Errorf("%w: ward %s: %v", ErrUnresolvedAddress, f.WardCode, err)
	}

	// 3. upload images still held as bytes; skip those already URLs
	avatarURL, err := uc.resolveImage(ctx, f.Avatar)
	if err != nil {
		return RegisterOutput{}, fmt.Errorf("upload avatar: %w", err)
	}
	backgroundURL, err := uc.resolveImage(ctx, f.Background)
	if err != nil {
		return RegisterOutput{}, fmt.Errorf("upload background: %w", err)
	}

	// 4. create the profile; failure here aborts with nothing to undo
	sellerID, err := uc.sellers.RegisterProfile(ctx, RegisterProfileRequest{
		ShopName:      f.ShopName,
		Description:   f.Description,
		Email:         f.Email,
		Phone:         f.Phone,
		AddressLine:   f.AddressLine,
		Province:      province,
		District:      district,
		Ward:          ward,
		TaxCode:       f.TaxCode,
		AvatarURL:     avatarURL,
		BackgroundURL: backgroundURL,
	})
	if err != nil {
		return RegisterOutput{}, fmt.Errorf("register profile: %w", err)
	}

	// 5. identity verification; a created profile without a verified
	// identity must not survive
	if len(f.IdentityFront) == 0 || len(f.IdentityBack) == 0 {
		return RegisterOutput{}, uc.compensate(ctx, sellerID, f.ShopName, ErrIdentityImagesRequired)
	}
	if err := uc.sellers.VerifyIdentity(ctx, f.IdentityFront, f.IdentityBack); err != nil {
		log.Warn("identity verification failed, rolling profile back",
			"seller_id", sellerID, "error", err)
		return RegisterOutput{}, uc.compensate(ctx, sellerID, f.ShopName, fmt.Errorf("%w: %v", ErrVerificationFailed, err))
	}

	_ = uc.events.Publish(ctx, RKSellerRegistered, SellerEventMsg{SellerID: sellerID, ShopName: f.ShopName})
	return RegisterOutput{SellerID: sellerID}, nil
}

// compensate rolls the created profile back exactly once, best-effort. A
// rollback failure is reported alongside the cause, never retried.
func (uc *Registration) compensate(ctx context.Context, sellerID, shopName string, cause error) error {
	log := logging.FromCtx(ctx)
	if err := uc.sellers.Rollback(ctx, sellerID); err != nil {
		log.Error("profile rollback failed", "seller_id", sellerID, "error", err)
		return fmt.Errorf("%w (seller %s): %w", ErrRollbackFailed, sellerID, cause)
	}
	_ = uc.events.Publish(ctx, RKSellerRolledBack, SellerEventMsg{
		SellerID: sellerID, ShopName: shopName, Reason: cause.Error(),
	})
	return cause
}

func (uc *Registration) resolveImage(ctx context.Context, img domain.ImageField) (string, error) {
	if img.Uploaded() || img.Empty() {
		return img.URL, nil
	}
	return uc.media.Upload(ctx, img.Name, img.Data)
}
