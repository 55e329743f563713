package domain

// RegistrationForm carries the shop profile fields and the identity images
// of a seller-registration attempt. It lives for one submission and is
// discarded afterwards, successful or not.
type RegistrationForm struct {
	ShopName      string
	Description   string
	Email         string
	Phone         string
	AddressLine   string
	ProvinceCode  string
	DistrictCode  string
	WardCode      string
	TaxCode       string
	Avatar        ImageField
	Background    ImageField
	IdentityFront []byte
	IdentityBack  []byte
}

// ImageField is either an already-uploaded URL or raw bytes still to be
// uploaded. Exactly one of the two is expected to be set.
type ImageField struct {
	URL  string
	Data []byte
	Name string
}

// Uploaded reports whether the field already holds a URL and needs no upload.
func (f ImageField) Uploaded() bool { return f.URL != "" }

// Empty reports whether the field holds nothing at all.
func (f ImageField) Empty() bool { return f.URL == "" && len(f.Data) == 0 }

// SellerProfile is the backend's view of a created profile; the checkout-api
// only ever needs the id (for rollback).
type SellerProfile struct {
	ID       string
	ShopName string
}
