package backend

import (
	"context"
	"net/http"

	"github.com/re-trade/checkout-api/internal/usecase"
)

type SellerClient struct {
	c *Client
}

func NewSellerClient(c *Client) *SellerClient { return &SellerClient{c: c} }

type registerProfileContent struct {
	ID string `json:"id"`
}

func (s *SellerClient) RegisterProfile(ctx context.Context, p usecase.RegisterProfileRequest) (string, error) {
	var content registerProfileContent
	if err := s.c.doJSON(ctx, http.MethodPost, "/api/v1/sellers", p, &content); err != nil {
		return "", err
	}
	return content.ID, nil
}

// Rollback deactivates a just-created profile. The only compensating action
// in the system; callers treat failures as report-only.
func (s *SellerClient) Rollback(ctx context.Context, sellerID string) error {
	return s.c.doJSON(ctx, http.MethodDelete, "/api/v1/sellers/"+sellerID+"/registration", nil, nil)
}

func (s *SellerClient) VerifyIdentity(ctx context.Context, front, back []byte) error {
	return s.c.doMultipart(ctx, "/api/v1/sellers/identity-verification", nil, map[string]filePart{
		"frontSideImage": {name: "front.jpg", data: front},
		"backSideImage":  {name: "back.jpg", data: back},
	}, nil)
}

var _ usecase.SellerService = (*SellerClient)(nil)
