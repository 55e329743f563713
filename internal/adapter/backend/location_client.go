package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/re-trade/checkout-api/internal/usecase"
)

type LocationClient struct {
	c *Client
}

func NewLocationClient(c *Client) *LocationClient { return &LocationClient{c: c} }

type divisionContent struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (l *LocationClient) ResolveProvince(ctx context.Context, code string) (string, error) {
	return l.resolve(ctx, fmt.Sprintf("/api/v1/provinces/%s", code))
}

func (l *LocationClient) ResolveDistrict(ctx context.Context, provinceCode, code string) (string, error) {
	return l.resolve(ctx, fmt.Sprintf("/api/v1/provinces/%s/districts/%s", provinceCode, code))
}

func (l *LocationClient) ResolveWard(ctx context.Context, districtCode, code string) (string, error) {
	return l.resolve(ctx, fmt.Sprintf("/api/v1/districts/%s/wards/%s", districtCode, code))
}

func (l *LocationClient) resolve(ctx context.Context, path string) (string, error) {
	var content divisionContent
	if err := l.c.doJSON(ctx, http.MethodGet, path, nil, &content); err != nil {
		return "", err
	}
	if content.Name == "" {
		return "", fmt.Errorf("division at %s has no name", path)
	}
	return content.Name, nil
}

var _ usecase.LocationService = (*LocationClient)(nil)
