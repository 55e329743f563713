package backend

import (
	"context"

	"github.com/re-trade/checkout-api/internal/usecase"
)

type MediaClient struct {
	c *Client
}

func NewMediaClient(c *Client) *MediaClient { return &MediaClient{c: c} }

type uploadContent struct {
	URL string `json:"url"`
}

func (m *MediaClient) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var content uploadContent
	err := m.c.doMultipart(ctx, "/api/v1/media/upload", nil, map[string]filePart{
		"file": {name: filename, data: data},
	}, &content)
	if err != nil {
		return "", err
	}
	return content.URL, nil
}

var _ usecase.MediaService = (*MediaClient)(nil)
