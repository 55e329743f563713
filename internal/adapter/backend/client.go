// Package backend holds the HTTP clients for the external platform
// services. All of them speak the shared {success, message, content}
// envelope and are treated as opaque collaborators.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

type tokenKey struct{}

// WithToken stores the caller's bearer token in ctx; every backend call
// forwards it unchanged.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey{}).(string); ok {
		return t
	}
	return ""
}

// APIError is a backend rejection: either a non-2xx status or an envelope
// with success=false. The backend's own message is preserved for the user.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend rejected request (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend rejected request (%d)", e.Status)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Content json.RawMessage `json:"content"`
}

// Client is the shared transport under the per-service clients. The
// http.Client carries no Timeout: a caller-supplied ctx deadline is the
// authoritative bound, and callTimeout only covers calls without one.
type Client struct {
	hc          *http.Client
	baseURL     string
	callTimeout time.Duration
}

func NewClient(baseURL string, callTimeout time.Duration) *Client {
	if callTimeout <= 0 {
		callTimeout = 8 * time.Second
	}
	return &Client{
		hc:          &http.Client{},
		baseURL:     baseURL,
		callTimeout: callTimeout,
	}
}

// doJSON issues a JSON request and decodes the envelope content into out
// (out may be nil when nothing is expected back).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// doMultipart issues a multipart/form-data request with the given file
// parts and optional scalar fields.
func (c *Client) doMultipart(ctx context.Context, path string, fields map[string]string, files map[string]filePart, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	for part, f := range files {
		fw, err := w.CreateFormFile(part, f.name)
		if err != nil {
			return err
		}
		if _, err := fw.Write(f.data); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, out)
}

type filePart struct {
	name string
	data []byte
}

func (c *Client) send(req *http.Request, out any) error {
	if _, ok := req.Context().Deadline(); !ok {
		ctx, cancel := context.WithTimeout(req.Context(), c.callTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}
	if tok := tokenFrom(req.Context()); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("decode envelope: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Content) > 0 {
		if err := json.Unmarshal(env.Content, out); err != nil {
			return fmt.Errorf("decode content: %w", err)
		}
	}
	return nil
}
