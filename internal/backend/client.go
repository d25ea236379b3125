// ABOUTME: HTTP client for the tutor backend's avatar and signaling endpoints
// ABOUTME: Carries the bearer credential and decodes the backend's {msg} error bodies

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/avatar-link/internal/auth"
)

// DefaultRequestTimeout bounds each backend round trip.
const DefaultRequestTimeout = 30 * time.Second

// Client talks to the tutor backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenSource
	logger  *slog.Logger
}

// NewClient creates a backend client. A zero timeout falls back to
// DefaultRequestTimeout.
func NewClient(baseURL string, tokens auth.TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  slog.Default().With("component", "backend"),
	}
}

// apiError is the backend's JSON error body.
type apiError struct {
	Msg string `json:"msg"`
}

// newRequest builds a request with the bearer credential attached.
// Missing or expired credentials fail here, before any network I/O.
func (c *Client) newRequest(ctx context.Context, method, path, contentType string, body []byte) (*http.Request, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

// do executes the request and decodes the response body into out (when
// non-nil). Non-2xx statuses are turned into errors carrying the backend's
// msg field when present.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Msg != "" {
			return fmt.Errorf("%s: %s (status %d)", req.URL.Path, apiErr.Msg, resp.StatusCode)
		}
		return fmt.Errorf("%s: unexpected status %d", req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}
	return nil
}
