package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/larapush/larapush-go/pkg/domain"
)

// DefaultTimeout bounds every panel and tracking request.
const DefaultTimeout = 5 * time.Second

// Client is the LaraPush panel API client.
type Client struct {
	panelURL   string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a new panel client. panelURL is used verbatim as the prefix of
// endpoint paths, so it is expected to end with "/".
func New(panelURL string, opts ...Option) *Client {
	c := &Client{
		panelURL: panelURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PanelURL returns the panel base URL the client was built with.
func (c *Client) PanelURL() string {
	return c.panelURL
}

// RegisterToken posts the device token and its tags to the panel.
func (c *Client) RegisterToken(ctx context.Context, sub domain.Subscription) error {
	if sub.Tags == nil {
		sub.Tags = []string{}
	}
	if err := c.doRequest(ctx, http.MethodPost, c.panelURL+"api/token", sub); err != nil {
		return fmt.Errorf("client.RegisterToken: %w", err)
	}
	return nil
}

// Track hits a click-tracking URL. The response body is discarded.
func (c *Client) Track(ctx context.Context, trackingURL string) error {
	if err := c.doRequest(ctx, http.MethodGet, trackingURL, nil); err != nil {
		return fmt.Errorf("client.Track: %w", err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, body any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			if apiErr.Error != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
			}
			if apiErr.Message != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Message}
			}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	// Drain so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck
	return nil
}
