// Package notion implements publish.Publisher against the Notion proxy
// backend. The backend holds the real workspace token server-side; this
// client authenticates with a session credential and never sees the
// workspace token itself.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/scribehq/scribe-api/internal/publish"
)

// sessionCookie is the cookie name the backend expects its session
// credential under.
const sessionCookie = "ntkn"

// Client talks to the Notion proxy backend over HTTP.
type Client struct {
	baseURL      string
	sessionToken string
	httpClient   *http.Client
	logger       *slog.Logger
}

// New creates a Client for the given backend base URL.
func New(baseURL, sessionToken string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:      baseURL,
		sessionToken: sessionToken,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger.With("component", "notion_client"),
	}
}

// EnsureAuth probes the backend session. A 401/403 means the consent
// flow has not run or the session expired.
func (c *Client) EnsureAuth(ctx context.Context) (*publish.Workspace, error) {
	var ws publish.Workspace
	if err := c.get(ctx, "/api/notion/me", nil, &ws); err != nil {
		return nil, err
	}
	if !ws.Authed {
		return nil, publish.ErrNotAuthorized
	}
	return &ws, nil
}

// Search lists candidate publish targets.
func (c *Client) Search(ctx context.Context, query string) ([]publish.Target, error) {
	params := url.Values{"type": {"database"}}
	if query != "" {
		params.Set("query", query)
	}

	var result struct {
		Items   []publish.Target `json:"items"`
		HasMore bool             `json:"has_more"`
	}
	if err := c.get(ctx, "/api/notion/search", params, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// Publish creates an article page under the given target.
func (c *Client) Publish(ctx context.Context, req publish.Request) (*publish.Receipt, error) {
	body := struct {
		ParentID string `json:"parentId"`
		Title    string `json:"title"`
		Blocks   string `json:"blocks"`
	}{
		ParentID: req.Target,
		Title:    req.Title,
		Blocks:   req.Blocks,
	}

	var receipt publish.Receipt
	if err := c.post(ctx, "/api/notion/create-article", body, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.sessionToken})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("workspace backend request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return publish.ErrNotAuthorized
	case resp.StatusCode >= 300:
		c.logger.Error("workspace backend returned error",
			"status", resp.StatusCode,
			"path", req.URL.Path)
		return fmt.Errorf("%w: backend status %d", publish.ErrPublishFailed, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}

var _ publish.Publisher = (*Client)(nil)
