// Package client provides the authenticated HTTP client for the ingestion
// backend. All network I/O in the SDK flows through this package.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sourcehub/connectkit/pkg/logging"
	"github.com/sourcehub/connectkit/pkg/protocol"
)

// TokenFetcher is the external collaborator that issues access tokens.
// Token issuance and refresh policy live entirely on the caller's side.
type TokenFetcher func(ctx context.Context) (accessToken string, err error)

// APIError is a non-200 response from the backend with its detail message.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// AsAPIError checks if an error is an APIError and returns it.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// ErrNoToken is returned when a request is attempted before any token could
// be fetched.
var ErrNoToken = errors.New("no access token available")

// Client talks to the ingestion backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	fetcher    TokenFetcher
	listLimit  *rate.Limiter

	mu    sync.RWMutex
	token string
}

// Config holds client configuration.
type Config struct {
	// BaseURL overrides the environment-derived API origin when set.
	BaseURL      string
	Environment  protocol.Environment
	Timeout      time.Duration
	TokenFetcher TokenFetcher
	// ListRequestsPerSecond throttles listing calls triggered by fast
	// scrolling. 0 disables throttling.
	ListRequestsPerSecond float64
}

// New creates a new client. The token fetcher is required.
func New(cfg Config) (*Client, error) {
	if cfg.TokenFetcher == nil {
		return nil, errors.New("token fetcher is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		baseURL, ok = protocol.BaseURL[cfg.Environment]
		if !ok {
			return nil, fmt.Errorf("unknown environment %q", cfg.Environment)
		}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.ListRequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ListRequestsPerSecond), 1)
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		fetcher:   cfg.TokenFetcher,
		listLimit: limiter,
	}, nil
}

// SetToken replaces the held access token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// EnsureToken fetches an initial access token if none is held yet.
func (c *Client) EnsureToken(ctx context.Context) error {
	if c.currentToken() != "" {
		return nil
	}
	return c.refreshToken(ctx)
}

func (c *Client) refreshToken(ctx context.Context) error {
	token, err := c.fetcher(ctx)
	if err != nil {
		return fmt.Errorf("fetch access token: %w", err)
	}
	if token == "" {
		return ErrNoToken
	}
	c.SetToken(token)
	return nil
}

// do executes one authenticated request. On a 401 it invokes the token
// fetcher exactly once and replays the request exactly once more; a second
// 401 is surfaced to the caller as an APIError. The body is held as bytes so
// the replay sends identical content.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	if err := c.EnsureToken(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.send(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		logging.Debug("access token rejected, refreshing once",
			logging.String("path", path))
		tokenRefreshesTotal.Inc()
		if err := c.refreshToken(ctx); err != nil {
			observeRequest(path, http.StatusUnauthorized, start)
			return nil, err
		}

		resp, err = c.send(ctx, method, path, body, contentType)
		if err != nil {
			return nil, err
		}
	}

	observeRequest(path, resp.StatusCode, start)
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Token "+c.currentToken())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// doJSON executes a request and decodes a JSON success body into out.
// Non-200 responses become an *APIError carrying the server's detail.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out any) error {
	var payload []byte
	if reqBody != nil {
		var err error
		payload, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.do(ctx, method, path, payload, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse response from %s: %w", path, err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var errResp protocol.ErrorResponse
	data, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(data, &errResp) != nil || errResp.Detail == "" {
		return &APIError{Status: resp.StatusCode}
	}
	return &APIError{Status: resp.StatusCode, Detail: errResp.Detail}
}
