// Package api is the HTTP client of the base service REST interface.
//
// Every call takes a context and returns explicit errors. Non-2xx
// responses surface as *types.StatusError, which matches
// types.ErrTransport (and types.ErrNotFound for 404s). Calls never touch
// any client-side view; callers refresh or rely on the live echo.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

const (
	defaultHTTPTimeout        = 30 * time.Second
	defaultHTTPConnectTimeout = 5 * time.Second
	defaultHTTPTLSTimeout     = 5 * time.Second

	// RequestIDHeader carries a per-request UUIDv7 for log correlation.
	RequestIDHeader = "X-Request-ID"
)

func defaultHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: defaultHTTPConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHTTPTLSTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultHTTPTimeout,
	}
}

// Client talks to one base service instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient returns a client for the REST API rooted at baseURL,
// e.g. http://localhost:8080/api/v1.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: defaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one request. body, when non-nil, is sent as JSON; result,
// when non-nil, receives the decoded JSON response.
func do[R any](ctx context.Context, c *Client, method, path string, query url.Values, body any, result *R) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := newRequestID()
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", types.ErrTransport, method, u, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", types.ErrTransport, method, u, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		glog.V(1).Infof("api %s %s [%s] -> %d", method, u, requestID, resp.StatusCode)
		return &types.StatusError{
			Method:     method,
			URL:        u,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}
	glog.V(2).Infof("api %s %s [%s] -> %d", method, u, requestID, resp.StatusCode)

	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, u, err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} bodies and falls back to the raw
// trimmed body.
func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func escape(id string) string {
	return url.PathEscape(id)
}
