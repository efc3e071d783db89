// Package httpjson talks to vecsearchd over HTTP/JSON.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/transport/wire"
	"github.com/kailas-cloud/vecsearch/internal/version"
)

const defaultHTTPTimeout = 60 * time.Second

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client is a transport backed by the vecsearchd HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	ownsClient bool
}

// New creates a Client. A nil HTTPClient gets a private one that Close
// releases.
func New(cfg Config) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: cfg.HTTPClient,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
		c.ownsClient = true
	}
	return c
}

// Close drops idle connections of a private http.Client.
func (c *Client) Close() error {
	if c.ownsClient {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}

func tablePath(name string, rest ...string) string {
	return "/tables/" + url.PathEscape(name) + strings.Join(rest, "")
}

// do sends body as JSON and decodes a 2xx answer into result. Any other
// answer becomes a *domain.StatusError.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return domain.NewStatus(domain.StatusIllegalArgument, "marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return domain.NewStatus(domain.StatusIllegalArgument, "create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("User-Agent", version.UserAgent())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return domain.NewStatus(domain.StatusConnectFailed, "%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return domain.NewStatus(domain.StatusUnexpected, "decode %s %s response: %v", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) *domain.StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var e wire.Error
	if err := json.Unmarshal(raw, &e); err == nil && (e.Code != domain.StatusSuccess || e.Message != "") {
		if e.Code == domain.StatusSuccess {
			e.Code = domain.StatusUnexpected
		}
		return e.Err()
	}
	code := domain.StatusUnexpected
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = domain.StatusPermissionDenied
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		code = domain.StatusConnectFailed
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = resp.Status
	}
	return domain.NewStatus(code, "http %d: %s", resp.StatusCode, msg)
}

// Ping checks GET /health.
func (c *Client) Ping(ctx context.Context) error {
	var st wire.Status
	if err := c.do(ctx, http.MethodGet, "/health", nil, &st); err != nil {
		var se *domain.StatusError
		if errors.As(err, &se) && se.Code != domain.StatusPermissionDenied {
			return domain.NewStatus(domain.StatusConnectFailed, "health check: %s", se.Message)
		}
		return err
	}
	return nil
}

// ServerVersion returns the server build version.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	var v wire.Version
	if err := c.do(ctx, http.MethodGet, "/version", nil, &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

// ServerStatus returns the server status string.
func (c *Client) ServerStatus(ctx context.Context) (string, error) {
	var st wire.Status
	if err := c.do(ctx, http.MethodGet, "/status", nil, &st); err != nil {
		return "", err
	}
	return st.Status, nil
}
