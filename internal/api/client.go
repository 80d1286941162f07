package api

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

	"golang.org/x/time/rate"

	"maybe/pkg/apierror"
	"maybe/pkg/logging"
)

// DefaultTimeout is the per-request timeout when Config.HTTPClient is nil.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// TokenSource yields an access token that is valid for at least the next
// request. *session.Manager satisfies it.
type TokenSource interface {
	EnsureFreshToken(ctx context.Context) (string, error)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. https://app.maybefinance.com/api/v1.
	BaseURL string

	Tokens TokenSource

	HTTPClient *http.Client

	// RateLimit caps outbound requests per second. Zero means unlimited.
	RateLimit float64

	UserAgent string
}

// Client dispatches requests to the API, attaching the bearer token.
type Client struct {
	baseURL    *url.URL
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// NewClient creates a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api: base URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: invalid base URL: %w", err)
	}
	if cfg.Tokens == nil {
		return nil, errors.New("api: token source is required")
	}

	c := &Client{
		baseURL:    base,
		tokens:     cfg.Tokens,
		httpClient: cfg.HTTPClient,
		userAgent:  cfg.UserAgent,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

// Call dispatches req once and returns the response with its body already
// read. When requiresAuth is set a fresh access token is obtained first;
// without one the request is not sent. The returned response is not
// classified: callers inspect the status themselves.
func (c *Client) Call(ctx context.Context, req *http.Request, requiresAuth bool) (*http.Response, []byte, error) {
	if requiresAuth {
		token, err := c.tokens.EnsureFreshToken(ctx)
		if err != nil {
			return nil, nil, err
		}
		if token == "" {
			return nil, nil, apierror.NotAuthenticated()
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, apierror.NetworkError(err)
		}
	}

	logging.Debug("API", "%s %s", req.Method, req.URL.Path)
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, nil, apierror.NetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, apierror.NetworkError(fmt.Errorf("failed to read response: %w", err))
	}
	return resp, body, nil
}

// Do sends a JSON request to path (relative to the base URL) and decodes a
// 2xx response into out, which may be nil. Other statuses are returned as
// classified *apierror.Error values.
func (c *Client) Do(ctx context.Context, method, path string, body any, requiresAuth bool, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, respBody, err := c.Call(ctx, req, requiresAuth)
	if err != nil {
		return err
	}
	if apiErr := apierror.Classify(resp.StatusCode, respBody); apiErr != nil {
		logging.Debug("API", "%s %s failed: %v", method, req.URL.Path, apiErr)
		return apiErr
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apierror.Wrap(apierror.KindInvalidResponse, err)
	}
	return nil
}

// resolve joins path (which may carry a query) onto the base URL.
func (c *Client) resolve(path string) string {
	return c.baseURL.String() + "/" + strings.TrimPrefix(path, "/")
}
