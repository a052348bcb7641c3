package docapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driven"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
	"github.com/custodia-labs/docverify/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 32 << 20

	// authPathPrefix marks the endpoints that never trigger a session renewal.
	authPathPrefix = "/api/auth/"
)

// Client is the request pipeline for the verification API.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	store       driven.CredentialStore
	refresher   driving.SessionRefresher
	rateLimiter *RateLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimiter replaces the default rate limiter.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(c *Client) {
		c.rateLimiter = rl
	}
}

// WithRefresher sets the session refresher consulted on 401 responses.
// Without one, 401 responses are returned as errors.
func WithRefresher(r driving.SessionRefresher) Option {
	return func(c *Client) {
		c.refresher = r
	}
}

// NewClient creates a pipeline for the API at baseURL.
func NewClient(baseURL string, store driven.CredentialStore, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid API base URL %q", domain.ErrInvalidInput, baseURL)
	}

	c := &Client{
		baseURL:     u,
		http:        &http.Client{Timeout: DefaultTimeout},
		store:       store,
		rateLimiter: NewRateLimiter(DefaultRate, DefaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetRefresher installs the session refresher after construction. The
// refresher's renewer is usually built on this client, so it cannot be
// passed to NewClient. Must be called before the client is shared.
func (c *Client) SetRefresher(r driving.SessionRefresher) {
	c.refresher = r
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Send dispatches a request with the stored access credential. A 401 on a
// non-auth endpoint triggers one session renewal and one replay of the request.
func (c *Client) Send(ctx context.Context, req domain.APIRequest) (*domain.APIResponse, error) {
	token := c.accessToken(ctx)

	resp, err := c.dispatch(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.refresher != nil && !isAuthPath(req.Path) {
		logger.Debug("docapi: %s %s unauthorized, renewing session", req.Method, req.Path)
		fresh, err := c.refresher.RequestRefresh(ctx, token)
		if err != nil {
			return nil, err
		}
		// Replayed at most once; a second 401 is returned as is.
		resp, err = c.dispatch(ctx, req, fresh)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(req, resp)
	}
	return resp, nil
}

// sendAnonymous dispatches a request without credentials or renewal.
func (c *Client) sendAnonymous(ctx context.Context, req domain.APIRequest) (*domain.APIResponse, error) {
	resp, err := c.dispatch(ctx, req, "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(req, resp)
	}
	return resp, nil
}

// dispatch performs a single HTTP exchange.
func (c *Client) dispatch(ctx context.Context, req domain.APIRequest, token string) (*domain.APIResponse, error) {
	target := c.resolve(req)

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrInvalidInput, err)
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if req.Body != nil && req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrTransient, req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %v", domain.ErrTransient, req.Method, req.Path, err)
	}

	resp := &domain.APIResponse{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}
	if httpResp.StatusCode == http.StatusTooManyRequests {
		delay := c.rateLimiter.RecordRateLimit(httpResp)
		logger.Warn("docapi: rate limited on %s, pausing requests for %s", req.Path, delay)
	}
	logger.Debug("docapi: %s %s -> %d", req.Method, req.Path, resp.StatusCode)
	return resp, nil
}

func (c *Client) resolve(req domain.APIRequest) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + req.Path
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return u.String()
}

func (c *Client) apiError(req domain.APIRequest, resp *domain.APIResponse) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(resp.StatusCode, resp.Body),
		URL:        req.Path,
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = time.Until(c.rateLimiter.BlockedUntil())
	}
	return apiErr
}

// accessToken reads the stored access credential. Read errors count as absent.
func (c *Client) accessToken(ctx context.Context) string {
	token, err := c.store.Get(ctx, domain.CredentialAccess)
	if err != nil {
		logger.Debug("docapi: reading access credential: %v", err)
		return ""
	}
	return token
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, authPathPrefix)
}

// doJSON sends a request through the pipeline and decodes a JSON answer into out.
// in is JSON-encoded as the body when non-nil; out may be nil.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	req := domain.APIRequest{Method: method, Path: path}
	if in != nil {
		data, err := jsonBody(in)
		if err != nil {
			return err
		}
		req.Body = data
		req.ContentType = "application/json"
	}

	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func jsonBody(in any) ([]byte, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return data, nil
}

func decode(resp *domain.APIResponse, out any) error {
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
