// Package clients provides the authenticated HTTP client used to call the
// PureCloud platform API.
package clients

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ajitpratap0/tap-purecloud/internal/pipeline"
	"github.com/ajitpratap0/tap-purecloud/pkg/config"
	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
	"github.com/ajitpratap0/tap-purecloud/pkg/metrics"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 2048

// HTTPConfig configures the HTTP client
type HTTPConfig struct {
	// BaseURL prefixes every API path, e.g. https://api.mypurecloud.com
	BaseURL string `json:"base_url"`
	// TokenURL is the client credentials endpoint
	TokenURL     string `json:"token_url"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`

	// Timeouts
	DialTimeout           time.Duration `json:"dial_timeout"`
	TLSHandshakeTimeout   time.Duration `json:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration `json:"response_header_timeout"`
	RequestTimeout        time.Duration `json:"request_timeout"`
	KeepAlive             time.Duration `json:"keep_alive"`

	// Connection settings
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout"`

	// Rate limiting (0 = unlimited)
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`

	UserAgent string `json:"user_agent"`
}

// DefaultHTTPConfig returns default transport settings with no endpoint.
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		DialTimeout:           30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		RequestTimeout:        60 * time.Second,
		KeepAlive:             30 * time.Second,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		RateBurst:             1,
		UserAgent:             "tap-purecloud/1.0",
	}
}

// HTTPConfigFrom derives client settings from the tap configuration.
func HTTPConfigFrom(cfg *config.Config) *HTTPConfig {
	c := DefaultHTTPConfig()
	c.BaseURL = cfg.APIHost()
	c.TokenURL = cfg.LoginHost() + "/oauth/token"
	c.ClientID = cfg.ClientID
	c.ClientSecret = cfg.ClientSecret
	if cfg.Timeouts.Request > 0 {
		c.RequestTimeout = cfg.Timeouts.Request
		c.ResponseHeaderTimeout = cfg.Timeouts.Request
	}
	if cfg.Reliability.IsRateLimited() {
		c.RateLimit = cfg.Reliability.RateLimitPerSec
		c.RateBurst = cfg.Reliability.RateLimitBurst
	}
	return c
}

// HTTPClient performs authenticated API calls. Every call is a single
// attempt; retrying is left to the caller's retry policy.
type HTTPClient struct {
	config      *HTTPConfig
	logger      *zap.Logger
	httpClient  *http.Client
	plainClient *http.Client
	transport   *http.Transport
	tokens      oauth2.TokenSource
	rateLimiter RateLimiter
}

// NewHTTPClient creates a client. No network traffic happens until the
// first call; use Authenticate to fail fast on bad credentials.
func NewHTTPClient(config *HTTPConfig, logger *zap.Logger) (*HTTPClient, error) {
	if config == nil {
		config = DefaultHTTPConfig()
	}
	if config.BaseURL == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "missing API base URL")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &HTTPClient{
		config: config,
		logger: logger.With(zap.String("component", "http_client")),
	}

	client.transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	client.plainClient = &http.Client{
		Transport: client.transport,
		Timeout:   config.RequestTimeout,
	}

	client.tokens = NewTokenSource(client.plainClient, &OAuth2Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     config.TokenURL,
	})
	client.httpClient = &http.Client{
		Transport: &oauth2.Transport{Source: client.tokens, Base: client.transport},
		Timeout:   config.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	if config.RateLimit > 0 {
		client.rateLimiter = NewRateLimiter(config.RateLimit, config.RateBurst)
	}

	return client, nil
}

// Authenticate fetches the first access token.
func (c *HTTPClient) Authenticate(ctx context.Context) error {
	if _, err := c.tokens.Token(); err != nil {
		return authError(err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.logger.Info("authenticated", zap.String("token_url", c.config.TokenURL))
	return nil
}

// Get returns a page call issuing GET path with the request's query.
func (c *HTTPClient) Get(path string) pipeline.PageFunc {
	return func(ctx context.Context, req pipeline.Request) ([]byte, error) {
		return c.Do(ctx, http.MethodGet, path, req.Query, nil)
	}
}

// Post returns a page call issuing POST path with the request's JSON body.
func (c *HTTPClient) Post(path string) pipeline.PageFunc {
	return func(ctx context.Context, req pipeline.Request) ([]byte, error) {
		return c.Do(ctx, http.MethodPost, path, req.Query, req.Body)
	}
}

// Do performs one authenticated call and returns the response body. A 429
// is reported as a rate limit error; other non-2xx statuses as API errors.
func (c *HTTPClient) Do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(c.httpClient, req, path)
}

// Download fetches an absolute URL without credentials. Result URLs handed
// out by the notification service are pre-signed.
func (c *HTTPClient) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to build download request")
	}
	return c.send(c.plainClient, req, req.URL.Path)
}

func (c *HTTPClient) send(hc *http.Client, req *http.Request, path string) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		metrics.HTTPRequests.WithLabelValues(req.Method, "error").Inc()
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var retrieveErr *oauth2.RetrieveError
		if stderrors.As(err, &retrieveErr) {
			return nil, authError(err)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "request failed").
			WithDetail("method", req.Method).
			WithDetail("path", path)
	}
	defer resp.Body.Close()

	metrics.HTTPRequests.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	c.logger.Debug("api call",
		zap.String("method", req.Method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read response body").
			WithDetail("path", path)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, statusError(req.Method, path, resp.StatusCode, data)
}

func statusError(method, path string, code int, body []byte) error {
	errType := errors.ErrorTypeAPI
	switch code {
	case http.StatusTooManyRequests:
		errType = errors.ErrorTypeRateLimit
	case http.StatusUnauthorized, http.StatusForbidden:
		errType = errors.ErrorTypeAuthentication
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return errors.Newf(errType, "%s %s returned %d", method, path, code).
		WithDetail(errors.DetailStatusCode, code).
		WithDetail("body", string(body))
}

func authError(err error) error {
	e := errors.Wrap(err, errors.ErrorTypeAuthentication, "failed to obtain access token")
	var retrieveErr *oauth2.RetrieveError
	if stderrors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		e = e.WithDetail(errors.DetailStatusCode, retrieveErr.Response.StatusCode)
	}
	return e
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
