package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-purecloud/internal/pipeline"
	"github.com/ajitpratap0/tap-purecloud/pkg/config"
	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
	"github.com/ajitpratap0/tap-purecloud/pkg/testutil"
)

type fakeAPI struct {
	server      *httptest.Server
	tokenCalls  atomic.Int32
	tokenStatus int
	handler     http.HandlerFunc
}

func newFakeAPI(t *testing.T, handler http.HandlerFunc) *fakeAPI {
	t.Helper()
	f := &fakeAPI{tokenStatus: http.StatusOK, handler: handler}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		if f.tokenStatus != http.StatusOK {
			w.WriteHeader(f.tokenStatus)
			_, _ = io.WriteString(w, `{"error":"invalid_client"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok-1","token_type":"bearer","expires_in":86400}`)
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.handler(w, r)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) client(t *testing.T, secret string) *HTTPClient {
	t.Helper()
	cfg := DefaultHTTPConfig()
	cfg.BaseURL = f.server.URL
	cfg.TokenURL = f.server.URL + "/oauth/token"
	cfg.ClientID = "client"
	cfg.ClientSecret = secret
	c, err := NewHTTPClient(cfg, testutil.TestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetSendsQueryAndToken(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v2/users", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("pageNumber"))
		assert.Equal(t, "locations", r.URL.Query().Get("expand"))
		_, _ = io.WriteString(w, `{"entities":[]}`)
	})
	c := api.client(t, "secret")
	ctx := context.Background()

	require.NoError(t, c.Authenticate(ctx))
	call := c.Get("/api/v2/users")
	for i := 0; i < 3; i++ {
		body, err := call(ctx, pipeline.Request{Query: url.Values{"pageNumber": {"2"}, "expand": {"locations"}}})
		require.NoError(t, err)
		assert.JSONEq(t, `{"entities":[]}`, string(body))
	}
	assert.Equal(t, int32(1), api.tokenCalls.Load())
}

func TestPostSendsJSONBody(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"pageSize":100,"pageNumber":1}`, string(body))
		_, _ = io.WriteString(w, `{"results":[]}`)
	})
	c := api.client(t, "secret")

	_, err := c.Post("/api/v2/locations/search")(context.Background(), pipeline.Request{Body: []byte(`{"pageSize":100,"pageNumber":1}`)})
	require.NoError(t, err)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantType  errors.ErrorType
		retryable bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantType: errors.ErrorTypeRateLimit, retryable: true},
		{name: "server error", status: http.StatusInternalServerError, wantType: errors.ErrorTypeAPI},
		{name: "bad request", status: http.StatusBadRequest, wantType: errors.ErrorTypeAPI},
		{name: "forbidden", status: http.StatusForbidden, wantType: errors.ErrorTypeAuthentication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"message":"nope"}`)
			})
			c := api.client(t, "secret")

			_, err := c.Do(context.Background(), http.MethodGet, "/api/v2/groups", nil, nil)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.wantType))
			assert.Equal(t, tt.retryable, errors.IsRateLimit(err))
			assert.Equal(t, tt.status, errors.StatusCode(err))
		})
	}
}

func TestAuthenticateFailure(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("API must not be called without a token")
	})
	c := api.client(t, "wrong")

	err := c.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
	assert.Equal(t, http.StatusUnauthorized, errors.StatusCode(err))

	_, err = c.Do(context.Background(), http.MethodGet, "/api/v2/users", nil, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
	assert.False(t, errors.IsRateLimit(err))
}

func TestDownloadWithoutCredentials(t *testing.T) {
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer files.Close()

	api := newFakeAPI(t, nil)
	c := api.client(t, "secret")

	body, err := c.Download(context.Background(), files.URL+"/results/1.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(body))
	assert.Equal(t, int32(0), api.tokenCalls.Load())
}

func TestConnectionError(t *testing.T) {
	api := newFakeAPI(t, nil)
	c := api.client(t, "secret")
	require.NoError(t, c.Authenticate(context.Background()))
	api.server.Close()

	_, err := c.Do(context.Background(), http.MethodGet, "/api/v2/users", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
}

func TestCancelledContext(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	c := api.client(t, "secret")
	require.NoError(t, c.Authenticate(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Do(ctx, http.MethodGet, "/api/v2/users", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPConfigFrom(t *testing.T) {
	cfg := config.NewDefault()
	cfg.Domain = "mypurecloud.ie"
	cfg.ClientID = "id"
	cfg.ClientSecret = "secret"
	cfg.Timeouts.Request = 15 * time.Second
	cfg.Reliability.RateLimitPerSec = 3
	cfg.Reliability.RateLimitBurst = 2

	hc := HTTPConfigFrom(cfg)
	assert.Equal(t, "https://api.mypurecloud.ie", hc.BaseURL)
	assert.Equal(t, "https://login.mypurecloud.ie/oauth/token", hc.TokenURL)
	assert.Equal(t, 15*time.Second, hc.RequestTimeout)
	assert.Equal(t, 3.0, hc.RateLimit)
	assert.Equal(t, 2, hc.RateBurst)

	_, err := NewHTTPClient(DefaultHTTPConfig(), nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 0)
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx))
}
