package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illustrationsapp/illustrations-server/internal/auth"
	"github.com/illustrationsapp/illustrations-server/internal/domain"
	"github.com/illustrationsapp/illustrations-server/internal/logger"
	"github.com/illustrationsapp/illustrations-server/internal/ratelimit"
	"github.com/illustrationsapp/illustrations-server/internal/search"
	"github.com/illustrationsapp/illustrations-server/internal/service"
	"github.com/illustrationsapp/illustrations-server/internal/store/sqlite"
	"github.com/illustrationsapp/illustrations-server/internal/validation"
)

// testKeyHex is a fixed 32-byte PASETO key (64 hex chars).
const testKeyHex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// testDimension keeps test embeddings short.
const testDimension = 3

// testEnvelope mirrors Envelope with a typed payload for decoding responses.
type testEnvelope[T any] struct {
	V       int             `json:"v"`
	Success bool            `json:"success"`
	Data    T               `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

type testServer struct {
	*Server
	api    humatest.TestAPI
	store  *sqlite.Store
	tokens *auth.TokenService
}

type testServerOption func(*testServerConfig)

type testServerConfig struct {
	limiter *ratelimit.KeyedRateLimiter
}

func withLimiter(l *ratelimit.KeyedRateLimiter) testServerOption {
	return func(c *testServerConfig) { c.limiter = l }
}

// setupTestServer creates a test server backed by a temporary SQLite store.
func setupTestServer(t *testing.T, opts ...testServerOption) *testServer {
	t.Helper()

	var cfg testServerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tokens, err := auth.NewTokenService(testKeyHex, 15*time.Minute)
	require.NoError(t, err)

	log := logger.Discard()
	tags := service.NewTagService(st, log.Logger)
	illustrations := service.NewIllustrationService(st, tags, nil, validation.New(), log.Logger)
	services := &Services{
		Search:       service.NewSearchService(st, search.NewFuser(search.DefaultFuserConfig()), testDimension, log.Logger),
		Bulk:         service.NewBulkService(st, log.Logger),
		Illustration: illustrations,
		Tag:          tags,
		Place:        service.NewPlaceService(st, illustrations, validation.New(), log.Logger),
	}

	srv := NewServer(st, services, tokens, cfg.limiter, Options{Version: "test"}, log)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.API()),
		store:  st,
		tokens: tokens,
	}
}

// authHeader returns a bearer header for ownerID.
func (ts *testServer) authHeader(t *testing.T, ownerID int64) string {
	t.Helper()
	token, err := ts.tokens.GenerateAccessToken(ownerID)
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

// createIllustration creates an illustration through the service layer.
func (ts *testServer) createIllustration(t *testing.T, ownerID int64, title, content string, tags ...string) *domain.Illustration {
	t.Helper()
	il, err := ts.services.Illustration.Create(context.Background(), ownerID, service.CreateIllustrationRequest{
		Title:   title,
		Content: content,
		Tags:    tags,
	})
	require.NoError(t, err)
	return il
}

func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), "body: %s", resp.Body.String())
	return env
}

func TestServer_RequiresAuthentication(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		header []any
	}{
		{name: "missing header"},
		{name: "wrong scheme", header: []any{"Authorization: Basic abc"}},
		{name: "garbage token", header: []any{"Authorization: Bearer v4.local.garbage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/tags", tt.header...)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)

			env := decodeEnvelope[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, "UNAUTHORIZED", env.Code)
		})
	}
}

func TestServer_TokenFromOtherKeyRejected(t *testing.T) {
	ts := setupTestServer(t)

	other, err := auth.NewTokenService(strings.Repeat("f", 64), time.Minute)
	require.NoError(t, err)
	token, err := other.GenerateAccessToken(1)
	require.NoError(t, err)

	resp := ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.api.Get("/health")

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "illustrations_http_requests_total")
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RateLimit(t *testing.T) {
	limiter := ratelimit.New(0.001, 2, time.Minute)
	t.Cleanup(limiter.Stop)
	ts := setupTestServer(t, withLimiter(limiter))
	auth1 := ts.authHeader(t, 1)

	for i := range 2 {
		resp := ts.api.Get("/api/v1/tags", auth1)
		require.Equal(t, http.StatusOK, resp.Code, "request %d", i)
	}

	resp := ts.api.Get("/api/v1/tags", auth1)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	env := decodeEnvelope[any](t, resp)
	assert.Equal(t, codeRateLimited, env.Code)

	// Limits are per owner.
	resp = ts.api.Get("/api/v1/tags", ts.authHeader(t, 2))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestServer_UnknownBodyFieldIsValidationError(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/tags", ts.authHeader(t, 1), map[string]any{"name": "Fire", "colour": "red"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	env := decodeEnvelope[any](t, resp)
	assert.Equal(t, "VALIDATION", env.Code)
	assert.NotEmpty(t, env.Details, "body: %s", resp.Body.String())
}
