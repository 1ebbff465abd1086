package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	settingUsecases "github.com/orris-inc/usdtpay/internal/application/setting/usecases"
	"github.com/orris-inc/usdtpay/internal/infrastructure/auth"
	"github.com/orris-inc/usdtpay/internal/infrastructure/config"
	"github.com/orris-inc/usdtpay/internal/infrastructure/ratelimit"
	"github.com/orris-inc/usdtpay/internal/interfaces/http/handlers"
	adminHandlers "github.com/orris-inc/usdtpay/internal/interfaces/http/handlers/admin"
	"github.com/orris-inc/usdtpay/internal/interfaces/http/middleware"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

const (
	testAdminSecret  = "admin-secret-for-router-tests-0123456789"
	testIngestSecret = "ingest-secret-for-router-tests-0123456789"
	testIssuer       = "usdtpay-test"
)

type stubSettings struct{}

func (stubSettings) List(ctx context.Context) []settingUsecases.SettingView {
	return []settingUsecases.SettingView{{Key: "poll_interval_ms", Value: "15000", Source: "default"}}
}

func (stubSettings) Update(ctx context.Context, values map[string]string) ([]settingUsecases.SettingView, error) {
	return nil, nil
}

type denyingLimiter struct {
	ratelimit.NopRateLimiter
}

func (denyingLimiter) Allow(ctx context.Context, key string, limits ratelimit.Limits) (bool, error) {
	return false, nil
}

func newTestContainer(limiter ratelimit.RateLimiter, withIngestSecret bool) *Container {
	gin.SetMode(gin.TestMode)
	log := logger.NewNopLogger()

	var ingestJWT *auth.JWTService
	if withIngestSecret {
		ingestJWT = auth.NewJWTService(testIngestSecret, testIssuer)
	}

	cfg := &config.Config{}
	cfg.Server.AllowedOrigins = []string{"https://console.example.com"}

	c := &Container{
		engine:         gin.New(),
		cfg:            cfg,
		log:            log,
		authMiddleware: middleware.NewAuthMiddleware(auth.NewJWTService(testAdminSecret, testIssuer), ingestJWT, log),
		ingestLimiter:  middleware.NewRateLimiter(limiter, ingestRateLimitScope, ratelimit.Limits{PerMinute: 1}, log),
		hdlrs: &allHandlers{
			orderHandler:        handlers.NewOrderHandler(nil, nil, log),
			paymentHandler:      handlers.NewPaymentHandler(nil, nil, log),
			adminOrderHandler:   adminHandlers.NewOrderHandler(nil, log),
			adminSettingHandler: adminHandlers.NewSettingHandler(stubSettings{}, log),
		},
	}
	c.SetupRoutes()
	return c
}

func serve(c *Container, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.Engine().ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	c := newTestContainer(ratelimit.NopRateLimiter{}, true)

	w := serve(c, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_AdminRequiresAdminToken(t *testing.T) {
	c := newTestContainer(ratelimit.NopRateLimiter{}, true)

	w := serve(c, http.MethodGet, "/admin/settings", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ingestToken, err := auth.NewJWTService(testIngestSecret, testIssuer).Generate(auth.IngestSubject, auth.RoleIngest, time.Minute)
	require.NoError(t, err)
	w = serve(c, http.MethodGet, "/admin/settings", "", ingestToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	adminToken, err := auth.NewJWTService(testAdminSecret, testIssuer).Generate("ops", auth.RoleAdmin, time.Minute)
	require.NoError(t, err)
	w = serve(c, http.MethodGet, "/admin/settings", "", adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "poll_interval_ms")
}

func TestRouter_IngestRequiresTokenWhenSecretSet(t *testing.T) {
	c := newTestContainer(ratelimit.NopRateLimiter{}, true)

	w := serve(c, http.MethodPost, "/payments/ingest", `{}`, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_IngestRateLimited(t *testing.T) {
	c := newTestContainer(denyingLimiter{}, true)

	w := serve(c, http.MethodPost, "/payments/ingest", `{}`, "")

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	c := newTestContainer(ratelimit.NopRateLimiter{}, false)

	w := serve(c, http.MethodGet, "/nope", "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	c := newTestContainer(ratelimit.NopRateLimiter{}, true)

	req := httptest.NewRequest(http.MethodOptions, "/admin/orders", nil)
	req.Header.Set("Origin", "https://console.example.com")
	w := httptest.NewRecorder()
	c.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://console.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/admin/orders", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	c.Engine().ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
