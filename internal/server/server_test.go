package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"product-catalog/internal/config"
	"product-catalog/internal/repository/memory"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeDatabase struct {
	health map[string]string
}

func (f *fakeDatabase) DB() *sql.DB                { return nil }
func (f *fakeDatabase) Health() map[string]string { return f.health }
func (f *fakeDatabase) Close() error              { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{Port: "0", Env: "development"},
		Database:   config.DatabaseConfig{Driver: config.DriverMemory},
		JWT:        config.JWTConfig{Secret: "secret", AccessExpiry: time.Minute, RefreshExpiry: time.Hour},
		Pagination: config.PaginationConfig{PageSize: 10},
	}
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	router := NewRouter(testConfig(), zap.NewNop(), memory.NewRepositories(), nil, nil)

	w := get(t, router, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthReportsDatabase(t *testing.T) {
	up := &fakeDatabase{health: map[string]string{"status": "up"}}
	w := get(t, NewRouter(testConfig(), zap.NewNop(), memory.NewRepositories(), up, nil), "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":{"status":"up"}}`, w.Body.String())

	down := &fakeDatabase{health: map[string]string{"status": "down", "error": "db down"}}
	w = get(t, NewRouter(testConfig(), zap.NewNop(), memory.NewRepositories(), down, nil), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestRoutesAcceptOptionalTrailingSlash(t *testing.T) {
	router := NewRouter(testConfig(), zap.NewNop(), memory.NewRepositories(), nil, nil)

	for _, path := range []string{"/api/products", "/api/products/", "/api/categories/", "/swagger.json"} {
		assert.Equal(t, http.StatusOK, get(t, router, path).Code, path)
	}
	assert.Equal(t, http.StatusUnauthorized, get(t, router, "/api/users/me/").Code)
}

func TestInvalidPageIsNotFound(t *testing.T) {
	router := NewRouter(testConfig(), zap.NewNop(), memory.NewRepositories(), nil, nil)

	w := get(t, router, "/api/products/?page=9")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid page.")
}

func TestRateLimitedRouter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerWindow: 2, Window: time.Minute}
	router := NewRouter(cfg, zap.NewNop(), memory.NewRepositories(), nil, client)

	assert.Equal(t, http.StatusOK, get(t, router, "/api/products/").Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/api/products/").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, router, "/api/products/").Code)

	// Health and docs are not limited
	assert.Equal(t, http.StatusOK, get(t, router, "/health").Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(get(t, router, "/health").Body.Bytes(), &body))
	assert.Equal(t, "up", body["redis"])
}

func TestRateLimitedRouterAuthenticatesOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerWindow: 10, Window: time.Minute}
	core, logs := observer.New(zap.DebugLevel)
	router := NewRouter(cfg, zap.New(core), memory.NewRepositories(), nil, client)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    "user",
		"exp":     time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(cfg.JWT.Secret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/categories/", strings.NewReader(`{"name":"Tools"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("User authenticated").Len())
}

func TestNewServerTimeouts(t *testing.T) {
	srv := NewServer(testConfig(), zap.NewNop(), memory.NewRepositories(), nil, nil)

	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, srv.WriteTimeout)
	assert.Equal(t, time.Minute, srv.IdleTimeout)
	assert.NoError(t, srv.Close())
}
