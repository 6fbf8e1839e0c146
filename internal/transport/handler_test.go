package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"product-catalog/internal/config"
	"product-catalog/internal/middleware"
	"product-catalog/internal/repository"
	"product-catalog/internal/repository/memory"
	"product-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type testAPI struct {
	router http.Handler
	repos  *repository.Repositories
	users  service.UserService
}

func newTestAPI(t *testing.T, openWrites bool) *testAPI {
	t.Helper()

	logger := zap.NewNop()
	repos := memory.NewRepositories()
	users := service.NewUserService(repos.Users, repos.RefreshTokens, config.JWTConfig{
		Secret:        testSecret,
		AccessExpiry:  5 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})

	router := chi.NewRouter()
	router.Use(chimiddleware.StripSlashes)

	optionalAuth := middleware.OptionalAuthMiddleware(testSecret, logger)
	writeGuard := middleware.ReadOnlyOrAuthenticated(openWrites, logger)

	NewUserHandler(users, logger).RegisterRoutes(router, middleware.AuthMiddleware(testSecret, logger))
	NewCategoryHandler(service.NewCategoryService(repos.Categories), logger).
		RegisterRoutes(router, optionalAuth, writeGuard)
	NewProductHandler(service.NewProductService(repos.Products, repos.Categories, 10), logger).
		RegisterRoutes(router, optionalAuth, writeGuard)
	NewDocsHandler(logger).RegisterRoutes(router)

	return &testAPI{router: router, repos: repos, users: users}
}

// do sends body as JSON, or verbatim when it is a string
func (a *testAPI) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// login registers username and returns an access token, a refresh token and the user id
func (a *testAPI) login(t *testing.T, username string) (string, string, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	_, err := a.users.Register(ctx, username, username+"@example.com", "password123", "", "")
	require.NoError(t, err)

	access, refresh, user, err := a.users.Login(ctx, username, "password123")
	require.NoError(t, err)
	return access, refresh, user.ID
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			ValidationErrors []middleware.ValidationError `json:"validation_errors"`
		} `json:"details"`
	} `json:"error"`
}

// responseFieldErrors returns the field errors of a 400 response keyed by field
func responseFieldErrors(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	require.Equal(t, http.StatusBadRequest, w.Code, "body: %s", w.Body.String())

	env := decodeBody[errorEnvelope](t, w)
	out := make(map[string]string)
	for _, fe := range env.Error.Details.ValidationErrors {
		out[fe.Field] = fe.Message
	}
	return out
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[errorEnvelope](t, w).Error.Message
}
