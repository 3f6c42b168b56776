package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"filevault/internal/gateway/middleware"
	auth_http "filevault/internal/modules/auth/interfaces/http"
	"filevault/internal/modules/auth/infrastructure/jwt"
	files_http "filevault/internal/modules/files/interfaces/http"
	user_http "filevault/internal/modules/user/interfaces/http"
)

type stubValidator struct{ p *jwt.Provider }

func (v stubValidator) ValidateAccessToken(tokenStr string) (*jwt.AccessClaims, error) {
	return v.p.ValidateAccess(tokenStr)
}

func testMux() *http.ServeMux {
	provider := jwt.NewProvider("secret", time.Hour, "refresh", time.Hour)
	return SetupRoutes(RouterConfig{
		AuthHandler:    auth_http.NewAuthHandler(nil),
		AuthMiddleware: middleware.NewAuthMiddleware(stubValidator{provider}),
		FileHandler:    files_http.NewFileHandler(nil),
		WebhookHandler: files_http.NewWebhookHandler(nil, "token"),
		UserHandler:    user_http.NewUserHandler(nil),
	})
}

func TestRoutes_Health(t *testing.T) {
	mux := testMux()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRoutes_Metrics(t *testing.T) {
	mux := testMux()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_ProtectedRoutesRejectAnonymous(t *testing.T) {
	mux := testMux()
	for _, target := range []string{"/files", "/files/all", "/users/profile"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestRoutes_WebhookRejectsBadToken(t *testing.T) {
	mux := testMux()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/storage", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_MethodMismatch(t *testing.T) {
	mux := testMux()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/signup", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
