package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/modules/auth/infrastructure/jwt"
)

func newTestValidator() (*jwt.Provider, string, uuid.UUID) {
	provider := jwt.NewProvider("access-secret", time.Hour, "refresh-secret", time.Hour)
	userID := uuid.New()
	pair, _ := provider.GeneratePair(userID, "a@a.com", "MEMBER")
	return provider, pair.AccessToken, userID
}

type providerValidator struct{ p *jwt.Provider }

func (v providerValidator) ValidateAccessToken(tokenStr string) (*jwt.AccessClaims, error) {
	return v.p.ValidateAccess(tokenStr)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	provider, _, _ := newTestValidator()
	mw := NewAuthMiddleware(providerValidator{provider})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	rec := httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	provider, _, _ := newTestValidator()
	mw := NewAuthMiddleware(providerValidator{provider})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_InjectsIdentity(t *testing.T) {
	provider, token, userID := newTestValidator()
	mw := NewAuthMiddleware(providerValidator{provider})

	var gotID uuid.UUID
	var gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = r.Context().Value(ContextKeyUserId).(uuid.UUID)
		gotRole, _ = r.Context().Value(ContextKeyRole).(string)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, "MEMBER", gotRole)
}

func TestRequireAdmin_RejectsMember(t *testing.T) {
	provider, token, _ := newTestValidator()
	mw := NewAuthMiddleware(providerValidator{provider})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/files/all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.RequireAdmin(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN_RESOURCE")
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	provider := jwt.NewProvider("access-secret", time.Hour, "refresh-secret", time.Hour)
	pair, err := provider.GeneratePair(uuid.New(), "admin@a.com", "ADMIN")
	require.NoError(t, err)
	mw := NewAuthMiddleware(providerValidator{provider})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/files/all", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	mw.RequireAdmin(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
