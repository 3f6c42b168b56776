package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"filevault/internal/modules/auth/infrastructure/jwt"
	"filevault/internal/shared/utils"
)

type contextKey string

const (
	ContextKeyUserId contextKey = "user_id"
	ContextKeyRole   contextKey = "role"
)

// TokenValidator validates access tokens.
type TokenValidator interface {
	ValidateAccessToken(tokenStr string) (*jwt.AccessClaims, error)
}

type AuthMiddleWare struct {
	validator TokenValidator
}

// NewAuthMiddleware creates the middleware around an access token validator.
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleWare {
	return &AuthMiddleWare{validator: validator}
}

// RequireAuth enforces a valid Bearer access token and injects the actor's
// id and role into the request context for downstream handlers.
func (m *AuthMiddleWare) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := ""
		authHeader := r.Header.Get("Authorization")

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenStr = parts[1]
			}
		}

		if tokenStr == "" {
			utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("missing or invalid authorization"))
			return
		}

		claims, err := m.validator.ValidateAccessToken(tokenStr)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("invalid or expired token"))
			return
		}

		// Inject Identity & Role into Context
		ctx := context.WithValue(r.Context(), ContextKeyUserId, claims.UserID)
		ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a route to the ADMIN role on top of RequireAuth.
func (m *AuthMiddleWare) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(ContextKeyRole).(string)
		if role != "ADMIN" {
			utils.WriteError(w, http.StatusForbidden, "FORBIDDEN_RESOURCE", errors.New("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	}))
}
