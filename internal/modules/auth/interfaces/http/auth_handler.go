package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"filevault/internal/gateway/middleware"
	"filevault/internal/modules/auth/application"
	"filevault/internal/modules/auth/domain"
	"filevault/internal/modules/auth/infrastructure/jwt"
	"filevault/internal/shared/utils"
)

// AuthService defines the interface for auth operations
type AuthService interface {
	SignUp(ctx context.Context, req application.SignUpRequest) (*domain.User, error)
	SignIn(ctx context.Context, req application.SignInRequest) (*jwt.TokenPair, error)
	Refresh(ctx context.Context, userID uuid.UUID, presented string) (*jwt.TokenPair, error)
	Revoke(ctx context.Context, userID uuid.UUID) error
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ValidateRefreshToken(tokenStr string) (*jwt.RefreshClaims, error)
}

type AuthHandler struct {
	service AuthService
}

func NewAuthHandler(service AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req application.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}

	user, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			utils.WriteError(w, http.StatusConflict, "EMAIL_IN_USE", err)
		case errors.Is(err, domain.ErrInvalidInput):
			utils.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err)
		default:
			utils.WriteError(w, http.StatusInternalServerError, "INTERNAL", errors.New("sign up failed"))
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req application.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}

	pair, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", err)
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "INTERNAL", errors.New("sign in failed"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		utils.WriteError(w, http.StatusBadRequest, "INVALID_BODY", errors.New("refreshToken is required"))
		return
	}

	claims, err := h.service.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", domain.ErrInvalidCredentials)
		return
	}

	pair, err := h.service.Refresh(r.Context(), claims.UserID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", err)
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "INTERNAL", errors.New("refresh failed"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextKeyUserId).(uuid.UUID)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("not authenticated"))
		return
	}

	if err := h.service.Revoke(r.Context(), userID); err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		utils.WriteError(w, http.StatusInternalServerError, "INTERNAL", errors.New("logout failed"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextKeyUserId).(uuid.UUID)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("not authenticated"))
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			utils.WriteError(w, http.StatusNotFound, "USER_NOT_FOUND", err)
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "INTERNAL", errors.New("lookup failed"))
		return
	}

	utils.WriteJSON(w, http.StatusOK, user)
}
