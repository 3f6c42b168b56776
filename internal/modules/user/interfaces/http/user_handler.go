package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"filevault/internal/gateway/middleware"
	"filevault/internal/modules/auth/domain"
	"filevault/internal/modules/user/application"
	"filevault/internal/shared/utils"
)

// UserService defines the interface for user profile operations
type UserService interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, req application.UpdateRequest) (*domain.User, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type UserHandler struct {
	service UserService
}

func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{service: service}
}

// GetProfile handles GET /users/profile.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("not authenticated"))
		return
	}

	user, err := h.service.FindByID(r.Context(), userID)
	if err != nil {
		writeUserError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PATCH /users/profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("not authenticated"))
		return
	}

	var req application.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}

	user, err := h.service.Update(r.Context(), userID, req)
	if err != nil {
		writeUserError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, user)
}

// DeleteAccount handles DELETE /users/profile.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("not authenticated"))
		return
	}

	if err := h.service.Remove(r.Context(), userID); err != nil {
		writeUserError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account deleted."})
}

func userIDFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(middleware.ContextKeyUserId).(uuid.UUID)
	return userID, ok
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		utils.WriteError(w, http.StatusNotFound, "USER_NOT_FOUND", err)
	case errors.Is(err, domain.ErrUserAlreadyExists):
		utils.WriteError(w, http.StatusConflict, "EMAIL_IN_USE", err)
	case errors.Is(err, domain.ErrInvalidCredentials):
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", err)
	case errors.Is(err, domain.ErrInvalidInput):
		utils.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err)
	default:
		utils.WriteError(w, http.StatusInternalServerError, "INTERNAL", errors.New("internal error"))
	}
}
