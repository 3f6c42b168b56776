package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"filevault/internal/gateway/middleware"
	"filevault/internal/modules/auth/domain"
	"filevault/internal/modules/user/application"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserService) Update(ctx context.Context, id uuid.UUID, req application.UpdateRequest) (*domain.User, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserService) Remove(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func authedRequest(method, target string, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserId, userID)
	return req.WithContext(ctx)
}

func TestGetProfile_ReturnsUser(t *testing.T) {
	svc := new(mockUserService)
	h := NewUserHandler(svc)
	userID := uuid.New()

	svc.On("FindByID", mock.Anything, userID).
		Return(&domain.User{ID: userID, Email: "a@a.com"}, nil).Once()

	rec := httptest.NewRecorder()
	h.GetProfile(rec, authedRequest(http.MethodGet, "/users/profile", "", userID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a@a.com")
}

func TestGetProfile_NotFound(t *testing.T) {
	svc := new(mockUserService)
	h := NewUserHandler(svc)
	userID := uuid.New()

	svc.On("FindByID", mock.Anything, userID).Return(nil, domain.ErrUserNotFound).Once()

	rec := httptest.NewRecorder()
	h.GetProfile(rec, authedRequest(http.MethodGet, "/users/profile", "", userID))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "USER_NOT_FOUND")
}

func TestGetProfile_MissingIdentity(t *testing.T) {
	h := NewUserHandler(new(mockUserService))

	rec := httptest.NewRecorder()
	h.GetProfile(rec, httptest.NewRequest(http.MethodGet, "/users/profile", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateProfile_ValidationFailed(t *testing.T) {
	svc := new(mockUserService)
	h := NewUserHandler(svc)
	userID := uuid.New()

	svc.On("Update", mock.Anything, userID, mock.Anything).
		Return(nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)).Once()

	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, authedRequest(http.MethodPatch, "/users/profile", `{"email":"nope"}`, userID))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestUpdateProfile_InfrastructureFailureIsOpaque500(t *testing.T) {
	svc := new(mockUserService)
	h := NewUserHandler(svc)
	userID := uuid.New()

	svc.On("Update", mock.Anything, userID, mock.Anything).
		Return(nil, errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")).Once()

	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, authedRequest(http.MethodPatch, "/users/profile", `{"name":"A"}`, userID))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL")
	assert.NotContains(t, rec.Body.String(), "dial tcp")
}

func TestUpdateProfile_EmailConflict(t *testing.T) {
	svc := new(mockUserService)
	h := NewUserHandler(svc)
	userID := uuid.New()

	svc.On("Update", mock.Anything, userID, mock.Anything).
		Return(nil, domain.ErrUserAlreadyExists).Once()

	rec := httptest.NewRecorder()
	h.UpdateProfile(rec, authedRequest(http.MethodPatch, "/users/profile", `{"email":"taken@a.com"}`, userID))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMAIL_IN_USE")
}

func TestDeleteAccount_Succeeds(t *testing.T) {
	svc := new(mockUserService)
	h := NewUserHandler(svc)
	userID := uuid.New()

	svc.On("Remove", mock.Anything, userID).Return(nil).Once()

	rec := httptest.NewRecorder()
	h.DeleteAccount(rec, authedRequest(http.MethodDelete, "/users/profile", "", userID))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestDeleteAccount_InfrastructureFailureIsOpaque500(t *testing.T) {
	svc := new(mockUserService)
	h := NewUserHandler(svc)
	userID := uuid.New()

	svc.On("Remove", mock.Anything, userID).
		Return(errors.New("pq: connection reset by peer")).Once()

	rec := httptest.NewRecorder()
	h.DeleteAccount(rec, authedRequest(http.MethodDelete, "/users/profile", "", userID))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
}
