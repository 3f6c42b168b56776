package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"filevault/internal/modules/auth/domain"
	"filevault/internal/modules/auth/infrastructure/jwt"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, id uuid.UUID, upd domain.UserUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestService(repo domain.UserRepository) *AuthService {
	tokens := jwt.NewProvider("access-secret", 15*time.Minute, "refresh-secret", 24*time.Hour)
	return NewAuthService(repo, tokens)
}

func TestSignUp_Success(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil).Once()

	user, err := svc.SignUp(ctx, SignUpRequest{Email: "test@example.com", Password: "password123", Name: "Test"})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, domain.RoleMember, user.Role)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "password123", user.PasswordHash)
	repo.AssertExpectations(t)
}

func TestSignUp_InvalidInput(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpRequest{Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorContains(t, err, "email is required")

	_, err = svc.SignUp(ctx, SignUpRequest{Email: "not-an-email", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorContains(t, err, "invalid email format")

	_, err = svc.SignUp(ctx, SignUpRequest{Email: "a@a.com", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorContains(t, err, "password must be at least 8 characters")

	repo.AssertNotCalled(t, "Create")
}

func TestSignUp_EmailConflict(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(domain.ErrUserAlreadyExists).Once()

	_, err := svc.SignUp(ctx, SignUpRequest{Email: "taken@a.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func signInUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           uuid.New(),
		Email:        "test@example.com",
		PasswordHash: string(hashed),
		Role:         domain.RoleMember,
	}
}

func TestSignIn_Success(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	user := signInUser(t, "password123")

	repo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	repo.On("Update", ctx, user.ID, mock.MatchedBy(func(upd domain.UserUpdate) bool {
		return upd.SetRefreshTokenHash && upd.RefreshTokenHash != nil
	})).Return(nil).Once()

	pair, err := svc.SignIn(ctx, SignInRequest{Email: user.Email, Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	repo.AssertExpectations(t)
}

func TestSignIn_WrongPassword(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	user := signInUser(t, "password123")

	repo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()

	_, err := svc.SignIn(ctx, SignInRequest{Email: user.Email, Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	repo.AssertNotCalled(t, "Update")
}

func TestSignIn_UnknownEmailLooksLikeBadPassword(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "nobody@a.com").Return(nil, domain.ErrUserNotFound).Once()

	_, err := svc.SignIn(ctx, SignInRequest{Email: "nobody@a.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRefresh_RotatesPair(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	user := signInUser(t, "password123")

	// Obtain a real refresh token and store its hash on the user.
	var issued string
	repo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	repo.On("Update", ctx, user.ID, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		upd := args.Get(2).(domain.UserUpdate)
		user.CurrentHashedRefreshToken = upd.RefreshTokenHash
	})
	pair, err := svc.SignIn(ctx, SignInRequest{Email: user.Email, Password: "password123"})
	require.NoError(t, err)
	issued = pair.RefreshToken

	repo.On("GetByID", ctx, user.ID).Return(user, nil).Once()
	next, err := svc.Refresh(ctx, user.ID, issued)
	require.NoError(t, err)
	assert.NotEmpty(t, next.RefreshToken)
}

func TestRefresh_RejectsMismatch(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	user := signInUser(t, "password123")

	sum := sha256.Sum256([]byte("some-other-token"))
	hashed, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(sum[:])), bcrypt.MinCost)
	require.NoError(t, err)
	hashedStr := string(hashed)
	user.CurrentHashedRefreshToken = &hashedStr

	repo.On("GetByID", ctx, user.ID).Return(user, nil).Once()
	_, err = svc.Refresh(ctx, user.ID, "presented-token")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRefresh_RejectsWhenNoStoredHash(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	user := signInUser(t, "password123")
	user.CurrentHashedRefreshToken = nil

	repo.On("GetByID", ctx, user.ID).Return(user, nil).Once()
	_, err := svc.Refresh(ctx, user.ID, "anything")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRevoke_ClearsStoredHash(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("Update", ctx, userID, mock.MatchedBy(func(upd domain.UserUpdate) bool {
		return upd.SetRefreshTokenHash && upd.RefreshTokenHash == nil
	})).Return(nil).Once()

	require.NoError(t, svc.Revoke(ctx, userID))
	repo.AssertExpectations(t)
}
