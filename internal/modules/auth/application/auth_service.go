package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"filevault/internal/modules/auth/domain"
	"filevault/internal/modules/auth/infrastructure/jwt"
	"filevault/internal/shared/utils"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService provides authentication operations
type AuthService struct {
	repo   domain.UserRepository
	tokens *jwt.Provider
}

// NewAuthService creates a new auth service
func NewAuthService(repo domain.UserRepository, tokens *jwt.Provider) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// SignUp creates a new member account.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*domain.User, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if !utils.IsValidEmail(req.Email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}

	hashedPass, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hashedPass),
		Name:         req.Name,
		Role:         domain.RoleMember,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignIn authenticates a user and issues a fresh token pair. The refresh
// token hash stored on the user row always supersedes the previous one, so
// at most one refresh token is valid per user.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*jwt.TokenPair, error) {
	if req.Email == "" || req.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials // Don't reveal user existence
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issuePair(ctx, user)
}

// Refresh validates the presented refresh token against the stored hash and
// rotates the pair. Missing hash or a mismatch both report invalid
// credentials.
func (s *AuthService) Refresh(ctx context.Context, userID uuid.UUID, presented string) (*jwt.TokenPair, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.CurrentHashedRefreshToken == nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.CurrentHashedRefreshToken), []byte(digest(presented))); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issuePair(ctx, user)
}

// Revoke clears the stored refresh token hash, invalidating any
// outstanding refresh token.
func (s *AuthService) Revoke(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Update(ctx, userID, domain.UserUpdate{SetRefreshTokenHash: true})
}

// GetUser retrieves a user by ID
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *AuthService) ValidateAccessToken(tokenStr string) (*jwt.AccessClaims, error) {
	return s.tokens.ValidateAccess(tokenStr)
}

// ValidateRefreshToken validates a refresh token and returns its claims.
func (s *AuthService) ValidateRefreshToken(tokenStr string) (*jwt.RefreshClaims, error) {
	return s.tokens.ValidateRefresh(tokenStr)
}

func (s *AuthService) issuePair(ctx context.Context, user *domain.User) (*jwt.TokenPair, error) {
	pair, err := s.tokens.GeneratePair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(digest(pair.RefreshToken)), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashedStr := string(hashed)
	if err := s.repo.Update(ctx, user.ID, domain.UserUpdate{
		RefreshTokenHash:    &hashedStr,
		SetRefreshTokenHash: true,
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// digest pre-hashes tokens before bcrypt, which caps input at 72 bytes.
func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
