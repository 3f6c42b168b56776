package application

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"filevault/internal/modules/auth/domain"
	"filevault/internal/modules/auth/infrastructure/cache"
	"filevault/internal/shared/utils"
)

// Enqueuer publishes jobs for async processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload interface{}) error
}

// UserDeletedEvent is published when an account is removed so downstream
// consumers can clean up owned resources.
type UserDeletedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// UpdateRequest carries the optional profile fields to change.
type UpdateRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
}

// UserService provides profile reads behind a cache and profile mutation
// with invalidate-before-write semantics.
type UserService struct {
	repo       domain.UserRepository
	cache      domain.UserCache
	userEvents Enqueuer
}

// NewUserService creates a new user service
func NewUserService(repo domain.UserRepository, cache domain.UserCache, userEvents Enqueuer) *UserService {
	return &UserService{repo: repo, cache: cache, userEvents: userEvents}
}

// FindByID looks the user up cache-first.
func (s *UserService) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := s.cache.Get(ctx, cache.KeyByID(id.String())); ok {
		return user, nil
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, user)
	return user, nil
}

// FindByEmail looks the user up cache-first.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := s.cache.Get(ctx, cache.KeyByEmail(email)); ok {
		return user, nil
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, user)
	return user, nil
}

// Update changes profile fields. The cache entries are dropped before the
// write so a concurrent reader can at worst repopulate from the new row.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*domain.User, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	upd := domain.UserUpdate{Name: req.Name}
	if req.Email != nil {
		if !utils.IsValidEmail(*req.Email) {
			return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
		}
		upd.Email = req.Email
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashedStr := string(hashed)
		upd.PasswordHash = &hashedStr
	}

	s.cache.Invalidate(ctx, current)

	if err := s.repo.Update(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Remove drops the account's cache entries, deletes the row and enqueues
// the deletion event that drives the file cleanup worker. A failed enqueue
// is logged, not fatal; the row is already gone.
func (s *UserService) Remove(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, user)

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	event := UserDeletedEvent{UserID: user.ID.String(), Email: user.Email, Name: user.Name}
	if err := s.userEvents.Enqueue(ctx, event); err != nil {
		log.Printf("failed to enqueue user deletion event for %s: %v", user.ID, err)
	}
	return nil
}
