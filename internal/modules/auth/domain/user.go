package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleMember UserRole = "MEMBER"
	RoleAdmin  UserRole = "ADMIN"
)

// User represents an account identity
type User struct {
	ID                        uuid.UUID `json:"id" db:"id"`
	Email                     string    `json:"email" db:"email"`
	PasswordHash              string    `json:"-" db:"password_hash"`
	Name                      string    `json:"name" db:"name"`
	Role                      UserRole  `json:"role" db:"role"`
	CurrentHashedRefreshToken *string   `json:"-" db:"current_hashed_refresh_token"`
	CreatedAt                 time.Time `json:"created_at" db:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at" db:"updated_at"`
}

// UserUpdate carries the mutable fields of a user row. Nil means "leave
// unchanged"; RefreshTokenHash uses SetRefreshTokenHash to distinguish
// "clear" from "unchanged".
type UserUpdate struct {
	Email               *string
	PasswordHash        *string
	Name                *string
	RefreshTokenHash    *string
	SetRefreshTokenHash bool
}

// UserRepository defines the contract for user data access
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Update(ctx context.Context, id uuid.UUID, upd UserUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserCache is a read-through cache in front of the repository. Invalidate
// must complete before the underlying write is issued so a stale entry can
// never outlive an acknowledged mutation.
type UserCache interface {
	Get(ctx context.Context, key string) (*User, bool)
	Set(ctx context.Context, user *User)
	Invalidate(ctx context.Context, user *User)
}
