package domain

import (
	"context"
	"time"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*User, error)
	Create(ctx context.Context, user *User) error
	SetActive(ctx context.Context, id string, active bool) error
	UpdateRole(ctx context.Context, id string, roleID int) error
	GetAll(ctx context.Context, offset, limit int) ([]User, error)
	GetRoleByID(ctx context.Context, id int) (*Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	CreateRole(ctx context.Context, role *Role) error
}

type SessionRepository interface {
	Store(ctx context.Context, session *RefreshSession) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*RefreshSession, error)
	// Rotate swaps the token hash and restarts the TTL in a single
	// compare-and-swap statement keyed on the old hash. It reports whether
	// a row was actually rotated.
	Rotate(ctx context.Context, oldHash, newHash string, rotatedAt time.Time, expiresIn int64) (bool, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error)
	DeleteAllByUserID(ctx context.Context, userID string) error
	// CountByUserID counts only sessions still live at the given instant.
	// Expired rows awaiting lazy purge must not be counted.
	CountByUserID(ctx context.Context, userID string, now time.Time) (int, error)
	ListByUserID(ctx context.Context, userID string) ([]RefreshSession, error)
}
