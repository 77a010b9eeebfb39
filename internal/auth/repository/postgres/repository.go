package postgres

//go:generate mockgen -destination=../../../mocks/mock_user_repository.go -package=mocks github.com/leksBezdar/AsQi-API/internal/auth/domain UserRepository
//go:generate mockgen -destination=../../../mocks/mock_session_repository.go -package=mocks github.com/leksBezdar/AsQi-API/internal/auth/domain SessionRepository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/leksBezdar/AsQi-API/internal/auth/domain"
	apperr "github.com/leksBezdar/AsQi-API/internal/errors"
)

// PgxIface is the slice of pgxpool.Pool the repositories need; pgxmock
// stands in for it in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	db PgxIface
}

func NewUserRepository(db PgxIface) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `u.id, u.email, u.username, u.hashed_password, u.role_id, r.name,
		       u.is_active, u.is_superuser, u.is_verified, u.created_at, u.updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1
		LIMIT 1;
	`, userColumns)

	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.username = $1
		LIMIT 1;
	`, userColumns)

	return r.scanUser(r.db.QueryRow(ctx, query, username))
}

func (r *UserRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.email = $1 OR u.username = $2
		LIMIT 1;
	`, userColumns)

	return r.scanUser(r.db.QueryRow(ctx, query, email, username))
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.HashedPassword,
		&user.RoleID, &user.RoleName, &user.IsActive, &user.IsSuperuser, &user.IsVerified,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, username, hashed_password, role_id,
				   is_active, is_superuser, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, user.ID, user.Email, user.Username, user.HashedPassword, user.RoleID,
		user.IsActive, user.IsSuperuser, user.IsVerified, user.CreatedAt, user.UpdatedAt)
	if isUniqueViolation(err) {
		// A concurrent registration slipped past the existence check.
		return apperr.ErrUserAlreadyExists
	}

	return err
}

// isUniqueViolation reports SQLSTATE 23505 (unique_violation).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET is_active = $1, updated_at = now() WHERE id = $2
	`, active, id)

	return err
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, roleID int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET role_id = $1, updated_at = now() WHERE id = $2
	`, roleID, id)

	return err
}

func (r *UserRepository) GetAll(ctx context.Context, offset, limit int) ([]domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		JOIN roles r ON r.id = u.role_id
		ORDER BY u.created_at
		OFFSET $1 LIMIT $2;
	`, userColumns)

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Username, &user.HashedPassword,
			&user.RoleID, &user.RoleName, &user.IsActive, &user.IsSuperuser, &user.IsVerified,
			&user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *UserRepository) GetRoleByID(ctx context.Context, id int) (*domain.Role, error) {
	return r.scanRole(r.db.QueryRow(ctx, `
		SELECT id, name FROM roles WHERE id = $1 LIMIT 1;
	`, id))
}

func (r *UserRepository) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.scanRole(r.db.QueryRow(ctx, `
		SELECT id, name FROM roles WHERE name = $1 LIMIT 1;
	`, name))
}

func (r *UserRepository) scanRole(row pgx.Row) (*domain.Role, error) {
	var role domain.Role
	if err := row.Scan(&role.ID, &role.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return &role, nil
}

func (r *UserRepository) CreateRole(ctx context.Context, role *domain.Role) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO roles (name) VALUES ($1) RETURNING id
	`, role.Name)

	if err := row.Scan(&role.ID); err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrRoleAlreadyExists
		}
		return err
	}

	return nil
}

type SessionRepository struct {
	db PgxIface
}

func NewSessionRepository(db PgxIface) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Store(ctx context.Context, session *domain.RefreshSession) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, refresh_token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, session.ID, session.UserID, session.TokenHash, session.CreatedAt, session.ExpiresIn)

	return err
}

func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshSession, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, refresh_token, created_at, expires_at
		FROM refresh_tokens
		WHERE refresh_token = $1
		LIMIT 1;
	`, tokenHash)

	var session domain.RefreshSession
	err := row.Scan(&session.ID, &session.UserID, &session.TokenHash, &session.CreatedAt, &session.ExpiresIn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refresh session: %w", err)
	}

	return &session, nil
}

// Rotate is the compare-and-swap half of token rotation: the UPDATE matches
// on the old hash, so a concurrent rotation that already swapped it leaves
// nothing to update and the caller learns it lost the race.
func (r *SessionRepository) Rotate(ctx context.Context, oldHash, newHash string,
	rotatedAt time.Time, expiresIn int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens
		SET refresh_token = $1, created_at = $2, expires_at = $3
		WHERE refresh_token = $4
	`, newHash, rotatedAt, expiresIn, oldHash)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE refresh_token = $1
	`, tokenHash)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepository) DeleteAllByUserID(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1
	`, userID)

	return err
}

// CountByUserID counts live sessions only: an expired row that the lazy
// purge has not reached yet must not keep a user active.
func (r *SessionRepository) CountByUserID(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM refresh_tokens
		WHERE user_id = $1
		  AND created_at + expires_at * interval '1 second' > $2
	`, userID, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count refresh sessions: %w", err)
	}

	return count, nil
}

func (r *SessionRepository) ListByUserID(ctx context.Context, userID string) ([]domain.RefreshSession, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, refresh_token, created_at, expires_at
		FROM refresh_tokens
		WHERE user_id = $1
		ORDER BY created_at;
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.RefreshSession
	for rows.Next() {
		var session domain.RefreshSession
		if err := rows.Scan(&session.ID, &session.UserID, &session.TokenHash,
			&session.CreatedAt, &session.ExpiresIn); err != nil {
			return nil, fmt.Errorf("failed to scan refresh session row: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}
