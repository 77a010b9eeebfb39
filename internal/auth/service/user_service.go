package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leksBezdar/AsQi-API/config"
	"github.com/leksBezdar/AsQi-API/internal/auth/domain"
	"github.com/leksBezdar/AsQi-API/internal/auth/dto"
	apperr "github.com/leksBezdar/AsQi-API/internal/errors"
	"github.com/leksBezdar/AsQi-API/pkg/constant"
)

// UserService is the authentication gate plus registration and account
// administration. It reads and validates credential state; the only mutation
// it performs on users during auth flows is the is_active flip, which tracks
// "has at least one live session".
type UserService struct {
	users    domain.UserRepository
	sessions *SessionService
	tokens   TokenGenerator
	hasher   *PasswordHasher
	cfg      *config.Config
	clock    Clock
	logger   *zap.Logger
}

func NewUserService(users domain.UserRepository, sessions *SessionService, tokens TokenGenerator,
	hasher *PasswordHasher, cfg *config.Config, clock Clock, logger *zap.Logger) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		cfg:      cfg,
		clock:    clock,
		logger:   logger,
	}
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	if l := len(input.Username); l < s.cfg.MinUsernameLength || l > s.cfg.MaxUsernameLength {
		return nil, apperr.ErrUsernameLength
	}
	if l := len(input.Password); l < s.cfg.MinPasswordLength || l > s.cfg.MaxPasswordLength {
		return nil, apperr.ErrPasswordLength
	}

	existing, err := s.users.GetByEmailOrUsername(ctx, input.Email, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, apperr.ErrUserAlreadyExists
	}

	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()

	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          input.Email,
		Username:       input.Username,
		HashedPassword: hashedPassword,
		RoleID:         constant.DefaultUserRoleID,
		IsActive:       false,
		IsSuperuser:    false,
		IsVerified:     false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// A racing registration can hit the unique constraint after the
		// existence check passed.
		if errors.Is(err, apperr.ErrUserAlreadyExists) {
			return nil, apperr.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies the credentials and opens a session. Unknown username and
// wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.TokenPair, []dto.CookieInstruction, error) {
	user, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if user == nil || !s.hasher.Verify(input.Password, user.HashedPassword) {
		s.logger.Info("failed login attempt", zap.String("username", input.Username))
		return nil, nil, apperr.ErrInvalidCredentials
	}

	pair, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.SetActive(ctx, user.ID, true); err != nil {
		return nil, nil, fmt.Errorf("failed to activate user: %w", err)
	}

	return pair, s.setCookies(pair), nil
}

// Refresh rotates the presented refresh session and returns the replacement
// cookie instructions alongside the new pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, []dto.CookieInstruction, error) {
	pair, err := s.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, nil, err
	}

	return pair, s.setCookies(pair), nil
}

// Logout revokes the session and flips is_active off once the user has no
// live sessions left. Idempotent.
func (s *UserService) Logout(ctx context.Context, refreshToken string) ([]dto.CookieInstruction, error) {
	userID, err := s.sessions.Revoke(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if userID != "" {
		remaining, err := s.sessions.CountForUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count remaining sessions: %w", err)
		}
		if remaining == 0 {
			if err := s.users.SetActive(ctx, userID, false); err != nil {
				return nil, fmt.Errorf("failed to deactivate user: %w", err)
			}
		}
	}

	return deleteCookies(), nil
}

// Authenticate resolves an access token to its user. It never refreshes;
// expired tokens are the caller's cue to run the refresh flow.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	userID, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrUserDoesNotExist
	}

	return user, nil
}

// CurrentActiveUser is Authenticate plus the live-session check.
func (s *UserService) CurrentActiveUser(ctx context.Context, accessToken string) (*domain.User, error) {
	user, err := s.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.ErrInactiveUser
	}

	return user, nil
}

// CurrentSuperuser additionally requires the superuser flag.
func (s *UserService) CurrentSuperuser(ctx context.Context, accessToken string) (*domain.User, error) {
	user, err := s.CurrentActiveUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if !user.IsSuperuser {
		return nil, apperr.ErrNotEnoughPermissions
	}

	return user, nil
}

func (s *UserService) GetAllUsers(ctx context.Context, offset, limit int) ([]dto.UserOutput, error) {
	users, err := s.users.GetAll(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]dto.UserOutput, 0, len(users))
	for _, user := range users {
		out = append(out, toUserOutput(&user))
	}

	return out, nil
}

func (s *UserService) CreateRole(ctx context.Context, input dto.RoleInput) (*domain.Role, error) {
	existing, err := s.users.GetRoleByName(ctx, input.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing role: %w", err)
	}
	if existing != nil {
		return nil, apperr.ErrRoleAlreadyExists
	}

	role := &domain.Role{Name: input.Name}
	if err := s.users.CreateRole(ctx, role); err != nil {
		if errors.Is(err, apperr.ErrRoleAlreadyExists) {
			return nil, apperr.ErrRoleAlreadyExists
		}
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	return role, nil
}

func (s *UserService) UpdateUserRole(ctx context.Context, userID string, roleID int) (*domain.Role, error) {
	role, err := s.users.GetRoleByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch role: %w", err)
	}
	if role == nil {
		return nil, apperr.ErrRoleDoesNotExist
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrUserDoesNotExist
	}

	if err := s.users.UpdateRole(ctx, userID, roleID); err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}

	return role, nil
}

// DeleteUser soft-deactivates the account: every session is revoked and
// is_active drops, the credential row stays.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return apperr.ErrUserDoesNotExist
	}

	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}

	if err := s.users.SetActive(ctx, userID, false); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	return nil
}

// ForceLogout drops all of a user's sessions and deactivates the account.
func (s *UserService) ForceLogout(ctx context.Context, userID string) error {
	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}

	if err := s.users.SetActive(ctx, userID, false); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	return nil
}

func (s *UserService) GetUserSessions(ctx context.Context, userID string) ([]dto.SessionOutput, error) {
	return s.sessions.ListForUser(ctx, userID)
}

func (s *UserService) setCookies(pair *dto.TokenPair) []dto.CookieInstruction {
	return []dto.CookieInstruction{
		{
			Name:   constant.AccessTokenCookie,
			Value:  pair.AccessToken,
			MaxAge: int(s.tokens.GetAccessTokenExpiry().Seconds()),
		},
		{
			Name:   constant.RefreshTokenCookie,
			Value:  pair.RefreshToken,
			MaxAge: int(s.tokens.GetRefreshTokenExpiry().Seconds()),
		},
	}
}

func deleteCookies() []dto.CookieInstruction {
	return []dto.CookieInstruction{
		{Name: constant.AccessTokenCookie, Delete: true},
		{Name: constant.RefreshTokenCookie, Delete: true},
	}
}

func toUserOutput(user *domain.User) dto.UserOutput {
	return dto.UserOutput{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		RoleID:      user.RoleID,
		RoleName:    user.RoleName,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
		IsVerified:  user.IsVerified,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}
