package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leksBezdar/AsQi-API/internal/auth/domain"
	"github.com/leksBezdar/AsQi-API/internal/auth/dto"
	apperr "github.com/leksBezdar/AsQi-API/internal/errors"
)

// SessionService owns the refresh-session lifecycle: creation at login,
// rotation on refresh, deletion on logout or abort. Nothing else mutates
// session rows.
type SessionService struct {
	sessions          domain.SessionRepository
	tokens            TokenGenerator
	clock             Clock
	allowMultiSession bool
	logger            *zap.Logger
}

func NewSessionService(sessions domain.SessionRepository, tokens TokenGenerator, clock Clock,
	allowMultiSession bool, logger *zap.Logger) *SessionService {
	return &SessionService{
		sessions:          sessions,
		tokens:            tokens,
		clock:             clock,
		allowMultiSession: allowMultiSession,
		logger:            logger,
	}
}

// CreateSession mints an access/refresh pair and persists the refresh
// session. Under the single-session policy any previous sessions of the user
// are dropped first.
func (s *SessionService) CreateSession(ctx context.Context, userID string) (*dto.TokenPair, error) {
	accessToken, _, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if !s.allowMultiSession {
		if err := s.sessions.DeleteAllByUserID(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to drop previous sessions: %w", err)
		}
	}

	session := &domain.RefreshSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: s.tokens.HashRefreshToken(refreshToken),
		CreatedAt: s.clock.Now(),
		ExpiresIn: int64(s.tokens.GetRefreshTokenExpiry().Seconds()),
	}

	if err := s.sessions.Store(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store refresh session: %w", err)
	}

	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh validates the presented token, rotates the session atomically and
// returns a fresh pair. An unknown token and a token that lost a concurrent
// rotation race both surface as ErrInvalidToken; a structurally valid but
// stale session surfaces as ErrTokenExpired and its row is purged.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	tokenHash := s.tokens.HashRefreshToken(refreshToken)

	session, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh session: %w", err)
	}
	if session == nil {
		return nil, apperr.ErrInvalidToken
	}

	if !s.clock.Now().Before(session.ExpiresAt()) {
		if _, err := s.sessions.DeleteByTokenHash(ctx, tokenHash); err != nil {
			s.logger.Warn("failed to purge expired refresh session",
				zap.String("session_id", session.ID), zap.Error(err))
		}

		return nil, apperr.ErrTokenExpired
	}

	newRefreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// The swap is keyed on the old hash, so of two concurrent refreshes with
	// the same stolen token exactly one can win.
	rotated, err := s.sessions.Rotate(ctx, tokenHash, s.tokens.HashRefreshToken(newRefreshToken),
		s.clock.Now(), int64(s.tokens.GetRefreshTokenExpiry().Seconds()))
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh session: %w", err)
	}
	if !rotated {
		return nil, apperr.ErrInvalidToken
	}

	accessToken, _, err := s.tokens.GenerateAccessToken(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// Revoke deletes the session owning the token and returns the owner's user
// id, or "" when no such session existed. Revoking twice is not an error.
func (s *SessionService) Revoke(ctx context.Context, refreshToken string) (string, error) {
	tokenHash := s.tokens.HashRefreshToken(refreshToken)

	session, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return "", fmt.Errorf("failed to look up refresh session: %w", err)
	}
	if session == nil {
		return "", nil
	}

	if _, err := s.sessions.DeleteByTokenHash(ctx, tokenHash); err != nil {
		return "", fmt.Errorf("failed to delete refresh session: %w", err)
	}

	return session.UserID, nil
}

// RevokeAllForUser drops every session the user owns.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteAllByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}

	return nil
}

// CountForUser reports how many live sessions the user still owns. Expired
// rows awaiting lazy purge are excluded, so the gate sees zero once the last
// live session is gone.
func (s *SessionService) CountForUser(ctx context.Context, userID string) (int, error) {
	return s.sessions.CountByUserID(ctx, userID, s.clock.Now())
}

// ListForUser returns the user's sessions for the admin listing.
func (s *SessionService) ListForUser(ctx context.Context, userID string) ([]dto.SessionOutput, error) {
	sessions, err := s.sessions.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user sessions: %w", err)
	}

	out := make([]dto.SessionOutput, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, dto.SessionOutput{
			ID:        sess.ID,
			CreatedAt: sess.CreatedAt,
			ExpiresAt: sess.ExpiresAt(),
		})
	}

	return out, nil
}
