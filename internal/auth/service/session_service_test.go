package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leksBezdar/AsQi-API/internal/auth/domain"
	"github.com/leksBezdar/AsQi-API/internal/auth/service"
	apperr "github.com/leksBezdar/AsQi-API/internal/errors"
	"github.com/leksBezdar/AsQi-API/internal/mocks"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

const refreshTTL = 7 * 24 * time.Hour

func TestSessionService_CreateSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)
	clock := newTestClock()

	s := service.NewSessionService(mockSessions, mockTokens, clock, true, zap.NewNop())

	mockTokens.EXPECT().GenerateAccessToken("user-123").Return("access-token", clock.Now().Add(15*time.Minute), nil)
	mockTokens.EXPECT().GenerateRefreshToken().Return("refresh-raw", nil)
	mockTokens.EXPECT().HashRefreshToken("refresh-raw").Return("refresh-hash")
	mockTokens.EXPECT().GetRefreshTokenExpiry().Return(refreshTTL)
	mockSessions.EXPECT().Store(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, sess *domain.RefreshSession) error {
			assert.NotEmpty(t, sess.ID)
			assert.Equal(t, "user-123", sess.UserID)
			assert.Equal(t, "refresh-hash", sess.TokenHash)
			assert.Equal(t, clock.Now(), sess.CreatedAt)
			assert.Equal(t, int64(refreshTTL.Seconds()), sess.ExpiresIn)
			return nil
		})

	pair, err := s.CreateSession(context.Background(), "user-123")

	require.NoError(t, err)
	assert.Equal(t, "access-token", pair.AccessToken)
	assert.Equal(t, "refresh-raw", pair.RefreshToken)
}

func TestSessionService_CreateSession_SingleSessionPolicy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)
	clock := newTestClock()

	s := service.NewSessionService(mockSessions, mockTokens, clock, false, zap.NewNop())

	mockTokens.EXPECT().GenerateAccessToken("user-123").Return("access-token", clock.Now(), nil)
	mockTokens.EXPECT().GenerateRefreshToken().Return("refresh-raw", nil)
	mockTokens.EXPECT().HashRefreshToken("refresh-raw").Return("refresh-hash")
	mockTokens.EXPECT().GetRefreshTokenExpiry().Return(refreshTTL)
	// Previous sessions drop before the new row lands.
	mockSessions.EXPECT().DeleteAllByUserID(gomock.Any(), "user-123").Return(nil)
	mockSessions.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.CreateSession(context.Background(), "user-123")

	require.NoError(t, err)
}

func TestSessionService_Refresh_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)
	clock := newTestClock()

	s := service.NewSessionService(mockSessions, mockTokens, clock, true, zap.NewNop())

	session := &domain.RefreshSession{
		ID:        "sess-1",
		UserID:    "user-123",
		TokenHash: "old-hash",
		CreatedAt: clock.Now().Add(-time.Hour),
		ExpiresIn: int64(refreshTTL.Seconds()),
	}

	mockTokens.EXPECT().HashRefreshToken("old-raw").Return("old-hash")
	mockSessions.EXPECT().GetByTokenHash(gomock.Any(), "old-hash").Return(session, nil)
	mockTokens.EXPECT().GenerateRefreshToken().Return("new-raw", nil)
	mockTokens.EXPECT().HashRefreshToken("new-raw").Return("new-hash")
	mockTokens.EXPECT().GetRefreshTokenExpiry().Return(refreshTTL)
	mockSessions.EXPECT().Rotate(gomock.Any(), "old-hash", "new-hash", clock.Now(),
		int64(refreshTTL.Seconds())).Return(true, nil)
	mockTokens.EXPECT().GenerateAccessToken("user-123").Return("new-access", clock.Now(), nil)

	pair, err := s.Refresh(context.Background(), "old-raw")

	require.NoError(t, err)
	assert.Equal(t, "new-access", pair.AccessToken)
	assert.Equal(t, "new-raw", pair.RefreshToken)
}

func TestSessionService_Refresh_UnknownToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)

	s := service.NewSessionService(mockSessions, mockTokens, newTestClock(), true, zap.NewNop())

	mockTokens.EXPECT().HashRefreshToken("unknown-raw").Return("unknown-hash")
	mockSessions.EXPECT().GetByTokenHash(gomock.Any(), "unknown-hash").Return(nil, nil)

	_, err := s.Refresh(context.Background(), "unknown-raw")

	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestSessionService_Refresh_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name      string
		elapsed   time.Duration
		expectErr error
	}{
		{name: "one second before the TTL", elapsed: 59 * time.Second},
		{name: "one second past the TTL", elapsed: 61 * time.Second, expectErr: apperr.ErrTokenExpired},
		{name: "exactly at the TTL", elapsed: 60 * time.Second, expectErr: apperr.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSessions := mocks.NewMockSessionRepository(ctrl)
			mockTokens := mocks.NewMockTokenGenerator(ctrl)
			clock := newTestClock()

			s := service.NewSessionService(mockSessions, mockTokens, clock, true, zap.NewNop())

			session := &domain.RefreshSession{
				ID:        "sess-1",
				UserID:    "user-123",
				TokenHash: "old-hash",
				CreatedAt: clock.Now().Add(-tt.elapsed),
				ExpiresIn: 60,
			}

			mockTokens.EXPECT().HashRefreshToken("old-raw").Return("old-hash")
			mockSessions.EXPECT().GetByTokenHash(gomock.Any(), "old-hash").Return(session, nil)

			if tt.expectErr != nil {
				// Expired rows are purged on detection.
				mockSessions.EXPECT().DeleteByTokenHash(gomock.Any(), "old-hash").Return(true, nil)
			} else {
				mockTokens.EXPECT().GenerateRefreshToken().Return("new-raw", nil)
				mockTokens.EXPECT().HashRefreshToken("new-raw").Return("new-hash")
				mockTokens.EXPECT().GetRefreshTokenExpiry().Return(refreshTTL)
				mockSessions.EXPECT().Rotate(gomock.Any(), "old-hash", "new-hash", clock.Now(),
					int64(refreshTTL.Seconds())).Return(true, nil)
				mockTokens.EXPECT().GenerateAccessToken("user-123").Return("new-access", clock.Now(), nil)
			}

			_, err := s.Refresh(context.Background(), "old-raw")

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessionService_Refresh_LostRotationRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)
	clock := newTestClock()

	s := service.NewSessionService(mockSessions, mockTokens, clock, true, zap.NewNop())

	session := &domain.RefreshSession{
		ID:        "sess-1",
		UserID:    "user-123",
		TokenHash: "old-hash",
		CreatedAt: clock.Now(),
		ExpiresIn: int64(refreshTTL.Seconds()),
	}

	mockTokens.EXPECT().HashRefreshToken("old-raw").Return("old-hash")
	mockSessions.EXPECT().GetByTokenHash(gomock.Any(), "old-hash").Return(session, nil)
	mockTokens.EXPECT().GenerateRefreshToken().Return("new-raw", nil)
	mockTokens.EXPECT().HashRefreshToken("new-raw").Return("new-hash")
	mockTokens.EXPECT().GetRefreshTokenExpiry().Return(refreshTTL)
	// A concurrent refresh already swapped the hash: zero rows updated.
	mockSessions.EXPECT().Rotate(gomock.Any(), "old-hash", "new-hash", clock.Now(),
		int64(refreshTTL.Seconds())).Return(false, nil)

	_, err := s.Refresh(context.Background(), "old-raw")

	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestSessionService_Revoke(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)

	s := service.NewSessionService(mockSessions, mockTokens, newTestClock(), true, zap.NewNop())

	session := &domain.RefreshSession{ID: "sess-1", UserID: "user-123", TokenHash: "hash"}

	mockTokens.EXPECT().HashRefreshToken("raw").Return("hash")
	mockSessions.EXPECT().GetByTokenHash(gomock.Any(), "hash").Return(session, nil)
	mockSessions.EXPECT().DeleteByTokenHash(gomock.Any(), "hash").Return(true, nil)

	userID, err := s.Revoke(context.Background(), "raw")

	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestSessionService_Revoke_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)

	s := service.NewSessionService(mockSessions, mockTokens, newTestClock(), true, zap.NewNop())

	// Second revoke finds nothing and must not error.
	mockTokens.EXPECT().HashRefreshToken("raw").Return("hash").Times(2)
	gomock.InOrder(
		mockSessions.EXPECT().GetByTokenHash(gomock.Any(), "hash").Return(&domain.RefreshSession{UserID: "user-123", TokenHash: "hash"}, nil),
		mockSessions.EXPECT().DeleteByTokenHash(gomock.Any(), "hash").Return(true, nil),
		mockSessions.EXPECT().GetByTokenHash(gomock.Any(), "hash").Return(nil, nil),
	)

	userID, err := s.Revoke(context.Background(), "raw")
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	userID, err = s.Revoke(context.Background(), "raw")
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestSessionService_RevokeAllForUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)

	s := service.NewSessionService(mockSessions, mockTokens, newTestClock(), true, zap.NewNop())

	mockSessions.EXPECT().DeleteAllByUserID(gomock.Any(), "user-123").Return(nil)

	assert.NoError(t, s.RevokeAllForUser(context.Background(), "user-123"))

	mockSessions.EXPECT().DeleteAllByUserID(gomock.Any(), "user-123").Return(errors.New("db down"))

	assert.Error(t, s.RevokeAllForUser(context.Background(), "user-123"))
}

func TestSessionService_CountForUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)
	clock := newTestClock()

	s := service.NewSessionService(mockSessions, mockTokens, clock, true, zap.NewNop())

	// The count is taken at the clock's instant so expired rows drop out.
	mockSessions.EXPECT().CountByUserID(gomock.Any(), "user-123", clock.Now()).Return(2, nil)

	count, err := s.CountForUser(context.Background(), "user-123")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSessionService_ListForUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)
	clock := newTestClock()

	s := service.NewSessionService(mockSessions, mockTokens, clock, true, zap.NewNop())

	stored := []domain.RefreshSession{
		{ID: "sess-1", UserID: "user-123", CreatedAt: clock.Now(), ExpiresIn: 60},
		{ID: "sess-2", UserID: "user-123", CreatedAt: clock.Now(), ExpiresIn: 120},
	}

	mockSessions.EXPECT().ListByUserID(gomock.Any(), "user-123").Return(stored, nil)

	out, err := s.ListForUser(context.Background(), "user-123")

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "sess-1", out[0].ID)
	assert.Equal(t, clock.Now().Add(time.Minute), out[0].ExpiresAt)
	assert.Equal(t, clock.Now().Add(2*time.Minute), out[1].ExpiresAt)
}
