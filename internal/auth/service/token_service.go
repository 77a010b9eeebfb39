package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/leksBezdar/AsQi-API/internal/auth/service TokenGenerator

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperr "github.com/leksBezdar/AsQi-API/internal/errors"
)

const refreshTokenBytes = 32

type TokenGenerator interface {
	GenerateAccessToken(userID string) (string, time.Time, error)
	GenerateRefreshToken() (string, error)
	HashRefreshToken(raw string) string
	VerifyAccessToken(tokenString string) (string, error)
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

// TokenService mints signed access tokens and opaque refresh tokens. Refresh
// tokens are random values, never JWTs: revoking one is deleting its row, no
// blocklist needed. Only an HMAC digest of a refresh token ever leaves this
// type for storage.
type TokenService struct {
	accessSecret       []byte
	refreshSecret      []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	clock              Clock
}

type accessClaims struct {
	jwt.RegisteredClaims
}

func NewTokenService(accessSecret, refreshSecret string, accessMinutes, refreshDays int, clock Clock) *TokenService {
	return &TokenService{
		accessSecret:       []byte(accessSecret),
		refreshSecret:      []byte(refreshSecret),
		accessTokenExpiry:  time.Duration(accessMinutes) * time.Minute,
		refreshTokenExpiry: time.Duration(refreshDays) * 24 * time.Hour,
		clock:              clock,
	}
}

func (ts *TokenService) GenerateAccessToken(userID string) (string, time.Time, error) {
	now := ts.clock.Now()
	expiresAt := now.Add(ts.accessTokenExpiry)

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// GenerateRefreshToken returns a fresh unguessable hex value.
func (ts *TokenService) GenerateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}

// HashRefreshToken returns the digest under which a refresh token is
// persisted. Keyed with the refresh secret so a leaked table alone cannot be
// replayed.
func (ts *TokenService) HashRefreshToken(raw string) string {
	mac := hmac.New(sha256.New, ts.refreshSecret)
	mac.Write([]byte(raw))

	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyAccessToken checks signature and expiry and returns the subject user
// id. Expired tokens map to ErrTokenExpired, everything else wrong with the
// token to ErrInvalidToken.
func (ts *TokenService) VerifyAccessToken(tokenString string) (string, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.accessSecret, nil
	}, jwt.WithTimeFunc(ts.clock.Now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperr.ErrTokenExpired
		}
		return "", apperr.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", apperr.ErrInvalidToken
	}

	return claims.Subject, nil
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.accessTokenExpiry
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.refreshTokenExpiry
}
