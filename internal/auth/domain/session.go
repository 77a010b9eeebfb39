package domain

import "time"

// RefreshSession is one live refresh token. Only the HMAC digest of the token
// value is stored; ExpiresIn is a TTL in seconds counted from CreatedAt.
// Rotated, revoked and expired sessions are all represented by row absence.
type RefreshSession struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresIn int64
}

// ExpiresAt resolves the TTL against the creation time.
func (s *RefreshSession) ExpiresAt() time.Time {
	return s.CreatedAt.Add(time.Duration(s.ExpiresIn) * time.Second)
}
