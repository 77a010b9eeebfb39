package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength       = 16
	hashIterations   = 100_000
	derivedKeyLength = 32
)

const saltAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// PasswordHasher derives and checks salted password hashes. Stored values
// have the form "salt$hex" with the salt regenerated on every password write.
type PasswordHasher struct{}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{}
}

// Hash derives a hash for the password under a fresh random salt and returns
// the storable "salt$hex" value.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt, err := h.randomSalt()
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	return salt + "$" + h.HashWith(password, salt), nil
}

// HashWith derives the hex-encoded key for a given salt. Deterministic.
func (h *PasswordHasher) HashWith(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), hashIterations, derivedKeyLength, sha256.New)
	return hex.EncodeToString(key)
}

// Verify recomputes the hash under the stored salt and compares in constant
// time. Malformed stored values fail closed instead of erroring so nothing
// structural leaks to the caller.
func (h *PasswordHasher) Verify(password, stored string) bool {
	salt, expected, found := strings.Cut(stored, "$")
	if !found || salt == "" || expected == "" {
		return false
	}

	computed := h.HashWith(password, salt)

	return subtle.ConstantTimeCompare([]byte(computed), []byte(expected)) == 1
}

func (h *PasswordHasher) randomSalt() (string, error) {
	buf := make([]byte, saltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	for i, b := range buf {
		buf[i] = saltAlphabet[int(b)%len(saltAlphabet)]
	}

	return string(buf), nil
}
