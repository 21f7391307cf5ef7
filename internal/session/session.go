package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/foodrescue/foodrescued/internal/backend"
)

// Session is the gateway's cached view of a signed-in user. It carries the
// same five fields the legacy browser client kept in localStorage; deleting
// the row clears all of them at once.
type Session struct {
	ID        string
	UserID    string
	UserName  string
	UserEmail string
	UserRole  string
	CreatedAt time.Time
}

// IsProvider reports whether the session belongs to an Anbieter.
func (s *Session) IsProvider() bool {
	return s.UserRole == backend.RoleProvider
}

// IsPicker reports whether the session belongs to an Abholer.
func (s *Session) IsPicker() bool {
	return s.UserRole == backend.RolePicker
}

// RoleDisplayName maps a wire role to its German display form.
func (s *Session) RoleDisplayName() string {
	switch s.UserRole {
	case backend.RoleProvider:
		return "Anbieter"
	case backend.RolePicker:
		return "Abholer"
	default:
		return s.UserRole
	}
}

// GenerateToken creates a new session token with the "fr_" prefix followed by
// 32 URL-safe random characters. Only the hash is ever stored.
func GenerateToken() (plaintext, hash string, err error) {
	b := make([]byte, 24) // 24 bytes -> 32 base64url chars
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	plaintext = "fr_" + base64.RawURLEncoding.EncodeToString(b)
	return plaintext, HashToken(plaintext), nil
}

// HashToken returns the hex-encoded SHA-256 hash of a plaintext token.
func HashToken(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}
