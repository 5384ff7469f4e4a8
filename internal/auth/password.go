// Package auth handles password hashing, the login check and the signed
// session tokens handed to HTTP clients.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"grledger/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyPassword      = errors.New("password required")
)

// InvalidCredentialsMessage is shown to whoever fails to log in.
const InvalidCredentialsMessage = "Akses ditolak. Silakan periksa kredensial Anda."

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SeedAdmin builds the built-in administrator. An empty password is replaced
// by a random one, which is returned so the caller can show it once.
func SeedAdmin(password string, cost int, now time.Time) (core.User, string, error) {
	if password == "" {
		password = uuid.NewString()
	}
	hash, err := HashPassword(password, cost)
	if err != nil {
		return core.User{}, "", err
	}
	return core.User{
		ID:           core.SeedAdminID,
		Username:     core.SeedAdminUsername,
		PasswordHash: hash,
		Role:         core.RoleAdmin,
		CreatedAt:    now.UTC(),
	}, password, nil
}
