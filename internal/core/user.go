package core

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// SeedAdminID identifies the built-in administrator. It can never be deleted.
const (
	SeedAdminID       = "admin-1"
	SeedAdminUsername = "admin"
)

// User is a directory entry. Only the bcrypt hash of the password is kept.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	Photo        string    `json:"photo,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`

	legacyPassword string
}

func (u User) Validate() error {
	if u.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// Session is the persisted pointer to the signed-in user.
type Session struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	StartedAt time.Time `json:"startedAt"`
}

func (s Session) Active() bool {
	return s.UserID != ""
}

// SessionFor builds a session for u started at now.
func SessionFor(u User, now time.Time) Session {
	return Session{UserID: u.ID, Username: u.Username, Role: u.Role, StartedAt: now}
}
