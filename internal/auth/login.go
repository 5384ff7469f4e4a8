package auth

import (
	"context"
	"time"

	"grledger/internal/core"
)

// Directory lists the known users.
type Directory interface {
	Users() []core.User
}

type Authenticator struct {
	dir   Directory
	delay time.Duration
}

// NewAuthenticator returns an Authenticator that waits delay before every
// answer, successful or not.
func NewAuthenticator(dir Directory, delay time.Duration) *Authenticator {
	return &Authenticator{dir: dir, delay: delay}
}

// Login checks the credentials against the directory. Username matching is
// exact.
func (a *Authenticator) Login(ctx context.Context, username, password string) (core.User, error) {
	if a.delay > 0 {
		t := time.NewTimer(a.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return core.User{}, ctx.Err()
		case <-t.C:
		}
	}

	for _, u := range a.dir.Users() {
		if u.Username == username && CheckPassword(u.PasswordHash, password) {
			return u, nil
		}
	}
	return core.User{}, ErrInvalidCredentials
}
