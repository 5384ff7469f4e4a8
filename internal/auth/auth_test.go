package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"grledger/internal/core"
)

type staticDir []core.User

func (d staticDir) Users() []core.User { return d }

func mustUser(t *testing.T, id, username, password string) core.User {
	t.Helper()
	h, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return core.User{ID: id, Username: username, PasswordHash: h, Role: core.RoleUser}
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("admin123", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if h == "admin123" {
		t.Fatal("hash equals clear text")
	}
	if !CheckPassword(h, "admin123") {
		t.Error("CheckPassword rejected the right password")
	}
	if CheckPassword(h, "admin124") {
		t.Error("CheckPassword accepted a wrong password")
	}
	if _, err := HashPassword("", bcrypt.MinCost); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("empty password error = %v", err)
	}
}

func TestSeedAdmin(t *testing.T) {
	now := time.Date(2025, 8, 17, 9, 0, 0, 0, time.UTC)

	u, pw, err := SeedAdmin("s3cret", bcrypt.MinCost, now)
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != core.SeedAdminID || u.Username != core.SeedAdminUsername || u.Role != core.RoleAdmin {
		t.Errorf("seed admin = %+v", u)
	}
	if pw != "s3cret" || !CheckPassword(u.PasswordHash, "s3cret") {
		t.Error("seed admin password not applied")
	}

	_, generated, err := SeedAdmin("", bcrypt.MinCost, now)
	if err != nil {
		t.Fatal(err)
	}
	if generated == "" {
		t.Error("no password generated for empty input")
	}
}

func TestLogin(t *testing.T) {
	dir := staticDir{mustUser(t, "u1", "rina", "pass1"), mustUser(t, "u2", "budi", "pass2")}
	a := NewAuthenticator(dir, 0)

	tests := []struct {
		name     string
		username string
		password string
		wantID   string
		wantErr  error
	}{
		{"valid", "budi", "pass2", "u2", nil},
		{"wrong password", "budi", "pass1", "", ErrInvalidCredentials},
		{"unknown user", "andi", "pass1", "", ErrInvalidCredentials},
		{"username is case sensitive", "Rina", "pass1", "", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := a.Login(context.Background(), tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
			}
			if u.ID != tt.wantID {
				t.Errorf("Login() id = %q, want %q", u.ID, tt.wantID)
			}
		})
	}
}

func TestLoginDelay(t *testing.T) {
	a := NewAuthenticator(staticDir{}, 50*time.Millisecond)

	start := time.Now()
	_, err := a.Login(context.Background(), "x", "y")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("error = %v", err)
	}
	if el := time.Since(start); el < 50*time.Millisecond {
		t.Errorf("Login returned after %v, want at least 50ms", el)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Login(ctx, "x", "y"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Login error = %v", err)
	}
}

func TestTokens(t *testing.T) {
	now := time.Date(2025, 8, 17, 9, 0, 0, 0, time.UTC)
	tok := NewTokens([]byte("0123456789abcdef"), time.Hour)
	tok.now = func() time.Time { return now }

	u := core.User{ID: "u1", Username: "rina", Role: core.RoleUser}
	raw, exp, err := tok.Issue(u)
	if err != nil {
		t.Fatal(err)
	}
	if !exp.Equal(now.Add(time.Hour)) {
		t.Errorf("expiry = %v", exp)
	}

	claims, err := tok.Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Subject != "u1" || claims.Username != "rina" || claims.Role != core.RoleUser {
		t.Errorf("claims = %+v", claims)
	}

	t.Run("expired", func(t *testing.T) {
		tok.now = func() time.Time { return now.Add(2 * time.Hour) }
		defer func() { tok.now = func() time.Time { return now } }()
		if _, err := tok.Parse(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse(expired) error = %v", err)
		}
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewTokens([]byte("fedcba9876543210"), time.Hour)
		other.now = tok.now
		if _, err := other.Parse(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse(foreign) error = %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := tok.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse(garbage) error = %v", err)
		}
	})
}
