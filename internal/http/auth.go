package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"grledger/internal/auth"
	"grledger/internal/core"
	"grledger/internal/ledger"
	"grledger/internal/log"
	"grledger/internal/middleware/security"
)

// SessionCookie carries the session token for the print pages and browser
// clients that do not send an Authorization header.
const SessionCookie = "grledger_session"

type claimsKey struct{}

// ClaimsFromContext returns the verified claims of the request.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// protect rejects requests without a valid session token or whose user has
// left the directory. Protected responses are never cached.
func (s *Server) protect(next http.HandlerFunc) http.Handler {
	return security.NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, r, auth.ErrInvalidToken)
			return
		}
		claims, err := s.deps.Tokens.Parse(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		u, ok := s.deps.App.User(claims.Subject)
		if !ok || u.Username != claims.Username {
			writeError(w, r, auth.ErrInvalidToken)
			return
		}
		claims.Role = u.Role
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		ctx = log.IntoContext(ctx, log.FromContext(ctx).With(log.FieldUsername, claims.Username))
		next(w, r.WithContext(ctx))
	}))
}

// UserView is a user as shown to clients.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      core.Role `json:"role"`
	Photo     string    `json:"photo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewUser(u core.User) UserView {
	return UserView{ID: u.ID, Username: u.Username, Role: u.Role, Photo: u.Photo, CreatedAt: u.CreatedAt}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserView  `json:"user"`
	Warning   string    `json:"warning,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req loginRequest
	req.Username = p.Get("username")
	if err := p.Decode("password", &req.Password); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := s.deps.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.FromContext(r.Context()).Warn("Login rejected", log.FieldUsername, req.Username)
		}
		writeError(w, r, err)
		return
	}

	res, err := s.deps.App.Dispatch(r.Context(), ledger.StartSession{User: u})
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, exp, err := s.deps.Tokens.Issue(u)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: exp, User: viewUser(u), Warning: res.Warning})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.App.Dispatch(r.Context(), ledger.EndSession{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, res)
}

type sessionResponse struct {
	User    UserView      `json:"user"`
	Session *core.Session `json:"session,omitempty"`
}

// handleSession answers who the token belongs to. A token whose user was
// deleted is no longer accepted.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	u, ok := s.deps.App.User(claims.Subject)
	if !ok {
		writeError(w, r, auth.ErrInvalidToken)
		return
	}
	resp := sessionResponse{User: viewUser(u)}
	if sess, ok := s.deps.App.Session(); ok {
		resp.Session = &sess
	}
	writeJSON(w, http.StatusOK, resp)
}
