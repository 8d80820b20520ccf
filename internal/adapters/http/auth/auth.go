// Package auth keeps the logged-in user in a signed session cookie and
// checks passwords against bcrypt hashes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionName = "wardflow_session"
	keyUser     = "user"
)

// Roles.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Anonymous is the actor name used when nobody is logged in.
const Anonymous = "System"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSession            = errors.New("session unavailable")
)

// Account is a configured login.
type Account struct {
	PasswordHash string
	Role         string
}

// Principal is the caller of a request.
type Principal struct {
	Name string `json:"user"`
	Role string `json:"role"`
}

// Authenticated reports whether the principal came from a session.
func (p Principal) Authenticated() bool { return p.Role != "" }

// Admin reports whether the principal may run privileged operations.
func (p Principal) Admin() bool { return p.Role == RoleAdmin }

type ctxKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the request principal, or an anonymous one.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(ctxKey{}).(Principal); ok {
		return p
	}
	return Principal{Name: Anonymous}
}

// Manager authenticates users and tracks their sessions.
type Manager struct {
	store    sessions.Store
	accounts map[string]Account
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	maxAge int
	secure bool
}

// WithMaxAge sets the cookie lifetime in seconds.
func WithMaxAge(seconds int) Option {
	return func(o *options) {
		if seconds > 0 {
			o.maxAge = seconds
		}
	}
}

// WithSecureCookie marks the cookie Secure (HTTPS only).
func WithSecureCookie(secure bool) Option {
	return func(o *options) { o.secure = secure }
}

// NewManager creates a Manager. An empty secret generates a random signing
// key, so sessions do not survive a restart.
func NewManager(secret []byte, accounts map[string]Account, opts ...Option) *Manager {
	o := options{maxAge: 8 * 3600}
	for _, opt := range opts {
		opt(&o)
	}
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   o.maxAge,
		HttpOnly: true,
		Secure:   o.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if accounts == nil {
		accounts = map[string]Account{}
	}
	return &Manager{store: store, accounts: accounts}
}

// Enabled reports whether any account is configured. Without accounts every
// request runs as the anonymous, unprivileged actor.
func (m *Manager) Enabled() bool { return len(m.accounts) > 0 }

// Login verifies credentials and starts a session.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, username, password string) (Principal, error) {
	acct, ok := m.accounts[username]
	if !ok {
		return Principal{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	sess, _ := m.store.Get(r, sessionName)
	sess.Values[keyUser] = username
	if err := sess.Save(r, w); err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrSession, err)
	}
	return Principal{Name: username, Role: acct.Role}, nil
}

// Logout ends the current session.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, sessionName)
	delete(sess.Values, keyUser)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("%w: %w", ErrSession, err)
	}
	return nil
}

// Middleware resolves the session principal into the request context.
// Sessions naming an account that no longer exists are ignored.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := Principal{Name: Anonymous}
		if sess, err := m.store.Get(r, sessionName); err == nil {
			name, _ := sess.Values[keyUser].(string)
			if acct, ok := m.accounts[name]; ok {
				p = Principal{Name: name, Role: acct.Role}
			}
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireUser rejects anonymous requests with 401 when accounts exist.
func (m *Manager) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Enabled() && !FromContext(r.Context()).Authenticated() {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"unauthorized","message":"login required"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
