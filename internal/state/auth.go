package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dori/tasktrackr/internal/auth"
	"github.com/dori/tasktrackr/internal/backend"
	"github.com/dori/tasktrackr/internal/model"
	"github.com/sirupsen/logrus"
)

// SessionStore persists the token and user slots
type SessionStore interface {
	SaveSession(sess model.Session) error
	LoadSession() (token string, user *model.User, ok bool)
	ClearSession() error
}

// Auth tracks the signed-in user
type Auth struct {
	backend backend.Auth
	store   SessionStore
	log     *logrus.Entry

	mu        sync.RWMutex
	user      *model.User
	token     string
	loading   bool
	onSignOut []func()
}

// NewAuth creates the auth state. It reports Loading until Restore runs.
func NewAuth(b backend.Auth, store SessionStore, logger *logrus.Entry) *Auth {
	return &Auth{backend: b, store: store, log: logger, loading: true}
}

// OnSignOut registers fn to run after every logout
func (a *Auth) OnSignOut(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSignOut = append(a.onSignOut, fn)
}

// Restore picks up a stored session. Missing or malformed slots mean no session;
// a token the backend rejects clears the slots. When the backend cannot be
// reached the stored user is kept.
func (a *Auth) Restore(ctx context.Context) *model.User {
	defer a.setLoading(false)

	a.mu.Lock()
	a.user, a.token = nil, ""
	a.mu.Unlock()

	token, stored, ok := a.store.LoadSession()
	if !ok {
		return nil
	}
	a.holdToken(token)

	user, err := a.backend.GetUser(ctx, token)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		a.log.WithField("user", stored.ID).Info("stored session rejected, signing out")
		if err := a.store.ClearSession(); err != nil {
			a.log.WithError(err).Warn("failed to clear session")
		}
		a.holdToken("")
		return nil
	case err != nil:
		a.log.WithError(err).Warn("could not verify stored session, using cached profile")
		user = stored
	}

	a.mu.Lock()
	a.user, a.token = user, token
	a.mu.Unlock()
	return user
}

// Login signs in with email and password. On failure the stored slots are untouched.
func (a *Auth) Login(ctx context.Context, email, password string) (*model.User, error) {
	if err := auth.ValidateLogin(email, password); err != nil {
		return nil, err
	}

	a.setLoading(true)
	defer a.setLoading(false)

	sess, err := a.backend.SignIn(ctx, email, password)
	if err != nil {
		a.log.WithError(err).WithField("email", email).Info("login failed")
		return nil, err
	}
	return a.begin(sess)
}

// Signup creates an account and signs it in
func (a *Auth) Signup(ctx context.Context, email, password, username string) (*model.User, error) {
	if err := auth.ValidateSignup(email, password, username); err != nil {
		return nil, err
	}

	a.setLoading(true)
	defer a.setLoading(false)

	sess, err := a.backend.SignUp(ctx, email, password, username)
	if err != nil {
		a.log.WithError(err).WithField("email", email).Info("signup failed")
		return nil, err
	}
	return a.begin(sess)
}

// Logout clears the stored session and the user. A failed backend sign-out is only logged.
func (a *Auth) Logout(ctx context.Context) {
	a.mu.Lock()
	token := a.token
	a.user, a.token = nil, ""
	hooks := append([]func(){}, a.onSignOut...)
	a.mu.Unlock()

	if err := a.store.ClearSession(); err != nil {
		a.log.WithError(err).Warn("failed to clear session")
	}
	if token != "" {
		if err := a.backend.SignOut(ctx, token); err != nil {
			a.log.WithError(err).Warn("backend sign out failed")
		}
	}
	a.holdToken("")

	for _, fn := range hooks {
		fn()
	}
}

// User returns the signed-in user, or nil
func (a *Auth) User() *model.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user
}

// Token returns the access token of the current session
func (a *Auth) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Loading reports whether a restore, login or signup is in progress
func (a *Auth) Loading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

func (a *Auth) begin(sess *model.Session) (*model.User, error) {
	if err := a.store.SaveSession(*sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	a.holdToken(sess.AccessToken)

	user := sess.User
	a.mu.Lock()
	a.user, a.token = &user, sess.AccessToken
	a.mu.Unlock()

	a.log.WithField("user", user.ID).Info("signed in")
	return &user, nil
}

func (a *Auth) holdToken(token string) {
	if h, ok := a.backend.(backend.TokenHolder); ok {
		h.SetAccessToken(token)
	}
}

func (a *Auth) setLoading(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = v
}
