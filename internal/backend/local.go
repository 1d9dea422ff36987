package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dori/tasktrackr/internal/auth"
	"github.com/dori/tasktrackr/internal/db"
	"github.com/dori/tasktrackr/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// Local is a backend over the SQL row store with bcrypt passwords and JWT sessions
type Local struct {
	db       *db.DB
	issuer   *auth.Issuer
	hashCost int
}

// LocalOption configures a Local backend
type LocalOption func(*Local)

// WithHashCost overrides the bcrypt cost used for new accounts
func WithHashCost(cost int) LocalOption {
	return func(l *Local) {
		l.hashCost = cost
	}
}

// NewLocal creates a backend over database
func NewLocal(database *db.DB, issuer *auth.Issuer, opts ...LocalOption) *Local {
	l := &Local{db: database, issuer: issuer, hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SignUp creates an account with a random avatar and signs it in
func (l *Local) SignUp(ctx context.Context, email, password, username string) (*model.Session, error) {
	if err := auth.ValidateSignup(email, password, username); err != nil {
		return nil, invalid(err)
	}

	existing, err := l.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPasswordCost(password, l.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := model.User{Email: email, Username: strings.TrimSpace(username)}
	auth.RandomAvatar().Apply(&u)

	created, err := l.db.CreateUser(ctx, u, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return l.issuer.Issue(*created)
}

// SignIn checks the credentials and issues a session
func (l *Local) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	rec, err := l.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if rec == nil || !auth.CheckPasswordHash(password, rec.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return l.issuer.Issue(rec.User)
}

// SignOut is a no-op: access tokens are stateless and simply expire
func (l *Local) SignOut(ctx context.Context, token string) error {
	return nil
}

// GetUser resolves an access token to its user
func (l *Local) GetUser(ctx context.Context, token string) (*model.User, error) {
	claims, err := l.issuer.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	u, err := l.db.GetUser(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// ListBoards returns the user's boards, oldest first
func (l *Local) ListBoards(ctx context.Context, userID string) ([]model.Board, error) {
	return l.db.GetBoards(ctx, userID)
}

// InsertBoard creates a board
func (l *Local) InsertBoard(ctx context.Context, userID string, draft model.BoardDraft) (*model.Board, error) {
	if err := draft.Validate(); err != nil {
		return nil, invalid(err)
	}
	return l.db.CreateBoard(ctx, userID, draft)
}

// ListTasks returns the user's tasks, newest first
func (l *Local) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	return l.db.GetTasks(ctx, userID)
}

// InsertTask creates a task
func (l *Local) InsertTask(ctx context.Context, userID string, draft model.TaskDraft) (*model.Task, error) {
	if err := draft.Validate(); err != nil {
		return nil, invalid(err)
	}

	t, err := l.db.CreateTask(ctx, userID, draft)
	if errors.Is(err, db.ErrUnknownBoard) {
		return nil, invalid(err)
	}
	return t, err
}

// UpdateTask applies patch to one of the user's tasks
func (l *Local) UpdateTask(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, invalid(err)
	}
	if patch.IsEmpty() {
		return nil, invalid(errors.New("nothing to update"))
	}

	t, err := l.db.UpdateTask(ctx, userID, id, patch)
	if errors.Is(err, db.ErrUnknownBoard) {
		return nil, invalid(err)
	}
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// DeleteTask removes one of the user's tasks
func (l *Local) DeleteTask(ctx context.Context, userID, id string) error {
	deleted, err := l.db.DeleteTask(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
