// Package backend defines the managed backend the client talks to: account
// auth plus owner-scoped board and task rows.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/dori/tasktrackr/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrUnauthorized       = errors.New("not authenticated")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
)

// Auth is the account half of the backend
type Auth interface {
	SignUp(ctx context.Context, email, password, username string) (*model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignOut(ctx context.Context, token string) error
	GetUser(ctx context.Context, token string) (*model.User, error)
}

// Rows is the data half of the backend; every call is scoped to userID
type Rows interface {
	ListBoards(ctx context.Context, userID string) ([]model.Board, error)
	InsertBoard(ctx context.Context, userID string, draft model.BoardDraft) (*model.Board, error)
	ListTasks(ctx context.Context, userID string) ([]model.Task, error)
	InsertTask(ctx context.Context, userID string, draft model.TaskDraft) (*model.Task, error)
	UpdateTask(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
}

// Backend is a complete managed backend
type Backend interface {
	Auth
	Rows
}

// TokenHolder is implemented by backends that authenticate row calls
// with the session's access token
type TokenHolder interface {
	SetAccessToken(token string)
}

// Code returns the wire code of a sentinel error, or "internal"
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrEmailTaken):
		return "email_taken"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	}
	return "internal"
}

// FromCode maps a wire code back to its sentinel, or nil when unknown
func FromCode(code string) error {
	switch code {
	case "invalid_credentials":
		return ErrInvalidCredentials
	case "email_taken":
		return ErrEmailTaken
	case "unauthorized":
		return ErrUnauthorized
	case "not_found":
		return ErrNotFound
	case "invalid_input":
		return ErrInvalidInput
	}
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
