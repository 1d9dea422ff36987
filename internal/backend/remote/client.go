// Package remote implements the backend contract over HTTP against a
// tasktrackr server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dori/tasktrackr/internal/backend"
	"github.com/dori/tasktrackr/internal/model"
)

// DefaultTimeout bounds every request when no timeout is configured
const DefaultTimeout = 15 * time.Second

// Client talks to a tasktrackr server. Row calls use the access token set
// by SetAccessToken; the userID arguments are implied by that token.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ backend.Backend = (*Client)(nil)
var _ backend.TokenHolder = (*Client)(nil)

// New creates a client for the server at baseURL
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: u.String(),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// SetAccessToken sets the bearer token for subsequent calls
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SignUp registers an account
func (c *Client) SignUp(ctx context.Context, email, password, username string) (*model.Session, error) {
	var sess model.Session
	body := map[string]string{"email": email, "password": password, "username": username}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", body, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignIn exchanges credentials for a session
func (c *Client) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	var sess model.Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/token", "", body, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignOut ends the session on the server and forgets the token
func (c *Client) SignOut(ctx context.Context, token string) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
	c.SetAccessToken("")
	return err
}

// GetUser returns the user owning token
func (c *Client) GetUser(ctx context.Context, token string) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/auth/user", token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListBoards returns the signed-in user's boards
func (c *Client) ListBoards(ctx context.Context, userID string) ([]model.Board, error) {
	boards := []model.Board{}
	if err := c.do(ctx, http.MethodGet, "/boards", c.accessToken(), nil, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

// InsertBoard creates a board
func (c *Client) InsertBoard(ctx context.Context, userID string, draft model.BoardDraft) (*model.Board, error) {
	var b model.Board
	if err := c.do(ctx, http.MethodPost, "/boards", c.accessToken(), draft, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListTasks returns the signed-in user's tasks
func (c *Client) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := c.do(ctx, http.MethodGet, "/tasks", c.accessToken(), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// InsertTask creates a task
func (c *Client) InsertTask(ctx context.Context, userID string, draft model.TaskDraft) (*model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", c.accessToken(), draft, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask patches a task
func (c *Client) UpdateTask(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), c.accessToken(), patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(ctx context.Context, userID, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), c.accessToken(), nil, nil)
}

// Error is a failed response; it unwraps to the matching backend sentinel
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

func (e *Error) Unwrap() error {
	if err := backend.FromCode(e.Code); err != nil {
		return err
	}
	switch e.Status {
	case http.StatusUnauthorized:
		return backend.ErrUnauthorized
	case http.StatusNotFound:
		return backend.ErrNotFound
	case http.StatusConflict:
		return backend.ErrEmailTaken
	case http.StatusBadRequest:
		return backend.ErrInvalidInput
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			apiErr.Message = payload.Error
		}
		apiErr.Code = payload.Code
	}
	return apiErr
}
