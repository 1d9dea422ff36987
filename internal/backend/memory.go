package backend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dori/tasktrackr/internal/auth"
	"github.com/dori/tasktrackr/internal/model"
	"github.com/dori/tasktrackr/internal/session"
	"github.com/google/uuid"
)

const mockTokenPrefix = "mock_jwt_"

type memoryUser struct {
	model.User
	password string
}

// DemoUsers are the accounts every Memory backend starts with
var DemoUsers = []struct {
	Email    string
	Password string
}{
	{"jotaro@jojo.com", "starplatinum"},
	{"dio@jojo.com", "theworld"},
}

// Memory is an in-process backend seeded with the demo accounts.
// With a bundle store it keeps each user's rows in the session file.
type Memory struct {
	mu      sync.Mutex
	users   []memoryUser
	boards  map[string][]model.Board
	tasks   map[string][]model.Task
	bundles *session.Store
	now     func() time.Time

	// issued maps live tokens to their user id
	issued map[string]string
}

// MemoryOption configures a Memory backend
type MemoryOption func(*Memory)

// WithBundleStore persists every user's tasks and boards into store
func WithBundleStore(store *session.Store) MemoryOption {
	return func(m *Memory) {
		m.bundles = store
	}
}

// NewMemory creates a Memory backend
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		boards: map[string][]model.Board{},
		tasks:  map[string][]model.Task{},
		issued: map[string]string{},
		now:    func() time.Time { return time.Now().UTC() },
	}
	created := m.now()
	for i, a := range auth.Avatars[:len(DemoUsers)] {
		u := model.User{
			ID:        strconv.Itoa(i + 1),
			Email:     DemoUsers[i].Email,
			Username:  a.Name,
			CreatedAt: created,
		}
		a.Apply(&u)
		m.users = append(m.users, memoryUser{User: u, password: DemoUsers[i].Password})
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SignUp registers a new account with a random avatar
func (m *Memory) SignUp(ctx context.Context, email, password, username string) (*model.Session, error) {
	if err := auth.ValidateSignup(email, password, username); err != nil {
		return nil, invalid(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findByEmail(email) != nil {
		return nil, ErrEmailTaken
	}

	u := model.User{
		ID:        uuid.New().String(),
		Email:     normalizeEmail(email),
		Username:  strings.TrimSpace(username),
		CreatedAt: m.now(),
	}
	auth.RandomAvatar().Apply(&u)
	m.users = append(m.users, memoryUser{User: u, password: password})

	return m.issue(u), nil
}

// SignIn checks the credentials against the known accounts
func (m *Memory) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.findByEmail(email)
	if u == nil || u.password != password {
		return nil, ErrInvalidCredentials
	}
	return m.issue(u.User), nil
}

// SignOut forgets the token
func (m *Memory) SignOut(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.issued, token)
	return nil
}

// GetUser resolves a token this backend issued. With a bundle store the
// token held in the session slot is also accepted, so a legacy session
// survives a restart.
func (m *Memory) GetUser(ctx context.Context, token string) (*model.User, error) {
	m.mu.Lock()
	id, ok := m.issued[token]
	m.mu.Unlock()

	if !ok {
		id, ok = m.storedTokenUser(token)
		if !ok {
			return nil, ErrUnauthorized
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.ID == id {
			user := u.User
			return &user, nil
		}
	}
	return nil, ErrUnauthorized
}

// ListBoards returns the user's boards, oldest first
func (m *Memory) ListBoards(ctx context.Context, userID string) ([]model.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hydrate(userID)
	return append([]model.Board{}, m.boards[userID]...), nil
}

// InsertBoard appends a board
func (m *Memory) InsertBoard(ctx context.Context, userID string, draft model.BoardDraft) (*model.Board, error) {
	if err := draft.Validate(); err != nil {
		return nil, invalid(err)
	}
	draft = draft.Normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.hydrate(userID)
	now := m.now()
	b := model.Board{
		ID:          uuid.New().String(),
		Name:        draft.Name,
		Description: draft.Description,
		Color:       draft.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      userID,
	}
	m.boards[userID] = append(m.boards[userID], b)

	if err := m.persist(userID); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListTasks returns the user's tasks, newest first
func (m *Memory) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hydrate(userID)
	return append([]model.Task{}, m.tasks[userID]...), nil
}

// InsertTask prepends a task
func (m *Memory) InsertTask(ctx context.Context, userID string, draft model.TaskDraft) (*model.Task, error) {
	if err := draft.Validate(); err != nil {
		return nil, invalid(err)
	}
	draft = draft.Normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.hydrate(userID)
	if draft.BoardID != "" && !m.hasBoard(userID, draft.BoardID) {
		return nil, invalid(fmt.Errorf("board %s does not exist", draft.BoardID))
	}

	now := m.now()
	t := model.Task{
		ID:          uuid.New().String(),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      draft.Status,
		Priority:    draft.Priority,
		DueDate:     draft.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      userID,
		BoardID:     draft.BoardID,
	}
	m.tasks[userID] = append([]model.Task{t}, m.tasks[userID]...)

	if err := m.persist(userID); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask applies patch to one of the user's tasks
func (m *Memory) UpdateTask(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, invalid(err)
	}
	if patch.IsEmpty() {
		return nil, invalid(errors.New("nothing to update"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.hydrate(userID)
	if patch.BoardID != nil && *patch.BoardID != "" && !m.hasBoard(userID, *patch.BoardID) {
		return nil, invalid(fmt.Errorf("board %s does not exist", *patch.BoardID))
	}

	tasks := m.tasks[userID]
	i := slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == id })
	if i < 0 {
		return nil, ErrNotFound
	}

	updated := patch.Apply(tasks[i])
	updated.UpdatedAt = m.now()
	tasks[i] = updated

	if err := m.persist(userID); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTask removes one of the user's tasks
func (m *Memory) DeleteTask(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hydrate(userID)
	tasks := m.tasks[userID]
	i := slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	m.tasks[userID] = slices.Delete(tasks, i, i+1)

	return m.persist(userID)
}

// Helper functions

// issue hands out a mock token of the form mock_jwt_<id>_<nonce>. Callers hold m.mu.
func (m *Memory) issue(u model.User) *model.Session {
	now := m.now()
	token := fmt.Sprintf("%s%s_%s", mockTokenPrefix, u.ID, uuid.New().String())
	m.issued[token] = u.ID
	return &model.Session{
		AccessToken: token,
		ExpiresAt:   now.Add(auth.DefaultTokenTTL),
		User:        u,
	}
}

// storedTokenUser matches token against the session slot of the bundle store
func (m *Memory) storedTokenUser(token string) (string, bool) {
	if m.bundles == nil {
		return "", false
	}
	stored, user, ok := m.bundles.LoadSession()
	if !ok || stored != token || user == nil {
		return "", false
	}
	rest, ok := strings.CutPrefix(token, mockTokenPrefix)
	if !ok {
		return "", false
	}
	id, _, ok := strings.Cut(rest, "_")
	if !ok || id != user.ID {
		return "", false
	}
	return id, true
}

func (m *Memory) findByEmail(email string) *memoryUser {
	email = normalizeEmail(email)
	for i := range m.users {
		if m.users[i].Email == email {
			return &m.users[i]
		}
	}
	return nil
}

func (m *Memory) hasBoard(userID, boardID string) bool {
	return slices.ContainsFunc(m.boards[userID], func(b model.Board) bool { return b.ID == boardID })
}

// hydrate loads a user's rows from the bundle store on first access
func (m *Memory) hydrate(userID string) {
	if m.bundles == nil {
		return
	}
	if _, ok := m.tasks[userID]; ok {
		return
	}

	b := m.bundles.LoadBundle(userID)
	slices.SortStableFunc(b.Boards, func(a, c model.Board) int { return a.CreatedAt.Compare(c.CreatedAt) })
	slices.SortStableFunc(b.Tasks, func(a, c model.Task) int { return c.CreatedAt.Compare(a.CreatedAt) })

	m.boards[userID] = b.Boards
	if b.Tasks == nil {
		b.Tasks = []model.Task{}
	}
	m.tasks[userID] = b.Tasks
}

// persist writes a user's rows back to the bundle store, keeping the active board
func (m *Memory) persist(userID string) error {
	if m.bundles == nil {
		return nil
	}
	err := m.bundles.UpdateBundle(userID, func(b *session.Bundle) {
		b.Tasks = m.tasks[userID]
		b.Boards = m.boards[userID]
	})
	if err != nil {
		return fmt.Errorf("failed to persist rows: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
