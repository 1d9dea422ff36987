// Package state holds the client-side session and board state shared by the
// views, and keeps it in step with the backend.
package state

import (
	"context"
	"slices"
	"sync"

	"github.com/dori/tasktrackr/internal/backend"
	"github.com/dori/tasktrackr/internal/model"
	"github.com/sirupsen/logrus"
)

// BoardMemory remembers the active board per user across runs
type BoardMemory interface {
	ActiveBoard(userID string) string
	SaveActiveBoard(userID, boardID string) error
}

// Tasks holds the signed-in user's boards and tasks.
// Mutations go to the backend first; local state only changes on success.
type Tasks struct {
	rows   backend.Rows
	memory BoardMemory
	log    *logrus.Entry

	mu          sync.RWMutex
	user        *model.User
	tasks       []model.Task
	boards      []model.Board
	activeBoard string
	loading     bool
	generation  uint64
}

// NewTasks creates the task state. memory may be nil.
func NewTasks(rows backend.Rows, memory BoardMemory, logger *logrus.Entry) *Tasks {
	return &Tasks{rows: rows, memory: memory, log: logger}
}

// Load replaces local state with the user's rows. A nil user clears everything.
// A load that finishes after the user changed is discarded.
func (s *Tasks) Load(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	if user == nil {
		s.clearLocked()
		s.mu.Unlock()
		return nil
	}
	if s.user == nil || s.user.ID != user.ID {
		s.tasks, s.boards, s.activeBoard = nil, nil, ""
	}
	u := *user
	s.user = &u
	s.loading = true
	s.mu.Unlock()

	boards, err := s.rows.ListBoards(ctx, user.ID)
	if err != nil {
		s.finishLoad(gen)
		return s.fail("load boards", err, logrus.Fields{"user": user.ID})
	}
	tasks, err := s.rows.ListTasks(ctx, user.ID)
	if err != nil {
		s.finishLoad(gen)
		return s.fail("load tasks", err, logrus.Fields{"user": user.ID})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.log.WithField("user", user.ID).Debug("discarding stale load")
		return nil
	}

	s.boards = boards
	s.tasks = tasks
	s.loading = false

	if !s.hasBoardLocked(s.activeBoard) {
		s.activeBoard = ""
		if s.memory != nil {
			if remembered := s.memory.ActiveBoard(user.ID); s.hasBoardLocked(remembered) {
				s.activeBoard = remembered
			}
		}
		if s.activeBoard == "" && len(boards) > 0 {
			s.activeBoard = boards[0].ID
		}
	}

	s.log.WithFields(logrus.Fields{
		"user":   user.ID,
		"boards": len(boards),
		"tasks":  len(tasks),
	}).Debug("loaded rows")
	return nil
}

func (s *Tasks) finishLoad(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.loading = false
	}
}

// CreateTask inserts a task, defaulting to the active board, and prepends it
func (s *Tasks) CreateTask(ctx context.Context, draft model.TaskDraft) (*model.Task, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	user, active := s.snapshot()
	if user == nil {
		return nil, ErrSignedOut
	}
	if draft.BoardID == "" {
		draft.BoardID = active
	}

	created, err := s.rows.InsertTask(ctx, user.ID, draft)
	if err != nil {
		return nil, s.fail("create task", err, logrus.Fields{"user": user.ID, "board": draft.BoardID})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sameUserLocked(user) {
		s.tasks = append([]model.Task{*created}, s.tasks...)
	}
	return created, nil
}

// UpdateTask applies patch and replaces the local task with the stored row
func (s *Tasks) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	user, _ := s.snapshot()
	if user == nil {
		return nil, ErrSignedOut
	}

	updated, err := s.rows.UpdateTask(ctx, user.ID, id, patch)
	if err != nil {
		return nil, s.fail("update task", err, logrus.Fields{"user": user.ID, "id": id})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sameUserLocked(user) {
		if i := s.indexLocked(id); i >= 0 {
			s.tasks[i] = *updated
		}
	}
	return updated, nil
}

// MoveTask changes only the task's status
func (s *Tasks) MoveTask(ctx context.Context, id string, status model.Status) (*model.Task, error) {
	return s.UpdateTask(ctx, id, model.TaskPatch{Status: &status})
}

// DeleteTask deletes a task and drops it locally
func (s *Tasks) DeleteTask(ctx context.Context, id string) error {
	user, _ := s.snapshot()
	if user == nil {
		return ErrSignedOut
	}

	if err := s.rows.DeleteTask(ctx, user.ID, id); err != nil {
		return s.fail("delete task", err, logrus.Fields{"user": user.ID, "id": id})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sameUserLocked(user) {
		s.tasks = slices.DeleteFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
	}
	return nil
}

// CreateBoard inserts a board, appends it and makes it active
func (s *Tasks) CreateBoard(ctx context.Context, draft model.BoardDraft) (*model.Board, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	user, _ := s.snapshot()
	if user == nil {
		return nil, ErrSignedOut
	}

	created, err := s.rows.InsertBoard(ctx, user.ID, draft)
	if err != nil {
		return nil, s.fail("create board", err, logrus.Fields{"user": user.ID})
	}

	s.mu.Lock()
	if !s.sameUserLocked(user) {
		s.mu.Unlock()
		return created, nil
	}
	s.boards = append(s.boards, *created)
	s.activeBoard = created.ID
	s.mu.Unlock()

	s.remember(user.ID, created.ID)
	return created, nil
}

// SetActiveBoard selects a board; "" shows every board. Unknown ids are ignored.
func (s *Tasks) SetActiveBoard(id string) {
	s.mu.Lock()
	if s.user == nil || (id != "" && !s.hasBoardLocked(id)) {
		s.mu.Unlock()
		return
	}
	s.activeBoard = id
	userID := s.user.ID
	s.mu.Unlock()

	s.remember(userID, id)
}

// ActiveBoard returns the active board id, or ""
func (s *Tasks) ActiveBoard() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeBoard
}

// ActiveBoardData returns the active board record
func (s *Tasks) ActiveBoardData() (model.Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.boards {
		if b.ID == s.activeBoard {
			return b, true
		}
	}
	return model.Board{}, false
}

// TasksByStatus returns the tasks in a column of the active board, or of every
// board when none is active
func (s *Tasks) TasksByStatus(status model.Status) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []model.Task{}
	for _, t := range s.tasks {
		if t.Status != status {
			continue
		}
		if s.activeBoard != "" && t.BoardID != s.activeBoard {
			continue
		}
		result = append(result, t)
	}
	return result
}

// Tasks returns a copy of every loaded task, newest first
func (s *Tasks) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

// Boards returns a copy of the loaded boards, oldest first
func (s *Tasks) Boards() []model.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.boards)
}

// Task returns a loaded task by id
func (s *Tasks) Task(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i], true
	}
	return model.Task{}, false
}

// Loading reports whether a load is in flight
func (s *Tasks) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Reset clears tasks, boards and the active board
func (s *Tasks) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.clearLocked()
}

// Helper functions

func (s *Tasks) clearLocked() {
	s.user = nil
	s.tasks = nil
	s.boards = nil
	s.activeBoard = ""
	s.loading = false
}

func (s *Tasks) snapshot() (*model.User, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.activeBoard
}

func (s *Tasks) sameUserLocked(u *model.User) bool {
	return s.user != nil && s.user.ID == u.ID
}

func (s *Tasks) hasBoardLocked(id string) bool {
	if id == "" {
		return false
	}
	return slices.ContainsFunc(s.boards, func(b model.Board) bool { return b.ID == id })
}

func (s *Tasks) indexLocked(id string) int {
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}

func (s *Tasks) remember(userID, boardID string) {
	if s.memory == nil {
		return
	}
	if err := s.memory.SaveActiveBoard(userID, boardID); err != nil {
		s.log.WithError(err).WithField("user", userID).Warn("failed to remember active board")
	}
}

func (s *Tasks) fail(op string, err error, fields logrus.Fields) error {
	s.log.WithFields(fields).WithField("op", op).WithError(err).Error("backend call failed")
	return &SyncError{Op: op, Err: err}
}
