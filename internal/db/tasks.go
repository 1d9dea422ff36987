package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dori/tasktrackr/internal/model"
	"github.com/google/uuid"
)

// ErrUnknownBoard is returned when a task references a board the user does not own
var ErrUnknownBoard = errors.New("board does not exist")

const taskColumns = `id, title, description, status, priority, due_date, created_at, updated_at, user_id, board_id`

// GetTasks returns the user's tasks, newest first
func (db *DB) GetTasks(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := db.QueryContext(ctx, db.rebind(`
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = ?
		ORDER BY created_at DESC
	`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// GetTask returns a single task owned by userID, or nil when absent
func (db *DB) GetTask(ctx context.Context, userID, id string) (*model.Task, error) {
	return db.getTask(ctx, db.DB, userID, id)
}

func (db *DB) getTask(ctx context.Context, q querier, userID, id string) (*model.Task, error) {
	row := q.QueryRowContext(ctx, db.rebind(`
		SELECT `+taskColumns+`
		FROM tasks WHERE id = ? AND user_id = ?
	`), id, userID)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// CreateTask inserts a task owned by userID
func (db *DB) CreateTask(ctx context.Context, userID string, draft model.TaskDraft) (*model.Task, error) {
	draft = draft.Normalize()

	if draft.BoardID != "" {
		ok, err := db.boardOwnedBy(ctx, db.DB, userID, draft.BoardID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUnknownBoard
		}
	}

	t := model.Task{
		ID:          uuid.New().String(),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      draft.Status,
		Priority:    draft.Priority,
		DueDate:     draft.DueDate,
		UserID:      userID,
		BoardID:     draft.BoardID,
	}
	t.CreatedAt = now()
	t.UpdatedAt = t.CreatedAt

	_, err := db.ExecContext(ctx, db.rebind(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), t.ID, t.Title, t.Description, t.Status, t.Priority, nullTime(t.DueDate),
		t.CreatedAt, t.UpdatedAt, t.UserID, nullString(t.BoardID))
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// UpdateTask applies patch to a task owned by userID and returns the stored row.
// A nil task with a nil error means no such task.
func (db *DB) UpdateTask(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, error) {
	var updated *model.Task

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		if patch.BoardID != nil && *patch.BoardID != "" {
			ok, err := db.boardOwnedBy(ctx, tx, userID, *patch.BoardID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrUnknownBoard
			}
		}

		sets, args := patchAssignments(patch)
		sets = append(sets, "updated_at = ?")
		args = append(args, now(), id, userID)

		res, err := tx.ExecContext(ctx, db.rebind(
			`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		), args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return err
		}

		updated, err = db.getTask(ctx, tx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteTask deletes a task owned by userID; it reports whether a row was removed
func (db *DB) DeleteTask(ctx context.Context, userID, id string) (bool, error) {
	res, err := db.ExecContext(ctx, db.rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Helper functions

func patchAssignments(p model.TaskPatch) ([]string, []any) {
	var sets []string
	var args []any

	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, strings.TrimSpace(*p.Title))
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, strings.TrimSpace(*p.Description))
	}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, string(*p.Priority))
	}
	if p.ClearDueDate {
		sets = append(sets, "due_date = NULL")
	} else if p.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, p.DueDate.UTC())
	}
	if p.BoardID != nil {
		sets = append(sets, "board_id = ?")
		args = append(args, nullString(*p.BoardID))
	}

	return sets, args
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	var dueDate sql.NullTime
	var boardID sql.NullString

	err := s.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&dueDate, &t.CreatedAt, &t.UpdatedAt, &t.UserID, &boardID,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		due := dueDate.Time
		t.DueDate = &due
	}
	t.BoardID = boardID.String

	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
