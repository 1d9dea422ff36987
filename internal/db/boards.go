package db

import (
	"context"
	"database/sql"

	"github.com/dori/tasktrackr/internal/model"
	"github.com/google/uuid"
)

// GetBoards returns the user's boards, oldest first
func (db *DB) GetBoards(ctx context.Context, userID string) ([]model.Board, error) {
	rows, err := db.QueryContext(ctx, db.rebind(`
		SELECT id, name, description, color, created_at, updated_at, user_id
		FROM boards
		WHERE user_id = ?
		ORDER BY created_at ASC
	`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boards := []model.Board{}
	for rows.Next() {
		var b model.Board
		var description sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &description, &b.Color, &b.CreatedAt, &b.UpdatedAt, &b.UserID); err != nil {
			return nil, err
		}
		b.Description = description.String
		if b.Color == "" {
			b.Color = model.DefaultBoardColor
		}
		boards = append(boards, b)
	}

	return boards, rows.Err()
}

// CreateBoard creates a new board owned by userID
func (db *DB) CreateBoard(ctx context.Context, userID string, draft model.BoardDraft) (*model.Board, error) {
	draft = draft.Normalize()
	b := model.Board{
		ID:          uuid.New().String(),
		Name:        draft.Name,
		Description: draft.Description,
		Color:       draft.Color,
		UserID:      userID,
	}
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt

	var description any
	if b.Description != "" {
		description = b.Description
	}

	_, err := db.ExecContext(ctx, db.rebind(`
		INSERT INTO boards (id, user_id, name, description, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), b.ID, b.UserID, b.Name, description, b.Color, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

// boardOwnedBy reports whether boardID exists and belongs to userID
func (db *DB) boardOwnedBy(ctx context.Context, q querier, userID, boardID string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, db.rebind(`
		SELECT COUNT(*) FROM boards WHERE id = ? AND user_id = ?
	`), boardID, userID).Scan(&count)
	return count > 0, err
}
