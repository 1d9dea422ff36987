package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dori/tasktrackr/internal/model"
	"github.com/google/uuid"
)

// UserRecord is a user row including its password hash
type UserRecord struct {
	model.User
	PasswordHash string
}

// CreateUser inserts a new account and returns the stored profile
func (db *DB) CreateUser(ctx context.Context, u model.User, passwordHash string) (*model.User, error) {
	u.ID = uuid.New().String()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = now()

	_, err := db.ExecContext(ctx, db.rebind(`
		INSERT INTO users (id, email, password_hash, username, avatar_emoji, avatar_url, stand_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), u.ID, u.Email, passwordHash, u.Username, u.AvatarEmoji, u.AvatarURL, u.StandName, u.CreatedAt, u.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// GetUserByEmail returns the user with its password hash, or nil when absent
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	row := db.QueryRowContext(ctx, db.rebind(`
		SELECT id, email, username, avatar_emoji, avatar_url, stand_name, created_at, password_hash
		FROM users WHERE email = ?
	`), strings.ToLower(strings.TrimSpace(email)))

	var rec UserRecord
	err := row.Scan(&rec.ID, &rec.Email, &rec.Username, &rec.AvatarEmoji,
		&rec.AvatarURL, &rec.StandName, &rec.CreatedAt, &rec.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetUser returns the profile for id, or nil when absent
func (db *DB) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := db.QueryRowContext(ctx, db.rebind(`
		SELECT id, email, username, avatar_emoji, avatar_url, stand_name, created_at
		FROM users WHERE id = ?
	`), id)

	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.AvatarEmoji, &u.AvatarURL, &u.StandName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
