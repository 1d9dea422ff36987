package model

import (
	"errors"
	"strings"
	"time"
)

// DefaultBoardColor is used when a board has no stored color
const DefaultBoardColor = "#8B5CF6"

// BoardColors is the palette offered by the board form
var BoardColors = []string{
	"#00bfff", // Electric blue
	"#9932cc", // Purple
	"#00ff7f", // Neon green
	"#ff6347", // Orange red
	"#ffd700", // Gold
	"#ff1493", // Hot pink
	"#00ced1", // Dark turquoise
	"#ff4500", // Orange
}

// ErrEmptyName is returned when a board name is blank
var ErrEmptyName = errors.New("board name cannot be empty")

// Board represents a named, colored group of tasks
type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      string    `json:"user_id"`
}

// BoardDraft is the payload of the board form
type BoardDraft struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

// Normalize trims the name and falls back to the default color
func (d BoardDraft) Normalize() BoardDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Color = strings.TrimSpace(d.Color)
	if d.Color == "" {
		d.Color = DefaultBoardColor
	}
	return d
}

// Validate checks the board name
func (d BoardDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
