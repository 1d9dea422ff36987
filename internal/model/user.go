package model

import (
	"time"
)

// User is the account identity plus its display attributes
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	AvatarEmoji string    `json:"avatar,omitempty"`
	AvatarURL   string    `json:"image_url,omitempty"`
	StandName   string    `json:"stand,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DisplayName returns the username, falling back to the email
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Session is an authenticated user plus its access token
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}
