package ui

import (
	"github.com/dori/tasktrackr/internal/model"
)

// Screen is the top-level screen being shown
type Screen int

const (
	ScreenRestoring Screen = iota
	ScreenLogin
	ScreenDashboard
)

// String returns the display name for a screen
func (s Screen) String() string {
	switch s {
	case ScreenRestoring:
		return "Loading"
	case ScreenLogin:
		return "Login"
	case ScreenDashboard:
		return "Dashboard"
	default:
		return "Unknown"
	}
}

// sessionRestoredMsg carries the user found in the stored session, if any
type sessionRestoredMsg struct {
	user *model.User
}

// toastExpiredMsg hides the toast with the given sequence number
type toastExpiredMsg struct {
	id int
}
