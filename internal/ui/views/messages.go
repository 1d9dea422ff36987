package views

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/tasktrackr/internal/model"
)

// Messages shared between the views and the root model

// LoggedInMsg is sent once a login or signup succeeded
type LoggedInMsg struct {
	User model.User
}

// LoggedOutMsg is sent after the session was cleared
type LoggedOutMsg struct{}

// ToastMsg asks the root model to show a transient notice
type ToastMsg struct {
	Title string
	Body  string
	Error bool
}

// Toast returns a command emitting a ToastMsg
func Toast(title, body string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{Title: title, Body: body, Error: isErr}
	}
}

// boardLoadedMsg reports the end of a task/board load
type boardLoadedMsg struct {
	err error
}

// syncedMsg reports the outcome of a single mutation
type syncedMsg struct {
	done string
	err  error
}

// reminderSentMsg marks tasks whose due reminder went out
type reminderSentMsg struct {
	ids []string
}
