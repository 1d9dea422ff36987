package views

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasktrackr/internal/backend"
	"github.com/dori/tasktrackr/internal/model"
	"github.com/dori/tasktrackr/internal/notify"
	"github.com/dori/tasktrackr/internal/state"
	"github.com/dori/tasktrackr/internal/ui/theme"
)

// DemoHint is shown under the login form
const DemoHint = "Try jotaro@jojo.com with starplatinum"

const (
	fieldEmail = iota
	fieldPassword
	fieldUsername
)

type loginResultMsg struct {
	user   *model.User
	err    error
	signup bool
}

// LoginView is the login / signup screen
type LoginView struct {
	auth     *state.Auth
	notifier *notify.Notifier
	width    int
	height   int

	signup     bool
	inputs     [3]textinput.Model
	focus      int
	submitting bool
	errMsg     string
}

// NewLoginView creates the login screen
func NewLoginView(auth *state.Auth, notifier *notify.Notifier) LoginView {
	v := LoginView{auth: auth, notifier: notifier}

	email := textinput.New()
	email.Placeholder = "jotaro@jojo.com"
	email.CharLimit = 254
	email.Prompt = ""

	password := textinput.New()
	password.Placeholder = "starplatinum"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Prompt = ""

	username := textinput.New()
	username.Placeholder = "Jotaro Kujo"
	username.CharLimit = 64
	username.Prompt = ""

	v.inputs = [3]textinput.Model{email, password, username}
	v.inputs[fieldEmail].Focus()
	return v
}

// Init initializes the login view
func (v LoginView) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize sets the view dimensions
func (v LoginView) SetSize(width, height int) LoginView {
	v.width = width
	v.height = height
	return v
}

// IsSignup reports whether the signup form is showing
func (v LoginView) IsSignup() bool {
	return v.signup
}

// Reset clears the form, e.g. after logout
func (v LoginView) Reset() LoginView {
	for i := range v.inputs {
		v.inputs[i].SetValue("")
	}
	v.errMsg = ""
	v.submitting = false
	return v.focusField(fieldEmail)
}

// Update handles messages
func (v LoginView) Update(msg tea.Msg) (LoginView, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		v.submitting = false
		return v.finish(msg)

	case tea.KeyMsg:
		if v.submitting {
			return v, nil
		}
		switch msg.String() {
		case "ctrl+n":
			v.signup = !v.signup
			v.errMsg = ""
			return v.focusField(fieldEmail), nil
		case "tab", "down":
			return v.focusField(v.nextField(1)), nil
		case "shift+tab", "up":
			return v.focusField(v.nextField(-1)), nil
		case "enter":
			if v.focus != v.lastField() {
				return v.focusField(v.nextField(1)), nil
			}
			return v.submit()
		}
	}

	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return v, cmd
}

func (v LoginView) lastField() int {
	if v.signup {
		return fieldUsername
	}
	return fieldPassword
}

func (v LoginView) nextField(delta int) int {
	n := v.lastField() + 1
	return (v.focus + delta + n) % n
}

func (v LoginView) focusField(i int) LoginView {
	for j := range v.inputs {
		v.inputs[j].Blur()
	}
	v.focus = i
	v.inputs[i].Focus()
	return v
}

// submit runs login or signup in the background
func (v LoginView) submit() (LoginView, tea.Cmd) {
	email := strings.TrimSpace(v.inputs[fieldEmail].Value())
	password := v.inputs[fieldPassword].Value()
	username := strings.TrimSpace(v.inputs[fieldUsername].Value())
	signup := v.signup

	v.submitting = true
	v.errMsg = ""
	a := v.auth
	return v, func() tea.Msg {
		var u *model.User
		var err error
		if signup {
			u, err = a.Signup(context.Background(), email, password, username)
		} else {
			u, err = a.Login(context.Background(), email, password)
		}
		return loginResultMsg{user: u, err: err, signup: signup}
	}
}

// finish turns a login result into toasts and the logged-in message
func (v LoginView) finish(msg loginResultMsg) (LoginView, tea.Cmd) {
	if msg.err != nil {
		title := "Login Failed"
		body := "Invalid email or password. " + DemoHint
		if msg.signup {
			title = "Signup Failed"
			body = "User with this email already exists"
		}
		if !errors.Is(msg.err, backend.ErrInvalidCredentials) && !errors.Is(msg.err, backend.ErrEmailTaken) {
			body = msg.err.Error()
		}
		v.errMsg = body
		v.notifier.SendLoginResult(title, body, true)
		return v, Toast(title, body, true)
	}

	title := "ORA ORA! Welcome back!"
	body := "Successfully logged in, Stand User!"
	if msg.signup {
		title = "MUDA MUDA! Stand User Created!"
		body = "Your JoJo character has been assigned!"
	}
	v.notifier.SendLoginResult(title, body, false)
	user := *msg.user
	v = v.Reset()
	return v, tea.Batch(
		Toast(title, body, false),
		func() tea.Msg { return LoggedInMsg{User: user} },
	)
}

// View renders the login screen
func (v LoginView) View() string {
	t := theme.Current.Theme
	styles := theme.Current.Styles

	banner := lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		Render("T A S K T R A C K R")
	tagline := lipgloss.NewStyle().
		Foreground(t.Secondary).
		Bold(true).
		Render("⭐ BIZARRE TASK ADVENTURE ⭐")

	heading, sub, button := "ORA ORA LOGIN", "Enter your credentials", "⭐ ORA ORA LOGIN ⭐"
	switchHint := "New to the adventure? ctrl+n: JOIN THE CRUSADE"
	if v.signup {
		heading, sub, button = "JOIN THE CRUSADE", "Become a Stand User!", "🌟 MUDA MUDA SIGNUP 🌟"
		switchHint = "Already a Stand User? ctrl+n: LOGIN HERE"
	}
	if v.submitting {
		button = "LOADING..."
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	field := func(i int, label string) string {
		box := styles.Input
		if i == v.focus {
			box = styles.InputFocused
		}
		return labelStyle.Render(label) + "\n" + box.Width(36).Render(v.inputs[i].View())
	}

	var rows []string
	rows = append(rows,
		lipgloss.NewStyle().Foreground(t.Foreground).Bold(true).Render(heading),
		styles.Label.Render(sub),
		"",
	)
	rows = append(rows,
		field(fieldEmail, "Email"),
		field(fieldPassword, "Password"),
	)
	if v.signup {
		rows = append(rows, field(fieldUsername, "Username"))
	}
	rows = append(rows,
		"",
		lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render(button),
	)
	if v.errMsg != "" {
		rows = append(rows, "", styles.ToastError.Render(v.errMsg))
	}
	rows = append(rows, "", styles.Label.Render(switchHint))
	if !v.signup {
		rows = append(rows, styles.Label.Italic(true).Render(DemoHint))
	}

	form := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(t.Secondary).
		Padding(1, 3).
		Render(lipgloss.JoinVertical(lipgloss.Center, rows...))

	content := lipgloss.JoinVertical(lipgloss.Center, banner, tagline, "", form)
	if v.width == 0 || v.height == 0 {
		return content
	}
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, content)
}
