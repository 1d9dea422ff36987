package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/tasktrackr/internal/app"
	"github.com/dori/tasktrackr/internal/ui/theme"
	"github.com/dori/tasktrackr/internal/ui/views"
)

// ToastDuration is how long a toast stays in the footer
const ToastDuration = 4 * time.Second

// RootModel routes between the login screen and the dashboard
type RootModel struct {
	app    *app.App
	keys   KeyMap
	help   help.Model
	width  int
	height int

	screen      Screen
	login       views.LoginView
	dashboard   views.DashboardView
	helpVisible bool

	toast   *views.ToastMsg
	toastID int
}

// NewRootModel creates a new root model
func NewRootModel(application *app.App) RootModel {
	if t, ok := theme.ByName(application.Config.Theme); ok {
		theme.SetTheme(t)
	}

	h := help.New()
	h.ShowAll = false

	return RootModel{
		app:       application,
		keys:      DefaultKeyMap(),
		help:      h,
		screen:    ScreenRestoring,
		login:     views.NewLoginView(application.Auth, application.Notifier),
		dashboard: views.NewDashboardView(application.Tasks, application.Auth, application.Notifier),
	}
}

// Screen returns the screen being shown
func (m RootModel) Screen() Screen {
	return m.screen
}

// Init restores a stored session before deciding which screen to show
func (m RootModel) Init() tea.Cmd {
	auth := m.app.Auth
	return tea.Batch(
		func() tea.Msg {
			return sessionRestoredMsg{user: auth.Restore(context.Background())}
		},
		m.login.Init(),
	)
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// header line plus two footer lines
		contentHeight := m.height - 3
		m.login = m.login.SetSize(m.width, contentHeight)
		m.dashboard = m.dashboard.SetSize(m.width, contentHeight)
		return m, nil

	case sessionRestoredMsg:
		if msg.user == nil {
			m.screen = ScreenLogin
			return m, nil
		}
		m.screen = ScreenDashboard
		return m, m.dashboard.Init()

	case views.LoggedInMsg:
		m.screen = ScreenDashboard
		m.dashboard = m.dashboard.Reset()
		return m, m.dashboard.Init()

	case views.LoggedOutMsg:
		m.screen = ScreenLogin
		m.helpVisible = false
		m.login = m.login.Reset()
		m.dashboard = m.dashboard.Reset()
		return m, views.Toast("Za Warudo!", "You have been logged out", false)

	case views.ToastMsg:
		m.toastID++
		m.toast = &msg
		id := m.toastID
		return m, tea.Tick(ToastDuration, func(time.Time) tea.Msg {
			return toastExpiredMsg{id: id}
		})

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = nil
		}
		return m, nil

	case tea.KeyMsg:
		inputMode := m.isInputMode()

		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, 'q' only outside text fields
			if msg.String() == "ctrl+c" || !inputMode {
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.ThemeCycle):
			m.cycleTheme()
			return m, views.Toast("Theme: "+theme.Current.Theme.Name, "", false)
		}

		if m.helpVisible {
			if msg.String() == "esc" || key.Matches(msg, m.keys.Help) {
				m.helpVisible = false
			}
			return m, nil
		}

		if !inputMode && key.Matches(msg, m.keys.Help) {
			m.helpVisible = true
			return m, nil
		}
	}

	// Delegate to the current screen
	var cmd tea.Cmd
	switch m.screen {
	case ScreenLogin:
		m.login, cmd = m.login.Update(msg)
	case ScreenDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	}
	return m, cmd
}

// isInputMode reports whether printable keys belong to a text field
func (m RootModel) isInputMode() bool {
	switch m.screen {
	case ScreenLogin:
		return true
	case ScreenDashboard:
		return m.dashboard.IsInputMode()
	}
	return false
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	contentHeight := m.height - 3
	var content string
	switch {
	case m.helpVisible:
		content = m.renderHelp()
	case m.screen == ScreenRestoring:
		content = lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center,
			theme.Current.Styles.Title.Render("Restoring session..."))
	case m.screen == ScreenLogin:
		content = m.login.View()
	default:
		content = m.dashboard.View()
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}

	return strings.Join([]string{m.renderHeader(), content, m.renderFooter()}, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("⭐ TASKTRACKR")

	viewStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	screenIndicator := viewStyle.Render(fmt.Sprintf("[%s]", m.screen.String()))
	themeIndicator := viewStyle.Render(fmt.Sprintf("theme: %s", t.Name))

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, screenIndicator)
	gap := m.width - lipgloss.Width(leftSide) - lipgloss.Width(themeIndicator)
	if gap < 0 {
		gap = 0
	}
	return leftSide + strings.Repeat(" ", gap) + themeIndicator
}

// renderFooter renders the toast line and the key hints
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles

	var statusLine string
	if m.toast != nil {
		style := styles.ToastInfo
		if m.toast.Error {
			style = styles.ToastError
		}
		statusLine = style.Render(m.toast.Title)
		if m.toast.Body != "" {
			statusLine += styles.HelpDesc.Render("  " + m.toast.Body)
		}
	}

	k := func(key, desc string) string {
		return styles.HelpKey.Render(key) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")

	var hints string
	switch {
	case m.helpVisible:
		hints = k("esc", "close help")
	case m.screen == ScreenLogin:
		hints = k("tab", "next field") + sep + k("enter", "submit") + sep +
			k("ctrl+n", "login/signup") + sep + k("ctrl+t", "theme") + sep + k("ctrl+c", "quit")
	case m.screen == ScreenDashboard:
		switch m.dashboard.Mode() {
		case views.DashboardModeConfirmDelete:
			hints = k("y", "delete") + sep + k("n/esc", "keep")
		case views.DashboardModeTaskForm, views.DashboardModeBoardForm:
			hints = k("enter", "save") + sep + k("esc", "cancel")
		default:
			hints = m.help.ShortHelpView(m.dashboard.Keys().ShortHelp()) + sep +
				k("?", "help") + sep + k("q", "quit")
		}
	}

	return statusLine + "\n" + hints
}

// renderHelp renders the help overlay
func (m RootModel) renderHelp() string {
	styles := theme.Current.Styles

	var b strings.Builder
	b.WriteString(styles.Title.Render("Tasktrackr Help"))
	b.WriteString("\n")

	full := m.help
	full.ShowAll = true
	b.WriteString(full.FullHelpView(m.dashboard.Keys().FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(full.FullHelpView(m.keys.FullHelp()))
	b.WriteString("\n\n")

	b.WriteString(styles.Subtitle.Render("Task form"))
	b.WriteString("\n")
	b.WriteString(styles.HelpDesc.Render("tab moves between fields, ←/→ change status and priority,"))
	b.WriteString("\n")
	b.WriteString(styles.HelpDesc.Render("due dates accept YYYY-MM-DD, today, tomorrow, friday, nextweek"))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpDesc.Render("Press ? or esc to close"))

	return styles.Panel.Render(b.String())
}

// cycleTheme switches to the next available theme
func (m *RootModel) cycleTheme() {
	theme.SetTheme(theme.Next(theme.Current.Theme.Name))
}
