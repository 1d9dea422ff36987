package ui

import (
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/tasktrackr/internal/app"
	"github.com/dori/tasktrackr/internal/config"
	"github.com/dori/tasktrackr/internal/model"
	"github.com/dori/tasktrackr/internal/ui/theme"
	"github.com/dori/tasktrackr/internal/ui/views"
)

func newTestRoot(t *testing.T) RootModel {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Backend.Mode = config.ModeDemo
	a, err := app.New(cfg, app.Options{LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	m := NewRootModel(a)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(RootModel)
}

func TestRootStartsOnLoginWithoutSession(t *testing.T) {
	m := newTestRoot(t)
	if m.Screen() != ScreenRestoring {
		t.Fatalf("expected restoring screen, got %s", m.Screen())
	}

	next, _ := m.Update(sessionRestoredMsg{})
	m = next.(RootModel)
	if m.Screen() != ScreenLogin {
		t.Fatalf("expected login screen, got %s", m.Screen())
	}
	if !strings.Contains(m.View(), views.DemoHint) {
		t.Error("login screen should show the demo hint")
	}
}

func TestRootRoutesLoginAndLogout(t *testing.T) {
	m := newTestRoot(t)
	next, _ := m.Update(sessionRestoredMsg{})
	m = next.(RootModel)

	next, cmd := m.Update(views.LoggedInMsg{User: model.User{ID: "1", Email: "jotaro@jojo.com"}})
	m = next.(RootModel)
	if m.Screen() != ScreenDashboard || cmd == nil {
		t.Fatalf("expected dashboard with a load command, got %s", m.Screen())
	}

	next, cmd = m.Update(views.LoggedOutMsg{})
	m = next.(RootModel)
	if m.Screen() != ScreenLogin {
		t.Fatalf("expected login screen after logout, got %s", m.Screen())
	}
	toast, ok := cmd().(views.ToastMsg)
	if !ok || toast.Title != "Za Warudo!" {
		t.Fatalf("unexpected logout toast %+v", toast)
	}

	next, _ = m.Update(toast)
	m = next.(RootModel)
	if !strings.Contains(m.View(), "Za Warudo!") {
		t.Error("footer should show the toast")
	}

	next, _ = m.Update(toastExpiredMsg{id: m.toastID})
	m = next.(RootModel)
	if m.toast != nil {
		t.Error("toast should expire")
	}
}

func TestRootQuitKeys(t *testing.T) {
	m := newTestRoot(t)
	next, _ := m.Update(sessionRestoredMsg{})
	m = next.(RootModel)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should produce a quit message")
	}
}

func TestRootThemeCycle(t *testing.T) {
	m := newTestRoot(t)
	before := theme.Current.Theme.Name
	t.Cleanup(func() { theme.SetTheme(theme.Stardust) })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	if theme.Current.Theme.Name == before {
		t.Error("ctrl+t should switch theme")
	}
	toast, ok := cmd().(views.ToastMsg)
	if !ok || !strings.HasPrefix(toast.Title, "Theme: ") {
		t.Errorf("unexpected theme toast %+v", toast)
	}
}
