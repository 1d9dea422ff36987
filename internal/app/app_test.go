package app

import (
	"context"
	"io"
	"testing"

	"github.com/dori/tasktrackr/internal/backend"
	"github.com/dori/tasktrackr/internal/config"
	"github.com/dori/tasktrackr/internal/model"
)

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Backend.Mode = mode
	return cfg
}

func TestNewSQLite(t *testing.T) {
	a, err := New(testConfig(t, config.ModeSQLite), Options{Lock: true, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if _, ok := a.Backend.(*backend.Local); !ok {
		t.Fatalf("expected a Local backend, got %T", a.Backend)
	}

	ctx := context.Background()
	u, err := a.Auth.Signup(ctx, "jotaro@jojo.com", "starplatinum", "Jotaro")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if err := a.Tasks.Load(ctx, u); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := a.Tasks.CreateBoard(ctx, model.BoardDraft{Name: "Stardust"}); err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}

	a.Auth.Logout(ctx)
	if len(a.Tasks.Boards()) != 0 {
		t.Error("logout did not reset task state")
	}
}

func TestSingleInstanceLock(t *testing.T) {
	cfg := testConfig(t, config.ModeDemo)

	first, err := New(cfg, Options{Lock: true, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer first.Close()

	if _, err := New(cfg, Options{Lock: true, LogOutput: io.Discard}); err == nil {
		t.Error("expected second locked instance to fail")
	}

	// Unlocked commands such as quick add may run alongside the TUI
	second, err := New(cfg, Options{LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("unlocked New failed: %v", err)
	}
	second.Close()
}

func TestLegacyModeUsesBundles(t *testing.T) {
	a, err := New(testConfig(t, config.ModeLegacy), Options{LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	u, err := a.Auth.Login(ctx, "dio@jojo.com", "theworld")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	a.Tasks.Load(ctx, u)
	if _, err := a.Tasks.CreateTask(ctx, model.TaskDraft{Title: "ZA WARUDO"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if b := a.Session.LoadBundle(u.ID); len(b.Tasks) != 1 {
		t.Errorf("expected task in bundle, got %+v", b)
	}
}

func TestRemoteModeRequiresURL(t *testing.T) {
	cfg := testConfig(t, config.ModeRemote)
	cfg.Backend.URL = "::not a url"
	if _, err := New(cfg, Options{LogOutput: io.Discard}); err == nil {
		t.Error("expected an error for a bad backend url")
	}
}
