package cli

import (
	"bytes"
	"strings"
	"testing"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TASKTRACKR_NOTIFICATIONS_DESKTOP", "false")
	return t.TempDir()
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("1.2.3")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != "tasktrackr v1.2.3\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	dir := setupEnv(t)
	base := []string{"--mode", "legacy", "--data-dir", dir}

	if _, err := run(t, "", append(base, "whoami")...); err == nil {
		t.Fatal("whoami before login should fail")
	}

	out, err := run(t, "starplatinum\n", append(base, "login", "--email", "jotaro@jojo.com")...)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "ORA ORA! Welcome back!") {
		t.Errorf("login output missing greeting: %q", out)
	}

	out, err = run(t, "", append(base, "whoami")...)
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "<jotaro@jojo.com>") || !strings.Contains(out, "Stand:") {
		t.Errorf("unexpected whoami output %q", out)
	}

	out, err = run(t, "", append(base, "logout")...)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(out, "logged out") {
		t.Errorf("unexpected logout output %q", out)
	}

	if _, err := run(t, "", append(base, "whoami")...); err == nil {
		t.Fatal("whoami after logout should fail")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	dir := setupEnv(t)

	_, err := run(t, "", "--mode", "demo", "--data-dir", dir,
		"login", "--email", "jotaro@jojo.com", "--password", "wrongpass")
	if err == nil || !strings.Contains(err.Error(), "login failed") {
		t.Fatalf("expected login failure, got %v", err)
	}
}

func TestAddAndBoards(t *testing.T) {
	dir := setupEnv(t)
	base := []string{"--mode", "legacy", "--data-dir", dir}

	if _, err := run(t, "", append(base, "add", "too early")...); err == nil {
		t.Fatal("add without a session should fail")
	}

	if _, err := run(t, "", append(base, "login", "--email", "dio@jojo.com", "--password", "theworld")...); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := run(t, "", append(base, "boards")...)
	if err != nil {
		t.Fatalf("boards: %v", err)
	}
	if !strings.Contains(out, "No boards yet") {
		t.Errorf("expected empty board list, got %q", out)
	}

	if _, err := run(t, "", append(base, "boards", "add", "Marketing", "--color", "#10B981")...); err != nil {
		t.Fatalf("boards add: %v", err)
	}

	out, err = run(t, "", append(base, "add", "Write", "report", "!high", "due:2030-01-15", "#marketing")...)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	for _, want := range []string{"Created: Write report", "Priority: high", "Board: Marketing", "Due:"} {
		if !strings.Contains(out, want) {
			t.Errorf("add output missing %q: %q", want, out)
		}
	}

	if _, err := run(t, "", append(base, "add", "--status", "done", "Ship it")...); err != nil {
		t.Fatalf("add done: %v", err)
	}

	out, err = run(t, "", append(base, "boards")...)
	if err != nil {
		t.Fatalf("boards: %v", err)
	}
	if !strings.Contains(out, "* Marketing") || !strings.Contains(out, "todo:1") || !strings.Contains(out, "done:1") {
		t.Errorf("unexpected board listing %q", out)
	}

	if _, err := run(t, "", append(base, "add", "Lost", "#nowhere")...); err == nil {
		t.Error("add to an unknown board should fail")
	}
}

func TestServeRejectsRemoteMode(t *testing.T) {
	dir := setupEnv(t)
	t.Setenv("TASKTRACKR_BACKEND_URL", "http://127.0.0.1:1")

	_, err := run(t, "", "--mode", "remote", "--data-dir", dir, "serve")
	if err == nil || !strings.Contains(err.Error(), "not remote mode") {
		t.Fatalf("expected remote mode to be rejected, got %v", err)
	}
}

func TestServeRejectsInMemoryModes(t *testing.T) {
	for _, mode := range []string{"demo", "legacy"} {
		t.Run(mode, func(t *testing.T) {
			dir := setupEnv(t)

			_, err := run(t, "", "--mode", mode, "--data-dir", dir, "serve", "--addr", "127.0.0.1:0")
			if err == nil || !strings.Contains(err.Error(), "not "+mode+" mode") {
				t.Fatalf("expected %s mode to be rejected, got %v", mode, err)
			}
		})
	}
}
