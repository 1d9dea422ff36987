package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dori/tasktrackr/internal/auth"
	"github.com/dori/tasktrackr/internal/db"
	"github.com/dori/tasktrackr/internal/model"
	"github.com/dori/tasktrackr/internal/session"
	"golang.org/x/crypto/bcrypt"
)

func newLocal(t *testing.T) Backend {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewLocal(database, auth.NewIssuer([]byte("test-secret"), time.Hour), WithHashCost(bcrypt.MinCost))
}

func newMemory(t *testing.T) Backend {
	return NewMemory()
}

func newLegacy(t *testing.T) Backend {
	t.Helper()
	store, err := session.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return NewMemory(WithBundleStore(store))
}

var implementations = map[string]func(*testing.T) Backend{
	"local":  newLocal,
	"memory": newMemory,
	"legacy": newLegacy,
}

func TestAuthContract(t *testing.T) {
	for name, newBackend := range implementations {
		t.Run(name, func(t *testing.T) {
			b := newBackend(t)
			ctx := context.Background()

			sess, err := b.SignUp(ctx, "giorno@jojo.com", "goldexperience", "Giorno")
			if err != nil {
				t.Fatalf("SignUp failed: %v", err)
			}
			if sess.AccessToken == "" || sess.User.ID == "" || sess.User.StandName == "" {
				t.Fatalf("incomplete session: %+v", sess)
			}

			if _, err := b.SignUp(ctx, "GIORNO@jojo.com", "goldexperience", "Giorno"); !errors.Is(err, ErrEmailTaken) {
				t.Errorf("expected ErrEmailTaken, got %v", err)
			}
			if _, err := b.SignUp(ctx, "bad", "goldexperience", "Giorno"); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}

			if _, err := b.SignIn(ctx, "giorno@jojo.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
			if _, err := b.SignIn(ctx, "nobody@jojo.com", "goldexperience"); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
			}

			signedIn, err := b.SignIn(ctx, "giorno@jojo.com", "goldexperience")
			if err != nil {
				t.Fatalf("SignIn failed: %v", err)
			}

			u, err := b.GetUser(ctx, signedIn.AccessToken)
			if err != nil {
				t.Fatalf("GetUser failed: %v", err)
			}
			if u.ID != sess.User.ID || u.Username != "Giorno" {
				t.Errorf("unexpected user: %+v", u)
			}

			if _, err := b.GetUser(ctx, "garbage"); !errors.Is(err, ErrUnauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
			if err := b.SignOut(ctx, signedIn.AccessToken); err != nil {
				t.Errorf("SignOut failed: %v", err)
			}
		})
	}
}

func TestRowsContract(t *testing.T) {
	for name, newBackend := range implementations {
		t.Run(name, func(t *testing.T) {
			b := newBackend(t)
			ctx := context.Background()

			sess, err := b.SignUp(ctx, "josuke@jojo.com", "crazydiamond", "Josuke")
			if err != nil {
				t.Fatalf("SignUp failed: %v", err)
			}
			userID := sess.User.ID

			if _, err := b.InsertBoard(ctx, userID, model.BoardDraft{Name: "  "}); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for blank board, got %v", err)
			}
			board, err := b.InsertBoard(ctx, userID, model.BoardDraft{Name: "Morioh"})
			if err != nil {
				t.Fatalf("InsertBoard failed: %v", err)
			}
			if board.Color != model.DefaultBoardColor {
				t.Errorf("expected default color, got %q", board.Color)
			}

			boards, err := b.ListBoards(ctx, userID)
			if err != nil || len(boards) != 1 {
				t.Fatalf("ListBoards = %v, %v", boards, err)
			}

			if _, err := b.InsertTask(ctx, userID, model.TaskDraft{Title: ""}); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for blank title, got %v", err)
			}
			if _, err := b.InsertTask(ctx, userID, model.TaskDraft{Title: "x", BoardID: "missing"}); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for unknown board, got %v", err)
			}

			first, err := b.InsertTask(ctx, userID, model.TaskDraft{Title: "Find Kira", BoardID: board.ID})
			if err != nil {
				t.Fatalf("InsertTask failed: %v", err)
			}
			time.Sleep(2 * time.Millisecond)
			second, err := b.InsertTask(ctx, userID, model.TaskDraft{Title: "Fix the bike"})
			if err != nil {
				t.Fatalf("InsertTask failed: %v", err)
			}

			tasks, err := b.ListTasks(ctx, userID)
			if err != nil || len(tasks) != 2 {
				t.Fatalf("ListTasks = %v, %v", tasks, err)
			}
			if tasks[0].ID != second.ID || tasks[1].ID != first.ID {
				t.Errorf("expected newest first")
			}

			done := model.StatusDone
			updated, err := b.UpdateTask(ctx, userID, first.ID, model.TaskPatch{Status: &done})
			if err != nil {
				t.Fatalf("UpdateTask failed: %v", err)
			}
			if updated.Status != model.StatusDone || updated.Title != "Find Kira" {
				t.Errorf("unexpected update: %+v", updated)
			}
			if _, err := b.UpdateTask(ctx, userID, "missing", model.TaskPatch{Status: &done}); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if _, err := b.UpdateTask(ctx, userID, first.ID, model.TaskPatch{}); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for empty patch, got %v", err)
			}

			other, _ := b.SignUp(ctx, "kira@jojo.com", "killerqueen", "Kira")
			if err := b.DeleteTask(ctx, other.User.ID, first.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound deleting a foreign task, got %v", err)
			}
			if foreign, _ := b.ListTasks(ctx, other.User.ID); len(foreign) != 0 {
				t.Errorf("other user sees %d tasks", len(foreign))
			}

			if err := b.DeleteTask(ctx, userID, first.ID); err != nil {
				t.Fatalf("DeleteTask failed: %v", err)
			}
			if err := b.DeleteTask(ctx, userID, first.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound on second delete, got %v", err)
			}
			tasks, _ = b.ListTasks(ctx, userID)
			if len(tasks) != 1 {
				t.Errorf("expected 1 task, got %d", len(tasks))
			}
		})
	}
}

func TestMemoryDemoUsers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sess, err := m.SignIn(ctx, "jotaro@jojo.com", "starplatinum")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if sess.User.ID != "1" || sess.User.Username != "Jotaro Kujo" || sess.User.StandName != "Star Platinum" {
		t.Errorf("unexpected demo user: %+v", sess.User)
	}

	dio, err := m.SignIn(ctx, "dio@jojo.com", "theworld")
	if err != nil || dio.User.StandName != "The World" {
		t.Errorf("SignIn(dio) = %+v, %v", dio, err)
	}

	u, err := m.GetUser(ctx, sess.AccessToken)
	if err != nil || u.ID != "1" {
		t.Errorf("GetUser = %+v, %v", u, err)
	}

	// Without a bundle store, tokens die with the process
	restarted := NewMemory()
	if _, err := restarted.GetUser(ctx, sess.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized after restart, got %v", err)
	}
}

func TestMemoryRejectsUnissuedTokens(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, token := range []string{"mock_jwt_1_0", "mock_jwt_2_1700000000000", "mock_jwt_1_"} {
		if u, err := m.GetUser(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("GetUser(%q) = %+v, %v; want ErrUnauthorized", token, u, err)
		}
	}

	sess, err := m.SignIn(ctx, "jotaro@jojo.com", "starplatinum")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if err := m.SignOut(ctx, sess.AccessToken); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if _, err := m.GetUser(ctx, sess.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized after sign out, got %v", err)
	}
}

func TestLegacyStoredSessionSurvivesRestart(t *testing.T) {
	store, err := session.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	ctx := context.Background()

	sess, err := NewMemory(WithBundleStore(store)).SignIn(ctx, "dio@jojo.com", "theworld")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if err := store.SaveSession(*sess); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	restarted := NewMemory(WithBundleStore(store))
	if u, err := restarted.GetUser(ctx, sess.AccessToken); err != nil || u.ID != "2" {
		t.Errorf("GetUser for the stored session = %+v, %v", u, err)
	}
	if _, err := restarted.GetUser(ctx, "mock_jwt_1_0"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for a token that is not stored, got %v", err)
	}
}

func TestLegacyBundleSurvivesRestart(t *testing.T) {
	store, err := session.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	ctx := context.Background()

	m := NewMemory(WithBundleStore(store))
	board, _ := m.InsertBoard(ctx, "1", model.BoardDraft{Name: "Egypt"})
	if _, err := m.InsertTask(ctx, "1", model.TaskDraft{Title: "Reach Cairo", BoardID: board.ID}); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	if err := store.SaveActiveBoard("1", board.ID); err != nil {
		t.Fatalf("SaveActiveBoard failed: %v", err)
	}
	if _, err := m.InsertTask(ctx, "1", model.TaskDraft{Title: "Defeat DIO"}); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}

	restarted := NewMemory(WithBundleStore(store))
	tasks, _ := restarted.ListTasks(ctx, "1")
	boards, _ := restarted.ListBoards(ctx, "1")
	if len(tasks) != 2 || len(boards) != 1 {
		t.Fatalf("expected 2 tasks and 1 board, got %d and %d", len(tasks), len(boards))
	}
	if got := store.ActiveBoard("1"); got != board.ID {
		t.Errorf("active board overwritten: %q", got)
	}
}

func TestLegacySignupsGetFreshIDs(t *testing.T) {
	store, err := session.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	ctx := context.Background()

	m := NewMemory(WithBundleStore(store))
	giorno, err := m.SignUp(ctx, "giorno@jojo.com", "goldexperience", "Giorno")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if _, err := m.InsertTask(ctx, giorno.User.ID, model.TaskDraft{Title: "Become a Gang-Star"}); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}

	restarted := NewMemory(WithBundleStore(store))
	josuke, err := restarted.SignUp(ctx, "josuke@jojo.com", "crazydiamond", "Josuke")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if josuke.User.ID == giorno.User.ID {
		t.Fatalf("signup after restart reused id %q", josuke.User.ID)
	}
	tasks, err := restarted.ListTasks(ctx, josuke.User.ID)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("new account sees %d tasks of another account", len(tasks))
	}
}

func TestCodes(t *testing.T) {
	for _, sentinel := range []error{ErrInvalidCredentials, ErrEmailTaken, ErrUnauthorized, ErrNotFound, ErrInvalidInput} {
		wrapped := withContext(sentinel)
		if got := FromCode(Code(wrapped)); !errors.Is(got, sentinel) {
			t.Errorf("code round trip for %v gave %v", sentinel, got)
		}
	}
	if Code(errors.New("boom")) != "internal" {
		t.Error("expected unknown errors to map to internal")
	}
	if FromCode("internal") != nil {
		t.Error("expected no sentinel for internal")
	}
}

func withContext(err error) error {
	return errors.Join(errors.New("context"), err)
}
