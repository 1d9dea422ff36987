package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dori/tasktrackr/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()

	u, err := db.CreateUser(context.Background(), model.User{Email: email, Username: "tester"}, "hash")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return u
}

func TestRebind(t *testing.T) {
	sqlite := &DB{dialect: DialectSQLite}
	pg := &DB{dialect: DialectPostgres}

	query := "SELECT * FROM tasks WHERE id = ? AND user_id = ?"
	if got := sqlite.rebind(query); got != query {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
	want := "SELECT * FROM tasks WHERE id = $1 AND user_id = $2"
	if got := pg.rebind(query); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}

func TestUsers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u := createTestUser(t, db, "  Jotaro@JoJo.com ")
	if u.Email != "jotaro@jojo.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}

	rec, err := db.GetUserByEmail(ctx, "JOTARO@jojo.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if rec == nil || rec.ID != u.ID || rec.PasswordHash != "hash" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	missing, err := db.GetUserByEmail(ctx, "nobody@jojo.com")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing user, got %+v, %v", missing, err)
	}

	got, err := db.GetUser(ctx, u.ID)
	if err != nil || got == nil || got.Username != "tester" {
		t.Errorf("GetUser = %+v, %v", got, err)
	}

	if _, err := db.CreateUser(ctx, model.User{Email: "jotaro@jojo.com"}, "x"); err == nil {
		t.Error("expected duplicate email to fail")
	}
}

func TestBoardsOrderedOldestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "a@b.com")
	other := createTestUser(t, db, "c@d.com")

	for _, name := range []string{"Marketing", "Research", "Home"} {
		if _, err := db.CreateBoard(ctx, u.ID, model.BoardDraft{Name: name}); err != nil {
			t.Fatalf("CreateBoard failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	if _, err := db.CreateBoard(ctx, other.ID, model.BoardDraft{Name: "Other", Color: "#00bfff"}); err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}

	boards, err := db.GetBoards(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetBoards failed: %v", err)
	}
	if len(boards) != 3 {
		t.Fatalf("expected 3 boards, got %d", len(boards))
	}
	if boards[0].Name != "Marketing" || boards[2].Name != "Home" {
		t.Errorf("unexpected order: %s, %s, %s", boards[0].Name, boards[1].Name, boards[2].Name)
	}
	if boards[0].Color != model.DefaultBoardColor {
		t.Errorf("expected default color, got %q", boards[0].Color)
	}
}

func TestTaskLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "a@b.com")

	board, err := db.CreateBoard(ctx, u.ID, model.BoardDraft{Name: "Marketing"})
	if err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}

	first, err := db.CreateTask(ctx, u.ID, model.TaskDraft{Title: " First ", BoardID: board.ID})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if first.Title != "First" || first.Status != model.StatusTodo || first.Priority != model.PriorityMedium {
		t.Errorf("draft defaults not applied: %+v", first)
	}

	time.Sleep(2 * time.Millisecond)
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	second, err := db.CreateTask(ctx, u.ID, model.TaskDraft{Title: "Second", Priority: model.PriorityHigh, DueDate: &due})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	tasks, err := db.GetTasks(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetTasks failed: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != second.ID {
		t.Fatalf("expected newest task first, got %+v", tasks)
	}
	if tasks[0].DueDate == nil || !tasks[0].DueDate.Equal(due) {
		t.Errorf("due date not round-tripped: %v", tasks[0].DueDate)
	}
	if tasks[1].BoardID != board.ID {
		t.Errorf("board id not stored: %q", tasks[1].BoardID)
	}

	status := model.StatusInProgress
	updated, err := db.UpdateTask(ctx, u.ID, second.ID, model.TaskPatch{Status: &status, ClearDueDate: true})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated == nil || updated.Status != model.StatusInProgress || updated.DueDate != nil {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if updated.Title != "Second" {
		t.Errorf("untouched field changed: %q", updated.Title)
	}

	missing, err := db.UpdateTask(ctx, u.ID, "nope", model.TaskPatch{Status: &status})
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing task, got %+v, %v", missing, err)
	}

	deleted, err := db.DeleteTask(ctx, u.ID, first.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteTask = %v, %v", deleted, err)
	}
	deleted, err = db.DeleteTask(ctx, u.ID, first.ID)
	if err != nil || deleted {
		t.Errorf("second delete = %v, %v", deleted, err)
	}

	tasks, _ = db.GetTasks(ctx, u.ID)
	if len(tasks) != 1 {
		t.Errorf("expected 1 task after delete, got %d", len(tasks))
	}
}

func TestTasksScopedByOwner(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@b.com")
	intruder := createTestUser(t, db, "intruder@b.com")

	board, _ := db.CreateBoard(ctx, owner.ID, model.BoardDraft{Name: "Private"})
	task, err := db.CreateTask(ctx, owner.ID, model.TaskDraft{Title: "Secret"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if _, err := db.CreateTask(ctx, intruder.ID, model.TaskDraft{Title: "x", BoardID: board.ID}); !errors.Is(err, ErrUnknownBoard) {
		t.Errorf("expected ErrUnknownBoard, got %v", err)
	}

	tasks, _ := db.GetTasks(ctx, intruder.ID)
	if len(tasks) != 0 {
		t.Errorf("intruder sees %d tasks", len(tasks))
	}

	title := "Hijacked"
	got, err := db.UpdateTask(ctx, intruder.ID, task.ID, model.TaskPatch{Title: &title})
	if err != nil || got != nil {
		t.Errorf("intruder update = %+v, %v", got, err)
	}
	if ok, _ := db.DeleteTask(ctx, intruder.ID, task.ID); ok {
		t.Error("intruder deleted a foreign task")
	}

	stored, _ := db.GetTask(ctx, owner.ID, task.ID)
	if stored == nil || stored.Title != "Secret" {
		t.Errorf("task was modified: %+v", stored)
	}
}

func TestDeletingBoardDetachesTasks(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "a@b.com")

	board, _ := db.CreateBoard(ctx, u.ID, model.BoardDraft{Name: "Temp"})
	task, _ := db.CreateTask(ctx, u.ID, model.TaskDraft{Title: "Keep me", BoardID: board.ID})

	if _, err := db.Exec(`DELETE FROM boards WHERE id = ?`, board.ID); err != nil {
		t.Fatalf("Failed to delete board: %v", err)
	}

	stored, err := db.GetTask(ctx, u.ID, task.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetTask = %+v, %v", stored, err)
	}
	if stored.BoardID != "" {
		t.Errorf("expected task to be detached, board id %q", stored.BoardID)
	}
}
