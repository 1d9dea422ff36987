package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dori/tasktrackr/internal/model"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPostgresRoundTrip runs the row store against a throwaway Postgres container.
// Set TASKTRACKR_PG_TESTS=1 to enable it; it needs a Docker daemon.
func TestPostgresRoundTrip(t *testing.T) {
	if os.Getenv("TASKTRACKR_PG_TESTS") == "" {
		t.Skip("set TASKTRACKR_PG_TESTS=1 to run Postgres integration tests")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tasktrackr"),
		postgres.WithUsername("tasktrackr"),
		postgres.WithPassword("tasktrackr"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	db, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if db.Dialect() != DialectPostgres {
		t.Fatalf("unexpected dialect %q", db.Dialect())
	}

	u, err := db.CreateUser(ctx, model.User{Email: "dio@jojo.com", Username: "DIO"}, "hash")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	board, err := db.CreateBoard(ctx, u.ID, model.BoardDraft{Name: "Research"})
	if err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}
	task, err := db.CreateTask(ctx, u.ID, model.TaskDraft{Title: "Muda", BoardID: board.ID})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	done := model.StatusDone
	updated, err := db.UpdateTask(ctx, u.ID, task.ID, model.TaskPatch{Status: &done})
	if err != nil || updated == nil || updated.Status != model.StatusDone {
		t.Fatalf("UpdateTask = %+v, %v", updated, err)
	}
	if !updated.CreatedAt.Equal(task.CreatedAt) {
		t.Errorf("created_at changed: %v vs %v", updated.CreatedAt, task.CreatedAt)
	}

	tasks, err := db.GetTasks(ctx, u.ID)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("GetTasks = %d, %v", len(tasks), err)
	}
}
