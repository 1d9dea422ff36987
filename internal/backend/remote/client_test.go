package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dori/tasktrackr/internal/backend"
	"github.com/dori/tasktrackr/internal/model"
	"github.com/dori/tasktrackr/internal/server"
	"github.com/sirupsen/logrus"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	srv := httptest.NewServer(server.New(backend.NewMemory(), logrus.NewEntry(logger)).RegisterRoutes())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("not a url", 0); err == nil {
		t.Error("expected an error for a relative url")
	}
}

func TestClientAgainstServer(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.SignIn(ctx, "jotaro@jojo.com", "wrong"); !errors.Is(err, backend.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	sess, err := c.SignIn(ctx, "jotaro@jojo.com", "starplatinum")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if sess.User.StandName != "Star Platinum" {
		t.Errorf("unexpected user: %+v", sess.User)
	}

	if _, err := c.ListTasks(ctx, sess.User.ID); !errors.Is(err, backend.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized without a token, got %v", err)
	}

	c.SetAccessToken(sess.AccessToken)

	u, err := c.GetUser(ctx, sess.AccessToken)
	if err != nil || u.ID != sess.User.ID {
		t.Fatalf("GetUser = %+v, %v", u, err)
	}

	board, err := c.InsertBoard(ctx, u.ID, model.BoardDraft{Name: "Stardust Crusaders", Color: "#ffd700"})
	if err != nil {
		t.Fatalf("InsertBoard failed: %v", err)
	}
	task, err := c.InsertTask(ctx, u.ID, model.TaskDraft{Title: "Reach Egypt", BoardID: board.ID, Priority: model.PriorityHigh})
	if err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	if task.BoardID != board.ID || task.Status != model.StatusTodo {
		t.Errorf("unexpected task: %+v", task)
	}

	if _, err := c.InsertTask(ctx, u.ID, model.TaskDraft{Title: "   "}); !errors.Is(err, backend.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	progress := model.StatusInProgress
	updated, err := c.UpdateTask(ctx, u.ID, task.ID, model.TaskPatch{Status: &progress})
	if err != nil || updated.Status != model.StatusInProgress {
		t.Fatalf("UpdateTask = %+v, %v", updated, err)
	}

	boards, _ := c.ListBoards(ctx, u.ID)
	tasks, _ := c.ListTasks(ctx, u.ID)
	if len(boards) != 1 || len(tasks) != 1 {
		t.Errorf("expected 1 board and 1 task, got %d and %d", len(boards), len(tasks))
	}

	if err := c.DeleteTask(ctx, u.ID, task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if err := c.DeleteTask(ctx, u.ID, task.ID); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := c.SignOut(ctx, sess.AccessToken); err != nil {
		t.Errorf("SignOut failed: %v", err)
	}
	if c.accessToken() != "" {
		t.Error("expected token to be forgotten after sign out")
	}
}

func TestSignUpConflict(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.SignUp(ctx, "dio@jojo.com", "zawarudo", "DIO"); !errors.Is(err, backend.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	sess, err := c.SignUp(ctx, "polnareff@jojo.com", "silverchariot", "Polnareff")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if sess.AccessToken == "" || sess.User.AvatarEmoji == "" {
		t.Errorf("incomplete session: %+v", sess)
	}
}

func TestErrorFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := New(srv.URL, time.Second)
	err := c.DeleteTask(context.Background(), "1", "x")
	if !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("expected ErrNotFound from a bare 404, got %v", err)
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("expected *Error with status 404, got %#v", err)
	}
}
