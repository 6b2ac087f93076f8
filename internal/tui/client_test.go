package tui

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/planner"
	"github.com/fentz26/cadence/internal/store"
)

func newTestAPI(t *testing.T) *Client {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc := planner.NewService(st, planner.Options{
		Clock: func() time.Time { return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC) },
	})
	ts := httptest.NewServer(planner.NewServer(svc, planner.ServerOptions{}).Handler())
	t.Cleanup(ts.Close)

	// Exercise the scheme defaulting.
	return NewClient(strings.TrimPrefix(ts.URL, "http://"))
}

func TestClientRoundTrip(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()

	if err := c.Health(ctx); err != nil {
		t.Fatalf("Health failed: %v", err)
	}

	task, err := c.CreateTask(ctx, planner.CreateTaskInput{
		Title:         "Water plants",
		Status:        models.TaskStatusActive,
		DueDate:       models.StringPtr("2024-01-10"),
		RecurringRule: &models.RecurringRule{Frequency: models.FrequencyDaily, Interval: 2},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	view, err := c.Bucket(ctx, planner.BucketToday)
	if err != nil {
		t.Fatalf("Bucket failed: %v", err)
	}
	if view.Date != "2024-01-10" || len(view.Tasks) != 1 || view.Tasks[0].ID != task.ID {
		t.Errorf("Unexpected today view %+v", view)
	}

	res, err := c.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if res.Next == nil || *res.Next.DueDate != "2024-01-12" {
		t.Errorf("Expected next occurrence on 2024-01-12, got %+v", res.Next)
	}

	got, err := c.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Status != models.TaskStatusCompleted {
		t.Errorf("Expected completed, got %s", got.Status)
	}

	history, err := c.History(ctx, task.ID, 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) < 2 {
		t.Errorf("Expected create and complete records, got %d", len(history))
	}

	reopened, err := c.ReopenTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("ReopenTask failed: %v", err)
	}
	if reopened.Status != models.TaskStatusActive || reopened.CompletedAt != nil {
		t.Errorf("Expected active task without completion time, got %+v", reopened)
	}

	if err := c.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
}

func TestClientErrors(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()

	_, err := c.GetTask(ctx, "missing")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected 404 error, got %v", err)
	}

	_, err = c.Bucket(ctx, "nowhere")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected 404 for unknown bucket, got %v", err)
	}

	_, err = c.CreateTask(ctx, planner.CreateTaskInput{Title: "x", DueTime: models.StringPtr("25:00")})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("Expected 400 for bad time, got %v", err)
	}
}

func TestClientDrivesApp(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()
	if _, err := c.CreateTask(ctx, planner.CreateTaskInput{Title: "Someday idea"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	a := New(c, Options{})
	a.tabIdx = 6 // someday
	a.Update(a.loadBucket()())
	if a.Bucket() != planner.BucketSomeday || a.list.Len() != 1 {
		t.Errorf("Expected one someday task, got %d in %s", a.list.Len(), a.Bucket())
	}
}
