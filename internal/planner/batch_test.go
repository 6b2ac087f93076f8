package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/store"
)

func seedTasks(t *testing.T, svc *Service, titles ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(titles))
	for _, title := range titles {
		task := mustCreate(t, svc, CreateTaskInput{Title: title, Status: models.TaskStatusActive, Tags: []string{"home"}})
		ids = append(ids, task.ID)
	}
	return ids
}

func TestBulkMove(t *testing.T) {
	svc := newTestService(t, newTestStore(t), nil)
	ctx := context.Background()
	ids := seedTasks(t, svc, "a", "b")

	res, err := svc.BulkMove(ctx, ids, MoveTarget{ProjectID: models.Some(models.StringPtr("garden"))})
	if err != nil {
		t.Fatalf("BulkMove failed: %v", err)
	}
	if res.Count != 2 || len(res.Tasks) != 2 {
		t.Fatalf("Expected 2 moved tasks, got %+v", res)
	}
	for _, task := range res.Tasks {
		if task.ProjectID == nil || *task.ProjectID != "garden" {
			t.Errorf("Expected project garden on %s, got %v", task.ID, task.ProjectID)
		}
	}

	res, err = svc.BulkMove(ctx, ids[:1], MoveTarget{ProjectID: models.Some[*string](nil)})
	if err != nil {
		t.Fatalf("BulkMove clear failed: %v", err)
	}
	if res.Tasks[0].ProjectID != nil {
		t.Error("Expected explicit null to clear the project")
	}

	if _, err := svc.BulkMove(ctx, ids, MoveTarget{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty move, got %v", err)
	}
}

func TestBulkTag(t *testing.T) {
	svc := newTestService(t, newTestStore(t), nil)
	ctx := context.Background()
	ids := seedTasks(t, svc, "a", "b")

	res, err := svc.BulkTag(ctx, ids, []string{"errand", "home"}, []string{"home"})
	if err != nil {
		t.Fatalf("BulkTag failed: %v", err)
	}
	for _, task := range res.Tasks {
		if len(task.Tags) != 1 || task.Tags[0] != "errand" {
			t.Errorf("Expected only errand on %s, got %v", task.ID, task.Tags)
		}
	}
}

func TestBulkSchedule(t *testing.T) {
	svc := newTestService(t, newTestStore(t), nil)
	ctx := context.Background()
	ids := seedTasks(t, svc, "a", "b", "c")

	if _, err := svc.BulkSchedule(ctx, ids, models.StringPtr("2024-01-10")); err != nil {
		t.Fatalf("BulkSchedule failed: %v", err)
	}
	view, err := svc.Bucket(ctx, BucketToday)
	if err != nil {
		t.Fatalf("Bucket failed: %v", err)
	}
	if len(view.Tasks) != 3 {
		t.Errorf("Expected 3 tasks scheduled today, got %d", len(view.Tasks))
	}

	if _, err := svc.BulkSchedule(ctx, ids, models.StringPtr("tomorrow")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for bad date, got %v", err)
	}
}

func TestBulkSetStatusSpawnsAfterCommit(t *testing.T) {
	svc := newTestService(t, newTestStore(t), nil)
	ctx := context.Background()

	plain := mustCreate(t, svc, CreateTaskInput{Title: "plain", Status: models.TaskStatusActive})
	repeat := mustCreate(t, svc, CreateTaskInput{
		Title:         "repeat",
		Status:        models.TaskStatusActive,
		DueDate:       models.StringPtr("2024-01-10"),
		RecurringRule: &models.RecurringRule{Frequency: models.FrequencyWeekly, Interval: 1},
	})

	res, err := svc.BulkSetStatus(ctx, []string{plain.ID, repeat.ID}, models.TaskStatusCompleted)
	if err != nil {
		t.Fatalf("BulkSetStatus failed: %v", err)
	}
	if len(res.Spawned) != 1 || *res.Spawned[0].DueDate != "2024-01-17" {
		t.Errorf("Expected one weekly follow-up on 2024-01-17, got %+v", res.Spawned)
	}
	for _, task := range res.Tasks {
		if task.CompletedAt == nil {
			t.Errorf("Expected completedAt on %s", task.ID)
		}
	}

	if _, err := svc.BulkSetStatus(ctx, []string{plain.ID}, "paused"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestBatchIsAtomic(t *testing.T) {
	svc := newTestService(t, newTestStore(t), nil)
	ctx := context.Background()
	ids := seedTasks(t, svc, "a", "b")

	_, err := svc.BulkSchedule(ctx, append(ids, "missing"), models.StringPtr("2024-02-01"))
	if !errors.Is(err, store.ErrTaskNotFound) {
		t.Fatalf("Expected ErrTaskNotFound, got %v", err)
	}
	for _, id := range ids {
		task, err := svc.GetTask(ctx, id)
		if err != nil {
			t.Fatalf("GetTask failed: %v", err)
		}
		if task.ScheduledDate != nil {
			t.Errorf("Expected rollback to leave %s unscheduled, got %s", id, *task.ScheduledDate)
		}
	}

	_, err = svc.BulkDelete(ctx, []string{ids[0], "missing"})
	if !errors.Is(err, store.ErrTaskNotFound) {
		t.Fatalf("Expected ErrTaskNotFound, got %v", err)
	}
	if _, err := svc.GetTask(ctx, ids[0]); err != nil {
		t.Errorf("Expected delete to roll back, got %v", err)
	}
}

func TestBatchDispatch(t *testing.T) {
	svc := newTestService(t, newTestStore(t), nil)
	ctx := context.Background()
	ids := seedTasks(t, svc, "a", "b")

	res, err := svc.Batch(ctx, BatchRequest{Op: OpDelete, IDs: append(ids, ids[0])})
	if err != nil {
		t.Fatalf("Batch delete failed: %v", err)
	}
	if res.Count != 2 {
		t.Errorf("Expected duplicate ids collapsed to 2, got %d", res.Count)
	}
	all, err := svc.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Expected no tasks left, got %d", len(all))
	}

	tests := []struct {
		name string
		req  BatchRequest
	}{
		{"unknown op", BatchRequest{Op: "archive", IDs: []string{"x"}}},
		{"no ids", BatchRequest{Op: OpDelete}},
		{"bad date", BatchRequest{Op: OpSchedule, IDs: []string{"x"}, ScheduledDate: models.StringPtr("01/02/2024")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Batch(ctx, tt.req); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
