package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/fentz26/cadence/internal/models"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	s, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		s, err := New(dbPath, nil)
		if err != nil {
			t.Fatalf("open #%d failed: %v", i+1, err)
		}
		s.Close()
	}
}

func TestTaskRoundTripsEveryField(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	task := fullTask("t1")
	if err := s.InsertTask(ctx, task); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}

	got, err := s.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected task, got nil")
	}
	if !got.CreatedAt.Equal(task.CreatedAt) || !got.CompletedAt.Equal(*task.CompletedAt) {
		t.Errorf("Timestamps changed: %v %v", got.CreatedAt, got.CompletedAt)
	}

	// Compare everything else field by field via a normalized copy.
	got.CreatedAt, got.UpdatedAt, got.CompletedAt = task.CreatedAt, task.UpdatedAt, task.CompletedAt
	if !reflect.DeepEqual(*got, task) {
		t.Errorf("Round trip mismatch:\n got  %+v\n want %+v", *got, task)
	}
}

func TestGetMissingTask(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	got, err := s.GetTask(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing task, got %+v", got)
	}
}

func TestListQueries(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	mk := func(id string, i int, mut func(*models.Task)) {
		task := models.NewTask(id, id, base.Add(time.Duration(i)*time.Minute))
		mut(&task)
		if err := s.InsertTask(ctx, task); err != nil {
			t.Fatalf("InsertTask %s failed: %v", id, err)
		}
	}
	mk("due", 0, func(t *models.Task) { t.Status = models.TaskStatusActive; t.DueDate = models.StringPtr("2024-01-05") })
	mk("sched", 1, func(t *models.Task) { t.ScheduledDate = models.StringPtr("2024-01-06") })
	mk("outside", 2, func(t *models.Task) { t.DueDate = models.StringPtr("2024-02-01") })
	mk("child", 3, func(t *models.Task) { t.ParentID = models.StringPtr("due"); t.ProjectID = models.StringPtr("p1") })
	mk("done", 4, func(t *models.Task) {
		t.SetStatus(models.TaskStatusCompleted, base)
		t.ProjectID = models.StringPtr("p1")
	})

	all, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if ids := taskIDs(all); !reflect.DeepEqual(ids, []string{"due", "sched", "outside", "child", "done"}) {
		t.Errorf("Unexpected ListTasks order: %v", ids)
	}

	inRange, err := s.ListByDateRange(ctx, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("ListByDateRange failed: %v", err)
	}
	if ids := taskIDs(inRange); !reflect.DeepEqual(ids, []string{"due", "sched"}) {
		t.Errorf("Expected due and sched in range, got %v", ids)
	}

	inverted, err := s.ListByDateRange(ctx, "2024-01-31", "2024-01-01")
	if err != nil {
		t.Fatalf("ListByDateRange inverted failed: %v", err)
	}
	if len(inverted) != 0 {
		t.Errorf("Expected no tasks for inverted range, got %d", len(inverted))
	}

	open, err := s.ListByStatus(ctx, models.TaskStatusInbox, models.TaskStatusActive)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(open) != 4 {
		t.Errorf("Expected 4 open tasks, got %d", len(open))
	}

	project, err := s.ListByProject(ctx, "p1")
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if ids := taskIDs(project); !reflect.DeepEqual(ids, []string{"child", "done"}) {
		t.Errorf("Unexpected project tasks: %v", ids)
	}

	children, err := s.ListByParent(ctx, "due")
	if err != nil {
		t.Fatalf("ListByParent failed: %v", err)
	}
	if ids := taskIDs(children); !reflect.DeepEqual(ids, []string{"child"}) {
		t.Errorf("Unexpected children: %v", ids)
	}
}

func TestUpdateTask(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	task := models.NewTask("t1", "Draft", created)
	task.DueDate = models.StringPtr("2024-01-05")
	if err := s.InsertTask(ctx, task); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}

	now := created.Add(time.Hour)
	patch := models.TaskPatch{
		Title:   models.Some("Final"),
		DueDate: models.Some[*string](nil),
		Status:  models.Some(models.TaskStatusCompleted),
	}
	updated, err := s.UpdateTask(ctx, "t1", patch, now)
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Title != "Final" || updated.DueDate != nil {
		t.Errorf("Patch not applied: %+v", updated)
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(now) {
		t.Errorf("Expected completedAt %v, got %v", now, updated.CompletedAt)
	}

	got, _ := s.GetTask(ctx, "t1")
	if !got.UpdatedAt.Equal(now) || got.Status != models.TaskStatusCompleted || got.DueDate != nil {
		t.Errorf("Stored task not updated: %+v", got)
	}

	reopened, err := s.UpdateTask(ctx, "t1", models.TaskPatch{Status: models.Some(models.TaskStatusActive)}, now)
	if err != nil {
		t.Fatalf("UpdateTask reopen failed: %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Error("Expected completedAt cleared after reopening")
	}

	_, err = s.UpdateTask(ctx, "missing", patch, now)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	if err := s.InsertTask(ctx, models.NewTask("t1", "Gone soon", time.Now())); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	if err := s.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if got, _ := s.GetTask(ctx, "t1"); got != nil {
		t.Error("Task still present after delete")
	}
	if err := s.DeleteTask(ctx, "t1"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}
}

func TestInTxRollsBack(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"a", "b"} {
		if err := s.InsertTask(ctx, models.NewTask(id, id, now)); err != nil {
			t.Fatalf("InsertTask failed: %v", err)
		}
	}

	patch := models.TaskPatch{IsEvening: models.Some(true)}
	err := s.InTx(ctx, func(tx Tasks) error {
		for _, id := range []string{"a", "b", "missing"} {
			if _, err := tx.UpdateTask(ctx, id, patch, now); err != nil {
				return err
			}
		}
		return nil
	})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("Expected ErrTaskNotFound from batch, got %v", err)
	}

	for _, id := range []string{"a", "b"} {
		got, _ := s.GetTask(ctx, id)
		if got.IsEvening {
			t.Errorf("Task %s was modified despite rollback", id)
		}
	}

	err = s.InTx(ctx, func(tx Tasks) error {
		_, err := tx.UpdateTask(ctx, "a", patch, now)
		return err
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}
	if got, _ := s.GetTask(ctx, "a"); !got.IsEvening {
		t.Error("Expected committed change")
	}
}

func TestCorruptRuleReadsBackAsNil(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	task := models.NewTask("t1", "Water plants", time.Now())
	task.RecurringRule = &models.RecurringRule{Frequency: models.FrequencyDaily, Interval: 1}
	if err := s.InsertTask(ctx, task); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE tasks SET recurring_rule = ?, tags = ? WHERE id = ?`, "{not json", "oops", "t1"); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	got, err := s.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.RecurringRule != nil {
		t.Errorf("Expected nil rule, got %+v", got.RecurringRule)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Expected empty tags, got %v", got.Tags)
	}
}

func TestSavedFilters(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()
	now := time.Now().UTC()

	high := models.SavedFilter{
		ID:   "f1",
		Name: "Urgent",
		Filter: models.Filter{
			Priority:  []models.Priority{models.PriorityHigh},
			ProjectID: models.Some[*string](nil),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.SaveFilter(ctx, high); err != nil {
		t.Fatalf("SaveFilter failed: %v", err)
	}

	got, err := s.GetFilter(ctx, "f1")
	if err != nil {
		t.Fatalf("GetFilter failed: %v", err)
	}
	if got == nil || got.Name != "Urgent" || !got.Filter.ProjectID.Set || got.Filter.ProjectID.Value != nil {
		t.Errorf("Unexpected filter: %+v", got)
	}

	dup := high
	dup.ID = "f2"
	if err := s.SaveFilter(ctx, dup); !errors.Is(err, ErrFilterNameTaken) {
		t.Errorf("Expected ErrFilterNameTaken, got %v", err)
	}

	high.Name = "Hot"
	if err := s.SaveFilter(ctx, high); err != nil {
		t.Fatalf("SaveFilter rename failed: %v", err)
	}
	list, err := s.ListFilters(ctx)
	if err != nil {
		t.Fatalf("ListFilters failed: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Hot" {
		t.Errorf("Expected single renamed filter, got %+v", list)
	}

	if err := s.DeleteFilter(ctx, "f1"); err != nil {
		t.Fatalf("DeleteFilter failed: %v", err)
	}
	if err := s.DeleteFilter(ctx, "f1"); !errors.Is(err, ErrFilterNotFound) {
		t.Errorf("Expected ErrFilterNotFound, got %v", err)
	}
	if got, _ := s.GetFilter(ctx, "f1"); got != nil {
		t.Error("Expected nil after delete")
	}
}

func TestDecisionRecords(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	rec, err := s.WriteDecisionRecord(ctx, "task.create", "abc123", "success", "t1", "title=Test")
	if err != nil {
		t.Fatalf("WriteDecisionRecord failed: %v", err)
	}
	if rec.ID == "" {
		t.Error("Record ID should not be empty")
	}
	if _, err := s.WriteDecisionRecord(ctx, "filter.save", "def456", "success", "", ""); err != nil {
		t.Fatalf("WriteDecisionRecord without task failed: %v", err)
	}

	all, err := s.ListDecisionRecords(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListDecisionRecords failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 records, got %d", len(all))
	}

	forTask, err := s.ListDecisionRecords(ctx, "t1", 10)
	if err != nil {
		t.Fatalf("ListDecisionRecords by task failed: %v", err)
	}
	if len(forTask) != 1 || forTask[0].Action != "task.create" || forTask[0].Details != "title=Test" {
		t.Errorf("Unexpected records: %+v", forTask)
	}
}

func fullTask(id string) models.Task {
	created := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	completed := created.Add(48 * time.Hour)
	return models.Task{
		ID:            id,
		Title:         "Quarterly report",
		Notes:         "Include churn numbers",
		Status:        models.TaskStatusCompleted,
		Priority:      models.PriorityHigh,
		DueDate:       models.StringPtr("2024-01-05"),
		DueTime:       models.StringPtr("14:00"),
		ScheduledDate: models.StringPtr("2024-01-04"),
		Duration:      models.IntPtr(90),
		IsEvening:     true,
		KanbanColumn:  models.StringPtr("review"),
		ProjectID:     models.StringPtr("p1"),
		AreaID:        models.StringPtr("work"),
		ParentID:      models.StringPtr("parent"),
		Tags:          []string{"finance", "q1"},
		Checklist: []models.ChecklistItem{
			{ID: "c1", Text: "Pull data", Done: true},
			{ID: "c2", Text: "Write summary"},
		},
		RecurringRule: &models.RecurringRule{Frequency: models.FrequencyWeekly, Interval: 2, DaysOfWeek: []int{1, 4}},
		CompletedAt:   &completed,
		CreatedAt:     created,
		UpdatedAt:     created.Add(time.Hour),
	}
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func newTestStore(t *testing.T) *Store {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}
