// Package planner provides the service layer and HTTP API for Cadence.
package planner

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fentz26/cadence/internal/audit"
	"github.com/fentz26/cadence/internal/datekit"
	"github.com/fentz26/cadence/internal/events"
	"github.com/fentz26/cadence/internal/logging"
	"github.com/fentz26/cadence/internal/metrics"
	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/recurrence"
	"github.com/fentz26/cadence/internal/schedule"
	"github.com/fentz26/cadence/internal/store"
)

// Publisher receives change notifications. *events.Hub satisfies it.
type Publisher interface {
	Publish(e events.Event) int
}

// Options configures a Service. Zero values pick sensible defaults.
type Options struct {
	Clock        datekit.Clock
	WeekStart    datekit.WeekStart
	UpcomingDays int
	TimelineDays int
	NewID        recurrence.IDFunc
	Events       Publisher
	Metrics      *metrics.Metrics
	Logger       *logging.Logger
}

// Service provides the task planning business logic.
type Service struct {
	store    TaskStore
	audit    *audit.Recorder
	events   Publisher
	metrics  *metrics.Metrics
	log      *logging.Logger
	validate *validator.Validate

	clock        datekit.Clock
	newID        recurrence.IDFunc
	weekStart    datekit.WeekStart
	upcomingDays int
	timelineDays int
}

// NewService creates a new planner service.
func NewService(st TaskStore, opts Options) *Service {
	log := logging.OrNop(opts.Logger)
	s := &Service{
		store:        st,
		audit:        audit.NewRecorder(st, log),
		events:       opts.Events,
		metrics:      opts.Metrics,
		log:          log.WithComponent("planner"),
		validate:     NewValidator(),
		clock:        opts.Clock,
		newID:        opts.NewID,
		weekStart:    opts.WeekStart,
		upcomingDays: opts.UpcomingDays,
		timelineDays: opts.TimelineDays,
	}
	if s.clock == nil {
		s.clock = datekit.SystemClock
	}
	if s.newID == nil {
		s.newID = recurrence.NewID
	}
	if s.upcomingDays <= 0 {
		s.upcomingDays = schedule.DefaultUpcomingDays
	}
	if s.timelineDays <= 0 {
		s.timelineDays = schedule.DefaultTimelineDays
	}
	return s
}

// Today returns the current date key from the service clock.
func (s *Service) Today() string {
	return datekit.Today(s.clock())
}

// Health checks the storage collaborator.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// --- Task Operations ---

// CreateTaskInput is the payload for CreateTask.
type CreateTaskInput struct {
	Title         string                `json:"title" validate:"required,max=500"`
	Notes         string                `json:"notes" validate:"max=20000"`
	Status        models.TaskStatus     `json:"status" validate:"omitempty,oneof=inbox active"`
	Priority      models.Priority       `json:"priority" validate:"min=0,max=3"`
	DueDate       *string               `json:"dueDate" validate:"omitempty,datekey"`
	DueTime       *string               `json:"dueTime" validate:"omitempty,clock"`
	ScheduledDate *string               `json:"scheduledDate" validate:"omitempty,datekey"`
	Duration      *int                  `json:"duration" validate:"omitempty,min=1,max=1440"`
	IsEvening     bool                  `json:"isEvening"`
	KanbanColumn  *string               `json:"kanbanColumn"`
	ProjectID     *string               `json:"projectId"`
	AreaID        *string               `json:"areaId"`
	ParentID      *string               `json:"parentId"`
	Tags          []string              `json:"tags" validate:"dive,required"`
	Checklist     []string              `json:"checklist" validate:"dive,required"`
	RecurringRule *models.RecurringRule `json:"recurringRule"`
}

// CreateTask validates the input and stores a new task. Status defaults to inbox.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalidf("title is required")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid(err)
	}
	if err := validateRule(in.RecurringRule); err != nil {
		return nil, err
	}

	now := s.clock()
	task := models.NewTask(s.newID(), strings.TrimSpace(in.Title), now)
	if in.Status != "" {
		task.Status = in.Status
	}
	task.Notes = in.Notes
	task.Priority = in.Priority
	task.DueDate = in.DueDate
	task.DueTime = in.DueTime
	task.ScheduledDate = in.ScheduledDate
	task.Duration = in.Duration
	task.IsEvening = in.IsEvening
	task.KanbanColumn = in.KanbanColumn
	task.ProjectID = in.ProjectID
	task.AreaID = in.AreaID
	task.ParentID = in.ParentID
	task.Tags = dedupe(in.Tags)
	for _, text := range in.Checklist {
		task.Checklist = append(task.Checklist, models.ChecklistItem{ID: s.newID(), Text: text})
	}
	if in.RecurringRule != nil {
		rule := in.RecurringRule.Clone()
		task.RecurringRule = &rule
	}
	task = task.Clone()

	err := s.store.InsertTask(ctx, task)
	s.finish(ctx, "task.create", in, task.ID, err, "")
	if err != nil {
		return nil, err
	}
	s.publish(task.ID)
	return &task, nil
}

// GetTask retrieves a task by ID.
func (s *Service) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

// ListTasks returns every task.
func (s *Service) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.store.ListTasks(ctx)
}

// Subtasks returns the children of a task.
func (s *Service) Subtasks(ctx context.Context, parentID string) ([]models.Task, error) {
	if _, err := s.GetTask(ctx, parentID); err != nil {
		return nil, err
	}
	return s.store.ListByParent(ctx, parentID)
}

// History returns the decision records written for a task, newest first.
func (s *Service) History(ctx context.Context, taskID string, limit int) ([]models.DecisionRecord, error) {
	return s.store.ListDecisionRecords(ctx, taskID, limit)
}

// UpdateTask applies a partial update. Setting status to completed on an open
// task goes through completion, so recurring tasks spawn their follow-up.
func (s *Service) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	if patch.Status.Set && patch.Status.Value == models.TaskStatusCompleted {
		c, err := s.complete(ctx, "task.update", id, patch)
		if err != nil {
			return nil, err
		}
		return &c.Task, nil
	}

	updated, err := s.store.UpdateTask(ctx, id, patch, s.clock())
	s.finish(ctx, "task.update", patch, id, err, "")
	if err != nil {
		return nil, err
	}
	s.publish(id)
	return updated, nil
}

// Completion is the result of completing a task. Next is the follow-up
// spawned from a recurring rule, if any.
type Completion struct {
	Task models.Task  `json:"task"`
	Next *models.Task `json:"next"`
}

// CompleteTask marks a task completed and, when it recurs, stores the next
// instance. A failure to store the follow-up is logged and counted; the
// completion itself stands. Completing an already-completed task is a no-op.
func (s *Service) CompleteTask(ctx context.Context, id string) (*Completion, error) {
	return s.complete(ctx, "task.complete", id, models.TaskPatch{})
}

func (s *Service) complete(ctx context.Context, action, id string, patch models.TaskPatch) (*Completion, error) {
	now := s.clock()
	var (
		done      *models.Task
		completed bool
	)
	err := s.store.InTx(ctx, func(tx store.Tasks) error {
		current, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return store.ErrTaskNotFound
		}
		p := patch
		if current.Status == models.TaskStatusCompleted {
			p.Status = models.Opt[models.TaskStatus]{}
		} else {
			p.Status = models.Some(models.TaskStatusCompleted)
			completed = true
		}
		done, err = tx.UpdateTask(ctx, id, p, now)
		return err
	})
	if err != nil {
		s.finish(ctx, action, patch, id, err, "")
		return nil, err
	}

	c := &Completion{Task: *done}
	details := ""
	if completed {
		s.metrics.Completed()
		c.Next = s.spawnNext(ctx, *done, now)
		if c.Next != nil {
			details = "spawned=" + c.Next.ID
		}
	}
	s.finish(ctx, action, patch, id, nil, details)

	ids := []string{id}
	if c.Next != nil {
		ids = append(ids, c.Next.ID)
	}
	s.publish(ids...)
	return c, nil
}

// spawnNext stores the follow-up for a completed recurring task.
func (s *Service) spawnNext(ctx context.Context, done models.Task, now time.Time) *models.Task {
	next := recurrence.Spawn(done, now, s.newID)
	if next == nil {
		return nil
	}
	if err := s.store.InsertTask(ctx, *next); err != nil {
		s.metrics.SpawnFailed()
		s.log.Errorw("Failed to spawn recurring task", "task_id", done.ID, "error", err)
		s.audit.Record(ctx, "task.spawn", done.ID, audit.OutcomeFailure, done.ID, err.Error())
		return nil
	}
	s.metrics.Spawned()
	s.audit.Record(ctx, "task.spawn", done.ID, audit.OutcomeSuccess, next.ID, "from="+done.ID)
	s.log.Debugw("Spawned recurring task", "task_id", done.ID, "next_id", next.ID, "due", *next.DueDate)
	return next
}

// ReopenTask moves a completed or cancelled task back to active. Open tasks
// are returned unchanged.
func (s *Service) ReopenTask(ctx context.Context, id string) (*models.Task, error) {
	current, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Open() {
		return current, nil
	}

	patch := models.TaskPatch{Status: models.Some(models.TaskStatusActive)}
	updated, err := s.store.UpdateTask(ctx, id, patch, s.clock())
	s.finish(ctx, "task.reopen", patch, id, err, "")
	if err != nil {
		return nil, err
	}
	s.publish(id)
	return updated, nil
}

// DeleteTask permanently removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	err := s.store.DeleteTask(ctx, id)
	s.finish(ctx, "task.delete", map[string]string{"id": id}, id, err, "")
	if err != nil {
		return err
	}
	s.publish(id)
	return nil
}

// finish writes the audit record and mutation metric for an attempted action.
func (s *Service) finish(ctx context.Context, action string, inputs interface{}, taskID string, err error, details string) {
	outcome := audit.OutcomeSuccess
	if err != nil {
		outcome = audit.OutcomeFailure
		details = err.Error()
	}
	s.metrics.Mutation(action, outcome)
	s.audit.Record(ctx, action, inputs, outcome, taskID, details)
}

func (s *Service) publish(ids ...string) {
	if s.events == nil {
		return
	}
	s.events.Publish(events.Event{Topic: events.TasksChanged, TaskIDs: ids, At: s.clock()})
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
