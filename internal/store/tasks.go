package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fentz26/cadence/internal/logging"
	"github.com/fentz26/cadence/internal/models"
)

const taskColumns = `id, title, notes, status, priority, due_date, due_time, scheduled_date,
	duration, is_evening, kanban_column, project_id, area_id, parent_id, tags, checklist,
	recurring_rule, completed_at, created_at, updated_at`

// taskRow is the on-disk shape of a task. Tags and checklist are JSON arrays;
// the recurring rule is the RecurringRule JSON object.
type taskRow struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Notes         string         `db:"notes"`
	Status        string         `db:"status"`
	Priority      int            `db:"priority"`
	DueDate       sql.NullString `db:"due_date"`
	DueTime       sql.NullString `db:"due_time"`
	ScheduledDate sql.NullString `db:"scheduled_date"`
	Duration      sql.NullInt64  `db:"duration"`
	IsEvening     bool           `db:"is_evening"`
	KanbanColumn  sql.NullString `db:"kanban_column"`
	ProjectID     sql.NullString `db:"project_id"`
	AreaID        sql.NullString `db:"area_id"`
	ParentID      sql.NullString `db:"parent_id"`
	Tags          string         `db:"tags"`
	Checklist     string         `db:"checklist"`
	RecurringRule sql.NullString `db:"recurring_rule"`
	CompletedAt   sql.NullTime   `db:"completed_at"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// taskOps implements Tasks over either the pool or an open transaction.
type taskOps struct {
	q   sqlx.ExtContext
	log *logging.Logger
}

// GetTask retrieves a task by ID. A missing task is (nil, nil).
func (o taskOps) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var row taskRow
	err := sqlx.GetContext(ctx, o.q, &row, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	task := o.fromRow(row)
	return &task, nil
}

// ListTasks returns every task, oldest first.
func (o taskOps) ListTasks(ctx context.Context) ([]models.Task, error) {
	return o.selectTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at, id`)
}

// ListByStatus returns tasks in any of the given statuses.
func (o taskOps) ListByStatus(ctx context.Context, statuses ...models.TaskStatus) ([]models.Task, error) {
	if len(statuses) == 0 {
		return []models.Task{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+taskColumns+` FROM tasks WHERE status IN (?) ORDER BY created_at, id`, statuses)
	if err != nil {
		return nil, fmt.Errorf("build status query: %w", err)
	}
	return o.selectTasks(ctx, o.q.Rebind(query), args...)
}

// ListByDateRange returns tasks whose due or scheduled date falls within
// [start, end]. An inverted range yields no tasks.
func (o taskOps) ListByDateRange(ctx context.Context, start, end string) ([]models.Task, error) {
	if start > end {
		return []models.Task{}, nil
	}
	return o.selectTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE (due_date BETWEEN ? AND ?) OR (scheduled_date BETWEEN ? AND ?)
		 ORDER BY created_at, id`,
		start, end, start, end,
	)
}

// ListByProject returns the tasks of one project.
func (o taskOps) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	return o.selectTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY created_at, id`, projectID)
}

// ListByParent returns the subtasks of a task.
func (o taskOps) ListByParent(ctx context.Context, parentID string) ([]models.Task, error) {
	return o.selectTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE parent_id = ? ORDER BY created_at, id`, parentID)
}

// InsertTask stores a new task as given.
func (o taskOps) InsertTask(ctx context.Context, task models.Task) error {
	row, err := toRow(task)
	if err != nil {
		return err
	}
	_, err = sqlx.NamedExecContext(ctx, o.q,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (
			:id, :title, :notes, :status, :priority, :due_date, :due_time, :scheduled_date,
			:duration, :is_evening, :kanban_column, :project_id, :area_id, :parent_id, :tags, :checklist,
			:recurring_rule, :completed_at, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// UpdateTask applies patch to the stored task and returns the result. Call it
// on a Tx, or through Store which wraps it in one.
func (o taskOps) UpdateTask(ctx context.Context, id string, patch models.TaskPatch, now time.Time) (*models.Task, error) {
	task, err := o.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	task.Apply(patch, now)

	row, err := toRow(*task)
	if err != nil {
		return nil, err
	}
	res, err := sqlx.NamedExecContext(ctx, o.q,
		`UPDATE tasks SET
			title = :title, notes = :notes, status = :status, priority = :priority,
			due_date = :due_date, due_time = :due_time, scheduled_date = :scheduled_date,
			duration = :duration, is_evening = :is_evening, kanban_column = :kanban_column,
			project_id = :project_id, area_id = :area_id, parent_id = :parent_id,
			tags = :tags, checklist = :checklist, recurring_rule = :recurring_rule,
			completed_at = :completed_at, updated_at = :updated_at
		 WHERE id = :id`,
		row,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if err := expectOne(res, ErrTaskNotFound); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task.
func (o taskOps) DeleteTask(ctx context.Context, id string) error {
	res, err := o.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectOne(res, ErrTaskNotFound)
}

func (o taskOps) selectTasks(ctx context.Context, query string, args ...interface{}) ([]models.Task, error) {
	var rows []taskRow
	if err := sqlx.SelectContext(ctx, o.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, o.fromRow(row))
	}
	return tasks, nil
}

// fromRow converts a row to a task. Malformed JSON columns degrade to empty
// values with a warning instead of failing the read.
func (o taskOps) fromRow(row taskRow) models.Task {
	task := models.Task{
		ID:            row.ID,
		Title:         row.Title,
		Notes:         row.Notes,
		Status:        models.TaskStatus(row.Status),
		Priority:      models.Priority(row.Priority),
		DueDate:       nullString(row.DueDate),
		DueTime:       nullString(row.DueTime),
		ScheduledDate: nullString(row.ScheduledDate),
		IsEvening:     row.IsEvening,
		KanbanColumn:  nullString(row.KanbanColumn),
		ProjectID:     nullString(row.ProjectID),
		AreaID:        nullString(row.AreaID),
		ParentID:      nullString(row.ParentID),
		Tags:          []string{},
		Checklist:     []models.ChecklistItem{},
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
	if row.Duration.Valid {
		d := int(row.Duration.Int64)
		task.Duration = &d
	}
	if row.CompletedAt.Valid {
		ts := row.CompletedAt.Time.UTC()
		task.CompletedAt = &ts
	}
	if err := json.Unmarshal([]byte(row.Tags), &task.Tags); err != nil || task.Tags == nil {
		if err != nil {
			o.log.Warnw("Ignoring malformed tags", "task_id", row.ID, "error", err)
		}
		task.Tags = []string{}
	}
	if err := json.Unmarshal([]byte(row.Checklist), &task.Checklist); err != nil || task.Checklist == nil {
		if err != nil {
			o.log.Warnw("Ignoring malformed checklist", "task_id", row.ID, "error", err)
		}
		task.Checklist = []models.ChecklistItem{}
	}
	if row.RecurringRule.Valid && row.RecurringRule.String != "" {
		rule, err := models.ParseRule(row.RecurringRule.String)
		if err != nil {
			o.log.Warnw("Ignoring malformed recurring rule", "task_id", row.ID, "error", err)
		} else {
			task.RecurringRule = rule
		}
	}
	return task
}

func toRow(task models.Task) (taskRow, error) {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return taskRow{}, fmt.Errorf("encode tags: %w", err)
	}
	checklist := task.Checklist
	if checklist == nil {
		checklist = []models.ChecklistItem{}
	}
	checklistJSON, err := json.Marshal(checklist)
	if err != nil {
		return taskRow{}, fmt.Errorf("encode checklist: %w", err)
	}

	row := taskRow{
		ID:            task.ID,
		Title:         task.Title,
		Notes:         task.Notes,
		Status:        string(task.Status),
		Priority:      int(task.Priority),
		DueDate:       toNullString(task.DueDate),
		DueTime:       toNullString(task.DueTime),
		ScheduledDate: toNullString(task.ScheduledDate),
		IsEvening:     task.IsEvening,
		KanbanColumn:  toNullString(task.KanbanColumn),
		ProjectID:     toNullString(task.ProjectID),
		AreaID:        toNullString(task.AreaID),
		ParentID:      toNullString(task.ParentID),
		Tags:          string(tagsJSON),
		Checklist:     string(checklistJSON),
		CreatedAt:     task.CreatedAt.UTC(),
		UpdatedAt:     task.UpdatedAt.UTC(),
	}
	if task.Duration != nil {
		row.Duration = sql.NullInt64{Int64: int64(*task.Duration), Valid: true}
	}
	if task.CompletedAt != nil {
		row.CompletedAt = sql.NullTime{Time: task.CompletedAt.UTC(), Valid: true}
	}
	if task.RecurringRule != nil {
		raw, err := models.MarshalRule(*task.RecurringRule)
		if err != nil {
			return taskRow{}, fmt.Errorf("encode recurring rule: %w", err)
		}
		row.RecurringRule = sql.NullString{String: raw, Valid: true}
	}
	return row, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
