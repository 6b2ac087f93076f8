// Package models defines the core domain types for Cadence.
package models

import "time"

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusInbox     TaskStatus = "inbox"
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusInbox, TaskStatusActive, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// Open reports whether the task still needs doing (inbox or active).
func (s TaskStatus) Open() bool {
	return s == TaskStatusInbox || s == TaskStatusActive
}

// Priority ranks a task from none (0) to high (3).
type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

// Valid reports whether p is within the known range.
func (p Priority) Valid() bool {
	return p >= PriorityNone && p <= PriorityHigh
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	}
	return "none"
}

// ChecklistItem is a sub-step inside a task.
type ChecklistItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Task is the central entity. Dates are naive calendar dates (YYYY-MM-DD) and
// DueTime is a clock time (HH:MM); neither carries a timezone.
type Task struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Notes         string          `json:"notes"`
	Status        TaskStatus      `json:"status"`
	Priority      Priority        `json:"priority"`
	DueDate       *string         `json:"dueDate"`
	DueTime       *string         `json:"dueTime"`
	ScheduledDate *string         `json:"scheduledDate"`
	Duration      *int            `json:"duration"`
	IsEvening     bool            `json:"isEvening"`
	KanbanColumn  *string         `json:"kanbanColumn"`
	ProjectID     *string         `json:"projectId"`
	AreaID        *string         `json:"areaId"`
	ParentID      *string         `json:"parentId"`
	Tags          []string        `json:"tags"`
	Checklist     []ChecklistItem `json:"checklist"`
	RecurringRule *RecurringRule  `json:"recurringRule"`
	CompletedAt   *time.Time      `json:"completedAt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewTask builds an inbox task with fresh timestamps.
func NewTask(id, title string, now time.Time) Task {
	return Task{
		ID:        id,
		Title:     title,
		Status:    TaskStatusInbox,
		Tags:      []string{},
		Checklist: []ChecklistItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsDated reports whether the task has a due or scheduled date.
func (t *Task) IsDated() bool {
	return t.DueDate != nil || t.ScheduledDate != nil
}

// IsUnscheduled reports whether the task has neither a due nor a scheduled date.
func (t *Task) IsUnscheduled() bool {
	return !t.IsDated()
}

// HasTimeBlock reports whether both DueTime and Duration are set. It does not
// validate the clock string; see conflict and schedule for the strict check.
func (t *Task) HasTimeBlock() bool {
	return t.DueTime != nil && t.Duration != nil
}

// HasTag reports whether the task carries the given tag id.
func (t *Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (t Task) Clone() Task {
	c := t
	c.DueDate = cloneString(t.DueDate)
	c.DueTime = cloneString(t.DueTime)
	c.ScheduledDate = cloneString(t.ScheduledDate)
	c.KanbanColumn = cloneString(t.KanbanColumn)
	c.ProjectID = cloneString(t.ProjectID)
	c.AreaID = cloneString(t.AreaID)
	c.ParentID = cloneString(t.ParentID)
	if t.Duration != nil {
		d := *t.Duration
		c.Duration = &d
	}
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		c.CompletedAt = &ts
	}
	if t.Tags != nil {
		c.Tags = append([]string{}, t.Tags...)
	}
	if t.Checklist != nil {
		c.Checklist = append([]ChecklistItem{}, t.Checklist...)
	}
	if t.RecurringRule != nil {
		r := t.RecurringRule.Clone()
		c.RecurringRule = &r
	}
	return c
}

// SavedFilter is a named, persisted Filter ("smart filter").
type SavedFilter struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Filter    Filter    `json:"filter"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DecisionRecord is an audit entry written for every state-mutating action.
type DecisionRecord struct {
	ID         string    `json:"id" db:"id"`
	Action     string    `json:"action" db:"action"`
	InputsHash string    `json:"inputs_hash" db:"inputs_hash"`
	Outcome    string    `json:"outcome" db:"outcome"`
	TaskID     string    `json:"task_id,omitempty" db:"task_id"`
	Details    string    `json:"details,omitempty" db:"details"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// StringPtr is a small helper for building optional fields.
func StringPtr(s string) *string { return &s }

// IntPtr is a small helper for building optional fields.
func IntPtr(i int) *int { return &i }

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
