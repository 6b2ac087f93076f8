package models

import (
	"encoding/json"
	"time"
)

// Opt is a field that may or may not be specified. A set Opt with a nil
// pointer value means "explicitly null", which is distinct from unset.
type Opt[T any] struct {
	Set   bool
	Value T
}

// Some returns a set Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Set: true, Value: v}
}

// IsZero lets `omitzero` drop unset fields when encoding.
func (o Opt[T]) IsZero() bool { return !o.Set }

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

// UnmarshalJSON is only invoked when the key is present, so presence alone
// marks the field as set, even for a JSON null.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

// TaskPatch is a partial update. Only set fields are applied.
type TaskPatch struct {
	Title         Opt[string]          `json:"title,omitzero"`
	Notes         Opt[string]          `json:"notes,omitzero"`
	Status        Opt[TaskStatus]      `json:"status,omitzero"`
	Priority      Opt[Priority]        `json:"priority,omitzero"`
	DueDate       Opt[*string]         `json:"dueDate,omitzero"`
	DueTime       Opt[*string]         `json:"dueTime,omitzero"`
	ScheduledDate Opt[*string]         `json:"scheduledDate,omitzero"`
	Duration      Opt[*int]            `json:"duration,omitzero"`
	IsEvening     Opt[bool]            `json:"isEvening,omitzero"`
	KanbanColumn  Opt[*string]         `json:"kanbanColumn,omitzero"`
	ProjectID     Opt[*string]         `json:"projectId,omitzero"`
	AreaID        Opt[*string]         `json:"areaId,omitzero"`
	ParentID      Opt[*string]         `json:"parentId,omitzero"`
	Tags          Opt[[]string]        `json:"tags,omitzero"`
	Checklist     Opt[[]ChecklistItem] `json:"checklist,omitzero"`
	RecurringRule Opt[*RecurringRule]  `json:"recurringRule,omitzero"`
}

// Apply writes the set fields of p onto t, stamps UpdatedAt and keeps
// CompletedAt consistent with Status.
func (t *Task) Apply(p TaskPatch, now time.Time) {
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Notes.Set {
		t.Notes = p.Notes.Value
	}
	if p.Priority.Set {
		t.Priority = p.Priority.Value
	}
	if p.DueDate.Set {
		t.DueDate = cloneString(p.DueDate.Value)
	}
	if p.DueTime.Set {
		t.DueTime = cloneString(p.DueTime.Value)
	}
	if p.ScheduledDate.Set {
		t.ScheduledDate = cloneString(p.ScheduledDate.Value)
	}
	if p.Duration.Set {
		t.Duration = nil
		if p.Duration.Value != nil {
			d := *p.Duration.Value
			t.Duration = &d
		}
	}
	if p.IsEvening.Set {
		t.IsEvening = p.IsEvening.Value
	}
	if p.KanbanColumn.Set {
		t.KanbanColumn = cloneString(p.KanbanColumn.Value)
	}
	if p.ProjectID.Set {
		t.ProjectID = cloneString(p.ProjectID.Value)
	}
	if p.AreaID.Set {
		t.AreaID = cloneString(p.AreaID.Value)
	}
	if p.ParentID.Set {
		t.ParentID = cloneString(p.ParentID.Value)
	}
	if p.Tags.Set {
		t.Tags = append([]string{}, p.Tags.Value...)
	}
	if p.Checklist.Set {
		t.Checklist = append([]ChecklistItem{}, p.Checklist.Value...)
	}
	if p.RecurringRule.Set {
		t.RecurringRule = nil
		if p.RecurringRule.Value != nil {
			r := p.RecurringRule.Value.Clone()
			t.RecurringRule = &r
		}
	}
	if p.Status.Set {
		t.SetStatus(p.Status.Value, now)
	}
	t.UpdatedAt = now
}

// SetStatus changes status and maintains CompletedAt: it is stamped when the
// task becomes completed and cleared when it leaves completed.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	if status == TaskStatusCompleted {
		if t.Status != TaskStatusCompleted || t.CompletedAt == nil {
			ts := now
			t.CompletedAt = &ts
		}
	} else {
		t.CompletedAt = nil
	}
	t.Status = status
}
