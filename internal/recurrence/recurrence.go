// Package recurrence computes next occurrences for recurring tasks and builds
// the follow-up task spawned when a recurring task is completed.
package recurrence

import (
	"time"

	"github.com/fentz26/cadence/internal/datekit"
	"github.com/fentz26/cadence/internal/models"
	"github.com/google/uuid"
)

// IDFunc produces fresh identifiers for spawned tasks and checklist items.
type IDFunc func() string

// NewID is the default IDFunc.
func NewID() string {
	return uuid.New().String()
}

// NextOccurrence returns the first date after from that matches rule. The
// result is a midnight-UTC date; from's clock and zone are ignored.
//
// Month and year steps clamp to the last valid day of the target month, so
// Jan 31 + 1 month is Feb 29 (leap) or Feb 28.
//
// Weekly rules with selected days treat weeks as Sunday-based cycles: the next
// selected day later in the current cycle wins, otherwise the result is the
// earliest selected day of the cycle `interval` weeks later.
func NextOccurrence(rule models.RecurringRule, from time.Time) time.Time {
	base := datekit.Midnight(from)
	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	switch rule.Frequency {
	case models.FrequencyDaily:
		return base.AddDate(0, 0, interval)
	case models.FrequencyMonthly:
		return addMonthsClamped(base, interval)
	case models.FrequencyYearly:
		return addMonthsClamped(base, 12*interval)
	case models.FrequencyWeekly:
		return nextWeekly(base, interval, rule.Weekdays())
	}
	return base.AddDate(0, 0, interval)
}

func nextWeekly(base time.Time, interval int, days []int) time.Time {
	if len(days) == 0 {
		return base.AddDate(0, 0, 7*interval)
	}

	current := int(base.Weekday())
	for _, d := range days {
		if d > current {
			return base.AddDate(0, 0, d-current)
		}
	}
	return base.AddDate(0, 0, 7*interval-current+days[0])
}

func addMonthsClamped(t time.Time, months int) time.Time {
	total := int(t.Month()) - 1 + months
	year := t.Year() + total/12
	month := time.Month(total%12 + 1)
	day := t.Day()
	if last := datekit.DaysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Anchor returns the date the next occurrence is computed from: the task's due
// date, or now when it has none (or it cannot be parsed).
func Anchor(task models.Task, now time.Time) time.Time {
	if task.DueDate != nil {
		if d, err := datekit.ParseDate(*task.DueDate); err == nil {
			return d
		}
	}
	return datekit.Midnight(now)
}

// Spawn builds the next instance of a completed recurring task. It returns nil
// when the task has no usable rule. The completed task is not modified.
func Spawn(completed models.Task, now time.Time, newID IDFunc) *models.Task {
	if completed.RecurringRule == nil {
		return nil
	}
	rule := completed.RecurringRule.Clone()
	if err := rule.Validate(); err != nil {
		return nil
	}
	if newID == nil {
		newID = NewID
	}

	due := datekit.FormatDate(NextOccurrence(rule, Anchor(completed, now)))
	src := completed.Clone()

	next := models.NewTask(newID(), src.Title, now)
	next.Notes = src.Notes
	next.Status = models.TaskStatusActive
	next.Priority = src.Priority
	next.DueDate = &due
	next.DueTime = src.DueTime
	next.Duration = src.Duration
	next.IsEvening = src.IsEvening
	next.KanbanColumn = src.KanbanColumn
	next.ProjectID = src.ProjectID
	next.AreaID = src.AreaID
	next.RecurringRule = &rule
	if src.Tags != nil {
		next.Tags = src.Tags
	}

	next.Checklist = make([]models.ChecklistItem, 0, len(src.Checklist))
	for _, item := range src.Checklist {
		next.Checklist = append(next.Checklist, models.ChecklistItem{
			ID:   newID(),
			Text: item.Text,
			Done: false,
		})
	}
	return &next
}
