// Package schedule sorts a task collection into the buckets used by list,
// calendar and timeline views.
//
// Every function is pure: inputs are never modified, outputs are fresh slices,
// and "today" is passed in so a whole pass agrees on one date.
package schedule

import (
	"sort"
	"time"

	"github.com/fentz26/cadence/internal/datekit"
	"github.com/fentz26/cadence/internal/models"
)

// DefaultUpcomingDays is the horizon used by the upcoming view.
const DefaultUpcomingDays = 7

// Overdue returns open tasks whose due date is before today, oldest first.
func Overdue(tasks []models.Task, today string) []models.Task {
	out := selectTasks(tasks, func(t *models.Task) bool {
		return t.Status.Open() && t.DueDate != nil && *t.DueDate < today
	})
	sortByDueDate(out)
	return out
}

// Today returns active, non-evening tasks due or scheduled today.
func Today(tasks []models.Task, today string) []models.Task {
	return selectTasks(tasks, func(t *models.Task) bool {
		return t.Status == models.TaskStatusActive && !t.IsEvening && onDay(t, today)
	})
}

// Evening returns open evening tasks for today, including undated ones.
func Evening(tasks []models.Task, today string) []models.Task {
	return selectTasks(tasks, func(t *models.Task) bool {
		return t.Status.Open() && t.IsEvening && (onDay(t, today) || t.IsUnscheduled())
	})
}

// Upcoming returns active tasks due within [today, today+days], soonest first.
func Upcoming(tasks []models.Task, today string, days int) []models.Task {
	end, err := datekit.AddDays(today, days)
	if err != nil || days < 0 {
		return []models.Task{}
	}
	out := selectTasks(tasks, func(t *models.Task) bool {
		return t.Status == models.TaskStatusActive && t.DueDate != nil && datekit.InRange(*t.DueDate, today, end)
	})
	sortByDueDate(out)
	return out
}

// DateRange returns not-closed tasks with a due or scheduled date in
// [start, end]. An inverted range yields an empty result.
func DateRange(tasks []models.Task, start, end string) []models.Task {
	if start > end {
		return []models.Task{}
	}
	out := selectTasks(tasks, func(t *models.Task) bool {
		return !closed(t) && inRange(t, start, end)
	})
	sortByGroupKey(out, start, end)
	return out
}

// OnDate is DateRange for a single day.
func OnDate(tasks []models.Task, date string) []models.Task {
	return DateRange(tasks, date, date)
}

// TimeBlocked returns the timed tasks on date, ordered by start time.
func TimeBlocked(tasks []models.Task, date string) []models.Task {
	out := selectTasks(OnDate(tasks, date), IsTimed)
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := StartMinutes(&out[i])
		b, _ := StartMinutes(&out[j])
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// AllDay returns the tasks on date that are not timed.
func AllDay(tasks []models.Task, date string) []models.Task {
	return selectTasks(OnDate(tasks, date), func(t *models.Task) bool { return !IsTimed(t) })
}

// Unscheduled returns open tasks with neither a due nor a scheduled date.
func Unscheduled(tasks []models.Task) []models.Task {
	return selectTasks(tasks, func(t *models.Task) bool {
		return t.Status.Open() && t.IsUnscheduled()
	})
}

// Anytime returns every active task regardless of dates.
func Anytime(tasks []models.Task) []models.Task {
	return selectTasks(tasks, func(t *models.Task) bool {
		return t.Status == models.TaskStatusActive
	})
}

// Someday returns active top-level tasks with no dates.
func Someday(tasks []models.Task) []models.Task {
	return selectTasks(tasks, func(t *models.Task) bool {
		return t.Status == models.TaskStatusActive && t.ParentID == nil && t.IsUnscheduled()
	})
}

// LogbookDay groups completed tasks by completion date.
type LogbookDay struct {
	Date  string        `json:"date"`
	Tasks []models.Task `json:"tasks"`
}

// Logbook returns completed tasks, most recent first, grouped by the calendar
// date of CompletedAt as seen in loc (UTC when nil). Completed tasks missing
// CompletedAt sort last under an empty date.
func Logbook(tasks []models.Task, loc *time.Location) []LogbookDay {
	if loc == nil {
		loc = time.UTC
	}
	done := selectTasks(tasks, func(t *models.Task) bool {
		return t.Status == models.TaskStatusCompleted
	})
	sort.SliceStable(done, func(i, j int) bool {
		a, b := done[i].CompletedAt, done[j].CompletedAt
		switch {
		case a == nil && b == nil:
			return done[i].ID < done[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		}
		return done[i].ID < done[j].ID
	})

	days := []LogbookDay{}
	for _, t := range done {
		key := ""
		if t.CompletedAt != nil {
			key = datekit.FormatDate(t.CompletedAt.In(loc))
		}
		if n := len(days); n > 0 && days[n-1].Date == key {
			days[n-1].Tasks = append(days[n-1].Tasks, t)
			continue
		}
		days = append(days, LogbookDay{Date: key, Tasks: []models.Task{t}})
	}
	return days
}

// IsTimed reports whether the task has a valid start time and a duration, the
// precondition for time blocks and conflict checks.
func IsTimed(t *models.Task) bool {
	if !t.HasTimeBlock() {
		return false
	}
	_, ok := StartMinutes(t)
	return ok
}

// StartMinutes parses DueTime; malformed values report ok=false.
func StartMinutes(t *models.Task) (int, bool) {
	if t.DueTime == nil {
		return 0, false
	}
	m, err := datekit.ParseClockTime(*t.DueTime)
	if err != nil {
		return 0, false
	}
	return m, true
}

// GroupKey returns the calendar day a task is listed under within [start,end]:
// its due date when that falls inside the range, otherwise its scheduled date.
// ok is false when neither date is in range.
func GroupKey(t *models.Task, start, end string) (string, bool) {
	if t.DueDate != nil && datekit.InRange(*t.DueDate, start, end) {
		return *t.DueDate, true
	}
	if t.ScheduledDate != nil && datekit.InRange(*t.ScheduledDate, start, end) {
		return *t.ScheduledDate, true
	}
	return "", false
}

func selectTasks(tasks []models.Task, keep func(*models.Task) bool) []models.Task {
	out := make([]models.Task, 0)
	for i := range tasks {
		if keep(&tasks[i]) {
			out = append(out, tasks[i].Clone())
		}
	}
	return out
}

func closed(t *models.Task) bool {
	return t.Status == models.TaskStatusCompleted || t.Status == models.TaskStatusCancelled
}

func onDay(t *models.Task, day string) bool {
	return (t.DueDate != nil && *t.DueDate == day) || (t.ScheduledDate != nil && *t.ScheduledDate == day)
}

func inRange(t *models.Task, start, end string) bool {
	_, ok := GroupKey(t, start, end)
	return ok
}

func sortByDueDate(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := *tasks[i].DueDate, *tasks[j].DueDate
		if a != b {
			return a < b
		}
		return tasks[i].ID < tasks[j].ID
	})
}

func sortByGroupKey(tasks []models.Task, start, end string) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, _ := GroupKey(&tasks[i], start, end)
		b, _ := GroupKey(&tasks[j], start, end)
		if a != b {
			return a < b
		}
		return tasks[i].ID < tasks[j].ID
	})
}
