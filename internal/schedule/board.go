package schedule

import (
	"github.com/fentz26/cadence/internal/models"
)

// Kind is the single home of a task on the board.
type Kind string

const (
	KindOverdue     Kind = "overdue"
	KindEvening     Kind = "evening"
	KindToday       Kind = "today"
	KindUnscheduled Kind = "unscheduled"
	KindLater       Kind = "later"
	KindClosed      Kind = "closed"
)

// Classify places a task in exactly one board section. The individual bucket
// functions may overlap (an undated evening task is both Evening and
// Unscheduled); Classify resolves that with the precedence
// overdue > evening > today > unscheduled > later.
func Classify(t *models.Task, today string) Kind {
	switch {
	case closed(t):
		return KindClosed
	case t.Status.Open() && t.DueDate != nil && *t.DueDate < today:
		return KindOverdue
	case t.Status.Open() && t.IsEvening && (onDay(t, today) || t.IsUnscheduled()):
		return KindEvening
	case t.Status == models.TaskStatusActive && onDay(t, today):
		return KindToday
	case t.Status.Open() && t.IsUnscheduled():
		return KindUnscheduled
	}
	return KindLater
}

// Board is a partition of the open tasks computed against one "today", plus
// the overlapping Upcoming list for the sidebar.
type Board struct {
	Today       string        `json:"today"`
	Overdue     []models.Task `json:"overdue"`
	TodayTasks  []models.Task `json:"todayTasks"`
	Evening     []models.Task `json:"evening"`
	Unscheduled []models.Task `json:"unscheduled"`
	Later       []models.Task `json:"later"`
	Upcoming    []models.Task `json:"upcoming"`
}

// Plan builds the board in one pass.
func Plan(tasks []models.Task, today string, upcomingDays int) Board {
	b := Board{
		Today:       today,
		Overdue:     []models.Task{},
		TodayTasks:  []models.Task{},
		Evening:     []models.Task{},
		Unscheduled: []models.Task{},
		Later:       []models.Task{},
	}
	for i := range tasks {
		t := tasks[i].Clone()
		switch Classify(&t, today) {
		case KindOverdue:
			b.Overdue = append(b.Overdue, t)
		case KindEvening:
			b.Evening = append(b.Evening, t)
		case KindToday:
			b.TodayTasks = append(b.TodayTasks, t)
		case KindUnscheduled:
			b.Unscheduled = append(b.Unscheduled, t)
		case KindLater:
			b.Later = append(b.Later, t)
		}
	}
	sortByDueDate(b.Overdue)
	b.Upcoming = Upcoming(tasks, today, upcomingDays)
	return b
}
