package planner

import (
	"context"
	"fmt"

	"github.com/fentz26/cadence/internal/conflict"
	"github.com/fentz26/cadence/internal/datekit"
	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/schedule"
)

// Bucket names accepted by Bucket.
const (
	BucketToday       = "today"
	BucketEvening     = "evening"
	BucketUpcoming    = "upcoming"
	BucketOverdue     = "overdue"
	BucketUnscheduled = "unscheduled"
	BucketAnytime     = "anytime"
	BucketSomeday     = "someday"
	BucketLogbook     = "logbook"
)

// BucketNames lists the buckets in display order.
var BucketNames = []string{
	BucketToday, BucketEvening, BucketUpcoming, BucketOverdue,
	BucketUnscheduled, BucketAnytime, BucketSomeday, BucketLogbook,
}

// BucketView is one named bucket computed against Date. The logbook fills
// Days instead of Tasks.
type BucketView struct {
	Name  string                `json:"name"`
	Date  string                `json:"date"`
	Tasks []models.Task         `json:"tasks"`
	Days  []schedule.LogbookDay `json:"days,omitempty"`
}

// DayView is the detail of one calendar day.
type DayView struct {
	Date        string          `json:"date"`
	Label       string          `json:"label"`
	TimeBlocked []models.Task   `json:"timeBlocked"`
	AllDay      []models.Task   `json:"allDay"`
	Conflicts   []conflict.Pair `json:"conflicts"`
}

// MaxViewDays bounds the calendar and timeline ranges.
const MaxViewDays = 366

// Board partitions the open tasks against today.
func (s *Service) Board(ctx context.Context) (*schedule.Board, error) {
	today := s.Today()
	tasks, err := s.store.ListByStatus(ctx, models.TaskStatusInbox, models.TaskStatusActive)
	if err != nil {
		return nil, err
	}
	b := schedule.Plan(tasks, today, s.upcomingDays)
	return &b, nil
}

// Bucket computes one named bucket.
func (s *Service) Bucket(ctx context.Context, name string) (*BucketView, error) {
	today := s.Today()
	view := &BucketView{Name: name, Date: today}

	if name == BucketLogbook {
		tasks, err := s.store.ListByStatus(ctx, models.TaskStatusCompleted)
		if err != nil {
			return nil, err
		}
		view.Tasks = []models.Task{}
		view.Days = schedule.Logbook(tasks, s.clock().Location())
		return view, nil
	}

	var pick func([]models.Task) []models.Task
	switch name {
	case BucketToday:
		pick = func(ts []models.Task) []models.Task { return schedule.Today(ts, today) }
	case BucketEvening:
		pick = func(ts []models.Task) []models.Task { return schedule.Evening(ts, today) }
	case BucketUpcoming:
		pick = func(ts []models.Task) []models.Task { return schedule.Upcoming(ts, today, s.upcomingDays) }
	case BucketOverdue:
		pick = func(ts []models.Task) []models.Task { return schedule.Overdue(ts, today) }
	case BucketUnscheduled:
		pick = schedule.Unscheduled
	case BucketAnytime:
		pick = schedule.Anytime
	case BucketSomeday:
		pick = schedule.Someday
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBucket, name)
	}

	tasks, err := s.store.ListByStatus(ctx, models.TaskStatusInbox, models.TaskStatusActive)
	if err != nil {
		return nil, err
	}
	view.Tasks = pick(tasks)
	return view, nil
}

// Calendar lays out the tasks dated within [start, end].
func (s *Service) Calendar(ctx context.Context, start, end string) ([]schedule.Day, error) {
	if err := checkDates(start, end); err != nil {
		return nil, err
	}
	if n, _ := datekit.DaysBetween(start, end); n+1 > MaxViewDays {
		return nil, invalidf("range %s..%s covers more than %d days", start, end, MaxViewDays)
	}
	today := s.Today()
	tasks, err := s.store.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return schedule.Calendar(tasks, start, end, today), nil
}

// Timeline covers the next days starting today. Non-positive days use the
// configured default.
func (s *Service) Timeline(ctx context.Context, days int) ([]schedule.Day, error) {
	if days <= 0 {
		days = s.timelineDays
	}
	if days > MaxViewDays {
		return nil, invalidf("timeline of %d days exceeds %d", days, MaxViewDays)
	}
	today := s.Today()
	end, err := datekit.AddDays(today, days-1)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListByDateRange(ctx, today, end)
	if err != nil {
		return nil, err
	}
	return schedule.Timeline(tasks, today, days), nil
}

// Week returns the week containing date. An empty date means today.
func (s *Service) Week(ctx context.Context, date string) ([]schedule.Day, error) {
	today := s.Today()
	if date == "" {
		date = today
	}
	d, err := datekit.ParseDate(date)
	if err != nil {
		return nil, invalid(err)
	}
	start := datekit.FormatDate(datekit.StartOfWeek(d, s.weekStart))
	end := datekit.FormatDate(datekit.EndOfWeek(d, s.weekStart))
	tasks, err := s.store.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return schedule.WeekView(tasks, date, today, s.weekStart), nil
}

// Month returns the week grid covering the month containing date. An empty
// date means today.
func (s *Service) Month(ctx context.Context, date string) ([]schedule.Week, error) {
	today := s.Today()
	if date == "" {
		date = today
	}
	d, err := datekit.ParseDate(date)
	if err != nil {
		return nil, invalid(err)
	}
	start := datekit.FormatDate(datekit.StartOfWeek(datekit.StartOfMonth(d), s.weekStart))
	end := datekit.FormatDate(datekit.EndOfWeek(datekit.EndOfMonth(d), s.weekStart))
	tasks, err := s.store.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return schedule.MonthView(tasks, date, today, s.weekStart), nil
}

// Day returns the time-blocked and all-day tasks on date with their
// conflicts. An empty date means today.
func (s *Service) Day(ctx context.Context, date string) (*DayView, error) {
	today := s.Today()
	if date == "" {
		date = today
	}
	tasks, err := s.onDate(ctx, date)
	if err != nil {
		return nil, err
	}
	pairs := conflict.ForDate(tasks, date)
	s.metrics.Conflicts(len(pairs))
	return &DayView{
		Date:        date,
		Label:       datekit.DayLabel(date, today),
		TimeBlocked: schedule.TimeBlocked(tasks, date),
		AllDay:      schedule.AllDay(tasks, date),
		Conflicts:   pairs,
	}, nil
}

// Conflicts reports the overlapping time blocks on date. An empty date means
// today.
func (s *Service) Conflicts(ctx context.Context, date string) ([]conflict.Pair, error) {
	if date == "" {
		date = s.Today()
	}
	tasks, err := s.onDate(ctx, date)
	if err != nil {
		return nil, err
	}
	pairs := conflict.ForDate(tasks, date)
	s.metrics.Conflicts(len(pairs))
	return pairs, nil
}

func (s *Service) onDate(ctx context.Context, date string) ([]models.Task, error) {
	if _, err := datekit.ParseDate(date); err != nil {
		return nil, invalid(err)
	}
	return s.store.ListByDateRange(ctx, date, date)
}

func checkDates(dates ...string) error {
	for _, d := range dates {
		if _, err := datekit.ParseDate(d); err != nil {
			return invalid(err)
		}
	}
	return nil
}
