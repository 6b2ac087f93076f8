package schedule

import (
	"time"

	"github.com/fentz26/cadence/internal/datekit"
	"github.com/fentz26/cadence/internal/models"
)

// DefaultTimelineDays is the span of the timeline view.
const DefaultTimelineDays = 30

// Day is one cell of a calendar or timeline view.
type Day struct {
	Date    string        `json:"date"`
	Label   string        `json:"label,omitempty"`
	InMonth bool          `json:"inMonth"`
	Tasks   []models.Task `json:"tasks"`
}

// Week is one row of a month grid.
type Week struct {
	Number int   `json:"number"`
	Days   []Day `json:"days"`
}

// Calendar lays out [start, end] day by day. Each task appears once, under
// its GroupKey. An inverted or malformed range yields no days.
func Calendar(tasks []models.Task, start, end, today string) []Day {
	dates := datekit.Span(start, end)
	if len(dates) == 0 {
		return []Day{}
	}

	byDate := make(map[string][]models.Task, len(dates))
	for _, t := range DateRange(tasks, start, end) {
		key, _ := GroupKey(&t, start, end)
		byDate[key] = append(byDate[key], t)
	}

	days := make([]Day, 0, len(dates))
	for _, d := range dates {
		list := byDate[d]
		if list == nil {
			list = []models.Task{}
		}
		days = append(days, Day{
			Date:    d,
			Label:   datekit.DayLabel(d, today),
			InMonth: true,
			Tasks:   list,
		})
	}
	return days
}

// Timeline returns the next `days` days starting at today.
func Timeline(tasks []models.Task, today string, days int) []Day {
	if days < 1 {
		return []Day{}
	}
	end, err := datekit.AddDays(today, days-1)
	if err != nil {
		return []Day{}
	}
	return Calendar(tasks, today, end, today)
}

// WeekView returns the seven days of the week containing date.
func WeekView(tasks []models.Task, date, today string, ws datekit.WeekStart) []Day {
	d, err := datekit.ParseDate(date)
	if err != nil {
		return []Day{}
	}
	start := datekit.FormatDate(datekit.StartOfWeek(d, ws))
	end := datekit.FormatDate(datekit.EndOfWeek(d, ws))
	return Calendar(tasks, start, end, today)
}

// MonthView returns full weeks covering the month containing date. Days from
// neighbouring months are included with InMonth=false so the grid is regular.
func MonthView(tasks []models.Task, date, today string, ws datekit.WeekStart) []Week {
	d, err := datekit.ParseDate(date)
	if err != nil {
		return []Week{}
	}
	first := datekit.StartOfMonth(d)
	last := datekit.EndOfMonth(d)
	gridStart := datekit.StartOfWeek(first, ws)
	gridEnd := datekit.EndOfWeek(last, ws)

	days := Calendar(tasks, datekit.FormatDate(gridStart), datekit.FormatDate(gridEnd), today)
	weeks := make([]Week, 0, len(days)/7)
	for i := 0; i+7 <= len(days); i += 7 {
		row := days[i : i+7]
		for j := range row {
			row[j].InMonth = sameMonth(row[j].Date, first)
		}
		anchor, _ := datekit.ParseDate(row[0].Date)
		weeks = append(weeks, Week{Number: datekit.WeekOfYear(anchor.AddDate(0, 0, 3)), Days: row})
	}
	return weeks
}

func sameMonth(date string, first time.Time) bool {
	d, err := datekit.ParseDate(date)
	if err != nil {
		return false
	}
	return d.Year() == first.Year() && d.Month() == first.Month()
}
