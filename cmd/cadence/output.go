package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fentz26/cadence/internal/conflict"
	"github.com/fentz26/cadence/internal/datekit"
	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/schedule"
)

var jsonOutput bool

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTasks(w io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRI\tDUE\tWHEN\tTAGS")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(t.ID),
			truncate(t.Title, 40),
			t.Status,
			priorityMark(t.Priority),
			deref(t.DueDate),
			when(t),
			strings.Join(t.Tags, ","),
		)
	}
	tw.Flush()
}

func printTask(w io.Writer, t *models.Task) {
	fmt.Fprintf(w, "ID:          %s\n", t.ID)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	fmt.Fprintf(w, "Status:      %s\n", t.Status)
	fmt.Fprintf(w, "Priority:    %s\n", t.Priority)
	if t.DueDate != nil {
		fmt.Fprintf(w, "Due:         %s\n", *t.DueDate)
	}
	if t.ScheduledDate != nil {
		fmt.Fprintf(w, "Scheduled:   %s\n", *t.ScheduledDate)
	}
	if t.DueTime != nil {
		fmt.Fprintf(w, "Time:        %s\n", when(*t))
	}
	if t.IsEvening {
		fmt.Fprintln(w, "Evening:     yes")
	}
	if t.ProjectID != nil {
		fmt.Fprintf(w, "Project:     %s\n", *t.ProjectID)
	}
	if t.AreaID != nil {
		fmt.Fprintf(w, "Area:        %s\n", *t.AreaID)
	}
	if t.ParentID != nil {
		fmt.Fprintf(w, "Parent:      %s\n", *t.ParentID)
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(w, "Tags:        %s\n", strings.Join(t.Tags, ", "))
	}
	if r := t.RecurringRule; r != nil {
		rule := fmt.Sprintf("every %d %s", r.Interval, r.Frequency)
		if days := r.Weekdays(); len(days) > 0 {
			names := make([]string, len(days))
			for i, d := range days {
				names[i] = time.Weekday(d).String()[:3]
			}
			rule += " on " + strings.Join(names, ",")
		}
		fmt.Fprintf(w, "Repeats:     %s\n", rule)
	}
	if t.CompletedAt != nil {
		fmt.Fprintf(w, "Completed:   %s\n", t.CompletedAt.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Created:     %s\n", t.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Updated:     %s\n", t.UpdatedAt.Local().Format(time.RFC3339))
	if t.Notes != "" {
		fmt.Fprintf(w, "\n%s\n", t.Notes)
	}
	if len(t.Checklist) > 0 {
		fmt.Fprintln(w, "\nChecklist:")
		for _, item := range t.Checklist {
			box := "[ ]"
			if item.Done {
				box = "[x]"
			}
			fmt.Fprintf(w, "  %s %s\n", box, item.Text)
		}
	}
}

func printDays(w io.Writer, days []schedule.Day) {
	for _, d := range days {
		header := d.Date
		if d.Label != "" {
			header += "  " + d.Label
		}
		fmt.Fprintln(w, header)
		for _, t := range d.Tasks {
			line := "  - " + t.Title
			if t.DueTime != nil {
				line = fmt.Sprintf("  - %s %s", *t.DueTime, t.Title)
			}
			fmt.Fprintln(w, line)
		}
	}
}

func printConflicts(w io.Writer, pairs []conflict.Pair) {
	if len(pairs) == 0 {
		fmt.Fprintln(w, "No conflicts")
		return
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "%s (%s) overlaps %s (%s)\n", p.A.Title, when(p.A), p.B.Title, when(p.B))
	}
}

func when(t models.Task) string {
	if t.DueTime == nil {
		return ""
	}
	if start, ok := schedule.StartMinutes(&t); ok && t.Duration != nil {
		return datekit.FormatClockTime(start) + "-" + datekit.FormatClockTime(start+*t.Duration)
	}
	return *t.DueTime
}

func priorityMark(p models.Priority) string {
	return strings.Repeat("!", int(p))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
