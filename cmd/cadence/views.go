package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fentz26/cadence/internal/conflict"
	"github.com/fentz26/cadence/internal/datekit"
	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/planner"
	"github.com/fentz26/cadence/internal/schedule"
)

var viewCmd = &cobra.Command{
	Use:   "view <bucket>",
	Short: "Show a bucket: board, " + strings.Join(planner.BucketNames, ", "),
	Args:  cobra.ExactArgs(1),
	RunE:  runView,
}

var calendarCmd = &cobra.Command{
	Use:   "calendar [week|month|day]",
	Short: "Show tasks by calendar day",
	Long: `Without a mode, lists every day from --start to --end. week and month show the
period containing --date; day shows time blocks, all-day tasks and conflicts.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"week", "month", "day"},
	RunE:      runCalendar,
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show the next days starting today",
	RunE:  runTimeline,
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List overlapping time blocks on a day",
	RunE:  runConflicts,
}

var nextCmd = &cobra.Command{
	Use:   "next <daily|weekly|monthly|yearly>",
	Short: "Preview the next occurrences of a recurrence rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runNext,
}

var (
	calStart     string
	calEnd       string
	calDate      string
	timelineDays int
	nextFrom     string
	nextCount    int
)

func init() {
	calendarCmd.Flags().StringVar(&calStart, "start", "", "First day YYYY-MM-DD (default today)")
	calendarCmd.Flags().StringVar(&calEnd, "end", "", "Last day YYYY-MM-DD (default start + 6 days)")
	calendarCmd.Flags().StringVar(&calDate, "date", "", "Anchor date for week, month and day (default today)")

	timelineCmd.Flags().IntVar(&timelineDays, "days", 0, "Number of days (default timeline_days)")

	conflictsCmd.Flags().StringVar(&calDate, "date", "", "Day YYYY-MM-DD (default today)")

	nextCmd.Flags().IntVar(&taskEvery, "every", 1, "Repeat interval")
	nextCmd.Flags().StringVar(&taskDays, "days", "", "Weekdays for weekly repeats, e.g. mon,wed,fri")
	nextCmd.Flags().StringVar(&nextFrom, "from", "", "Start date YYYY-MM-DD (default today)")
	nextCmd.Flags().IntVarP(&nextCount, "count", "n", 5, "How many dates")
}

func runView(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		out := cmd.OutOrStdout()
		if args[0] == "board" {
			board, err := a.svc.Board(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, board)
			}
			printBoard(out, board)
			return nil
		}

		view, err := a.svc.Bucket(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, view)
		}
		if view.Name == planner.BucketLogbook {
			if len(view.Days) == 0 {
				fmt.Fprintln(out, "Nothing completed yet")
			}
			for _, day := range view.Days {
				fmt.Fprintf(out, "%s\n", day.Date)
				printTasks(out, day.Tasks)
				fmt.Fprintln(out)
			}
			return nil
		}
		printTasks(out, view.Tasks)
		return nil
	})
}

func printBoard(w io.Writer, b *schedule.Board) {
	sections := []struct {
		name  string
		tasks []models.Task
	}{
		{"Overdue", b.Overdue},
		{"Today", b.TodayTasks},
		{"This Evening", b.Evening},
		{"Later", b.Later},
		{"Unscheduled", b.Unscheduled},
	}
	fmt.Fprintf(w, "Board for %s\n\n", b.Today)
	for _, s := range sections {
		fmt.Fprintf(w, "%s (%d)\n", s.name, len(s.tasks))
		for _, t := range s.tasks {
			fmt.Fprintf(w, "  - %s %s\n", truncateID(t.ID), t.Title)
		}
	}
}

func runCalendar(cmd *cobra.Command, args []string) error {
	mode := ""
	if len(args) == 1 {
		mode = args[0]
	}
	return withApp(func(ctx context.Context, a *app) error {
		out := cmd.OutOrStdout()
		switch mode {
		case "":
			start := calStart
			if start == "" {
				start = a.svc.Today()
			}
			end := calEnd
			if end == "" {
				var err error
				if end, err = datekit.AddDays(start, 6); err != nil {
					return err
				}
			}
			days, err := a.svc.Calendar(ctx, start, end)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, days)
			}
			printDays(out, days)
		case "week":
			days, err := a.svc.Week(ctx, calDate)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, days)
			}
			printDays(out, days)
		case "month":
			weeks, err := a.svc.Month(ctx, calDate)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, weeks)
			}
			for _, wk := range weeks {
				fmt.Fprintf(out, "Week %d\n", wk.Number)
				var inMonth []schedule.Day
				for _, d := range wk.Days {
					if d.InMonth && len(d.Tasks) > 0 {
						inMonth = append(inMonth, d)
					}
				}
				printDays(out, inMonth)
			}
		case "day":
			day, err := a.svc.Day(ctx, calDate)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, day)
			}
			fmt.Fprintf(out, "%s  %s\n", day.Date, day.Label)
			clashing := conflict.Conflicting(day.Conflicts)
			for _, t := range day.TimeBlocked {
				mark := " "
				if clashing[t.ID] {
					mark = "!"
				}
				fmt.Fprintf(out, "%s %-11s %s\n", mark, when(t), t.Title)
			}
			for _, t := range day.AllDay {
				fmt.Fprintf(out, "  %-11s %s\n", "all day", t.Title)
			}
			if len(day.Conflicts) > 0 {
				fmt.Fprintln(out)
				printConflicts(out, day.Conflicts)
			}
		default:
			return fmt.Errorf("unknown calendar mode %q (want week, month or day)", mode)
		}
		return nil
	})
}

func runTimeline(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		days, err := a.svc.Timeline(ctx, timelineDays)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), days)
		}
		var busy []schedule.Day
		for _, d := range days {
			if len(d.Tasks) > 0 {
				busy = append(busy, d)
			}
		}
		if len(busy) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing on the timeline")
		}
		printDays(cmd.OutOrStdout(), busy)
		return nil
	})
}

func runConflicts(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		pairs, err := a.svc.Conflicts(ctx, calDate)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), pairs)
		}
		printConflicts(cmd.OutOrStdout(), pairs)
		return nil
	})
}

func runNext(cmd *cobra.Command, args []string) error {
	taskRepeat = args[0]
	rule, err := ruleFromFlags()
	if err != nil {
		return err
	}
	if rule == nil {
		return fmt.Errorf("a frequency is required")
	}
	return withApp(func(ctx context.Context, a *app) error {
		from := nextFrom
		if from == "" {
			from = a.svc.Today()
		}
		dates, err := a.svc.NextOccurrences(*rule, from, nextCount)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), dates)
		}
		for _, d := range dates {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		return nil
	})
}
