package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/planner"
	"github.com/fentz26/cadence/internal/store"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a new task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Change task fields; pass none to clear a date, time or project",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUpdate,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Complete a task, spawning the next occurrence if it repeats",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskReopenCmd = &cobra.Command{
	Use:   "reopen <task-id>",
	Short: "Reopen a completed or cancelled task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskReopen,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

var taskHistoryCmd = &cobra.Command{
	Use:   "history <task-id>",
	Short: "Show the decision records of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskHistory,
}

var taskBatchCmd = &cobra.Command{
	Use:   "batch <op> <task-id>...",
	Short: "Apply one operation (move, tag, schedule, status, delete) to several tasks at once",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskBatch,
}

// task field flags shared by add, update and batch
var (
	taskNotes     string
	taskStatus    string
	taskPriority  int
	taskDue       string
	taskTime      string
	taskOn        string
	taskDuration  int
	taskEvening   bool
	taskProject   string
	taskArea      string
	taskParent    string
	taskColumn    string
	taskTags      []string
	taskUntag     []string
	taskChecklist []string
	taskRepeat    string
	taskEvery     int
	taskDays      string
	taskTitle     string
	historyLimit  int
)

var listParent string

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskUpdateCmd, taskDoneCmd,
		taskReopenCmd, taskRmCmd, taskHistoryCmd, taskBatchCmd)

	for _, c := range []*cobra.Command{taskAddCmd, taskUpdateCmd} {
		f := c.Flags()
		f.StringVar(&taskNotes, "notes", "", "Free-form notes")
		f.StringVar(&taskStatus, "status", "", "Status (inbox, active, completed, cancelled)")
		f.IntVarP(&taskPriority, "priority", "p", 0, "Priority 0-3")
		f.StringVar(&taskDue, "due", "", "Due date YYYY-MM-DD")
		f.StringVar(&taskTime, "time", "", "Start time HH:MM")
		f.StringVar(&taskOn, "on", "", "Scheduled date YYYY-MM-DD")
		f.IntVar(&taskDuration, "duration", 0, "Time block length in minutes")
		f.BoolVar(&taskEvening, "evening", false, "Belongs to this evening")
		f.StringVar(&taskProject, "project", "", "Project id")
		f.StringVar(&taskArea, "area", "", "Area id")
		f.StringVar(&taskColumn, "column", "", "Kanban column")
		f.StringVar(&taskRepeat, "repeat", "", "Repeat daily, weekly, monthly or yearly")
		f.IntVar(&taskEvery, "every", 1, "Repeat interval")
		f.StringVar(&taskDays, "days", "", "Weekdays for weekly repeats, e.g. mon,wed,fri")
	}
	taskAddCmd.Flags().StringVar(&taskParent, "parent", "", "Parent task id")
	taskAddCmd.Flags().StringSliceVarP(&taskTags, "tag", "t", nil, "Tag (repeatable)")
	taskAddCmd.Flags().StringSliceVar(&taskChecklist, "check", nil, "Checklist item (repeatable)")
	taskUpdateCmd.Flags().StringVar(&taskTitle, "title", "", "New title")
	taskUpdateCmd.Flags().StringSliceVarP(&taskTags, "tags", "t", nil, "Replace all tags")

	taskBatchCmd.Flags().StringVar(&taskProject, "project", "", "Target project for move (none clears)")
	taskBatchCmd.Flags().StringVar(&taskArea, "area", "", "Target area for move (none clears)")
	taskBatchCmd.Flags().StringVar(&taskColumn, "column", "", "Target kanban column for move (none clears)")
	taskBatchCmd.Flags().StringSliceVar(&taskTags, "add", nil, "Tags to add")
	taskBatchCmd.Flags().StringSliceVar(&taskUntag, "remove", nil, "Tags to remove")
	taskBatchCmd.Flags().StringVar(&taskOn, "date", "", "Scheduled date for schedule (none clears)")
	taskBatchCmd.Flags().StringVar(&taskStatus, "status", "", "Status for status")

	addFilterFlags(taskListCmd)
	taskListCmd.Flags().StringVar(&listParent, "parent", "", "List subtasks of a task")

	taskHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum records")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	rule, err := ruleFromFlags()
	if err != nil {
		return err
	}
	in := planner.CreateTaskInput{
		Title:         strings.Join(args, " "),
		Notes:         taskNotes,
		Status:        models.TaskStatus(taskStatus),
		Priority:      models.Priority(taskPriority),
		DueDate:       optional(taskDue),
		DueTime:       optional(taskTime),
		ScheduledDate: optional(taskOn),
		IsEvening:     taskEvening,
		KanbanColumn:  optional(taskColumn),
		ProjectID:     optional(taskProject),
		AreaID:        optional(taskArea),
		Tags:          taskTags,
		Checklist:     taskChecklist,
		RecurringRule: rule,
	}
	if taskDuration > 0 {
		in.Duration = models.IntPtr(taskDuration)
	}

	return withApp(func(ctx context.Context, a *app) error {
		if taskParent != "" {
			parent, err := resolveID(ctx, a, taskParent)
			if err != nil {
				return err
			}
			in.ParentID = &parent
		}
		task, err := a.svc.CreateTask(ctx, in)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), task)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created task: %s\n", task.ID)
		return nil
	})
}

func runTaskList(cmd *cobra.Command, args []string) error {
	f := filterFromFlags(cmd)

	return withApp(func(ctx context.Context, a *app) error {
		var (
			tasks []models.Task
			err   error
		)
		if listParent != "" {
			parent, rerr := resolveID(ctx, a, listParent)
			if rerr != nil {
				return rerr
			}
			tasks, err = a.svc.Subtasks(ctx, parent)
		} else {
			tasks, err = a.svc.Query(ctx, f)
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), tasks)
		}
		printTasks(cmd.OutOrStdout(), tasks)
		return nil
	})
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		id, err := resolveID(ctx, a, args[0])
		if err != nil {
			return err
		}
		task, err := a.svc.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), task)
		}
		printTask(cmd.OutOrStdout(), task)
		return nil
	})
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	patch, err := patchFromFlags(cmd)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app) error {
		id, err := resolveID(ctx, a, args[0])
		if err != nil {
			return err
		}
		task, err := a.svc.UpdateTask(ctx, id, patch)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), task)
		}
		printTask(cmd.OutOrStdout(), task)
		return nil
	})
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		id, err := resolveID(ctx, a, args[0])
		if err != nil {
			return err
		}
		res, err := a.svc.CompleteTask(ctx, id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Completed task %s\n", res.Task.ID)
		if res.Next != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Next occurrence: %s due %s\n", res.Next.ID, deref(res.Next.DueDate))
		}
		return nil
	})
}

func runTaskReopen(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		id, err := resolveID(ctx, a, args[0])
		if err != nil {
			return err
		}
		task, err := a.svc.ReopenTask(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %s is %s\n", task.ID, task.Status)
		return nil
	})
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		id, err := resolveID(ctx, a, args[0])
		if err != nil {
			return err
		}
		if err := a.svc.DeleteTask(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
		return nil
	})
}

func runTaskHistory(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		id, err := resolveID(ctx, a, args[0])
		if err != nil {
			return err
		}
		records, err := a.svc.History(ctx, id, historyLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), records)
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No history")
			return nil
		}
		for _, r := range records {
			line := fmt.Sprintf("%s  %-16s %s", r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.Action, r.Outcome)
			if r.Details != "" {
				line += "  " + r.Details
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	})
}

func runTaskBatch(cmd *cobra.Command, args []string) error {
	req := planner.BatchRequest{
		Op:         args[0],
		AddTags:    taskTags,
		RemoveTags: taskUntag,
		Status:     models.TaskStatus(taskStatus),
	}
	if cmd.Flags().Changed("project") {
		req.ProjectID = models.Some(nullable(taskProject))
	}
	if cmd.Flags().Changed("area") {
		req.AreaID = models.Some(nullable(taskArea))
	}
	if cmd.Flags().Changed("column") {
		req.KanbanColumn = models.Some(nullable(taskColumn))
	}
	req.ScheduledDate = nullable(taskOn)

	return withApp(func(ctx context.Context, a *app) error {
		for _, ref := range args[1:] {
			id, err := resolveID(ctx, a, ref)
			if err != nil {
				return err
			}
			req.IDs = append(req.IDs, id)
		}
		res, err := a.svc.Batch(ctx, req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d task(s)\n", res.Op, res.Count)
		for _, next := range res.Spawned {
			fmt.Fprintf(cmd.OutOrStdout(), "Next occurrence: %s due %s\n", next.ID, deref(next.DueDate))
		}
		return nil
	})
}

// patchFromFlags turns the flags the user actually passed into a patch.
func patchFromFlags(cmd *cobra.Command) (models.TaskPatch, error) {
	var p models.TaskPatch
	f := cmd.Flags()
	if f.Changed("title") {
		p.Title = models.Some(taskTitle)
	}
	if f.Changed("notes") {
		p.Notes = models.Some(taskNotes)
	}
	if f.Changed("status") {
		p.Status = models.Some(models.TaskStatus(taskStatus))
	}
	if f.Changed("priority") {
		p.Priority = models.Some(models.Priority(taskPriority))
	}
	if f.Changed("due") {
		p.DueDate = models.Some(nullable(taskDue))
	}
	if f.Changed("time") {
		p.DueTime = models.Some(nullable(taskTime))
	}
	if f.Changed("on") {
		p.ScheduledDate = models.Some(nullable(taskOn))
	}
	if f.Changed("duration") {
		var d *int
		if taskDuration > 0 {
			d = models.IntPtr(taskDuration)
		}
		p.Duration = models.Some(d)
	}
	if f.Changed("evening") {
		p.IsEvening = models.Some(taskEvening)
	}
	if f.Changed("project") {
		p.ProjectID = models.Some(nullable(taskProject))
	}
	if f.Changed("area") {
		p.AreaID = models.Some(nullable(taskArea))
	}
	if f.Changed("column") {
		p.KanbanColumn = models.Some(nullable(taskColumn))
	}
	if f.Changed("tags") {
		p.Tags = models.Some(taskTags)
	}
	if f.Changed("repeat") || f.Changed("every") || f.Changed("days") {
		rule, err := ruleFromFlags()
		if err != nil {
			return p, err
		}
		p.RecurringRule = models.Some(rule)
	}
	return p, nil
}

// ruleFromFlags builds a rule from --repeat, --every and --days. An empty or
// "none" --repeat means no rule.
func ruleFromFlags() (*models.RecurringRule, error) {
	if taskRepeat == "" || taskRepeat == "none" {
		return nil, nil
	}
	rule := &models.RecurringRule{Frequency: models.Frequency(taskRepeat), Interval: taskEvery}
	if taskDays != "" {
		days, err := parseWeekdays(taskDays)
		if err != nil {
			return nil, err
		}
		rule.DaysOfWeek = days
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

var weekdayNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

// parseWeekdays accepts comma-separated names (mon) or numbers (1, Sunday = 0).
func parseWeekdays(s string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if len(part) > 3 {
			part = part[:3]
		}
		if d, ok := weekdayNames[part]; ok {
			days = append(days, d)
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %q", part)
		}
		days = append(days, d)
	}
	return days, nil
}

// resolveID accepts a full task id or a unique prefix of one, as printed by
// task list.
func resolveID(ctx context.Context, a *app, ref string) (string, error) {
	_, err := a.svc.GetTask(ctx, ref)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, store.ErrTaskNotFound) {
		return "", err
	}

	tasks, err := a.svc.ListTasks(ctx)
	if err != nil {
		return "", err
	}
	match := ""
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("ambiguous task id %q", ref)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", store.ErrTaskNotFound, ref)
	}
	return match, nil
}

// optional maps "" to nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullable maps "" and "none" to nil, for explicit clears.
func nullable(s string) *string {
	if s == "" || s == "none" {
		return nil
	}
	return &s
}
