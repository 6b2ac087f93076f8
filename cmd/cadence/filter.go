package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fentz26/cadence/internal/filter"
	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/planner"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Manage saved filters",
}

var filterSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the given criteria under a name",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilterSave,
}

var filterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved filters",
	RunE:  runFilterList,
}

var filterRunCmd = &cobra.Command{
	Use:   "run <name-or-id>",
	Short: "List the tasks a saved filter matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilterRun,
}

var filterRmCmd = &cobra.Command{
	Use:   "rm <name-or-id>",
	Short: "Delete a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilterRm,
}

// criteria flags shared by task list and filter save
var (
	fltStatus   []string
	fltPriority []int
	fltTags     []string
	fltProject  string
	fltArea     string
	fltSearch   string
	fltFrom     string
	fltTo       string
	fltHasDate  bool
	fltEvening  bool
	filterID    string
)

func init() {
	filterCmd.AddCommand(filterSaveCmd, filterListCmd, filterRunCmd, filterRmCmd)
	addFilterFlags(filterSaveCmd)
	filterSaveCmd.Flags().StringVar(&filterID, "id", "", "Replace the filter with this id")
}

func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVar(&fltStatus, "status", nil, "Match status (repeatable)")
	f.IntSliceVar(&fltPriority, "priority", nil, "Match priority (repeatable)")
	f.StringSliceVarP(&fltTags, "tag", "t", nil, "Require tag (repeatable)")
	f.StringVar(&fltProject, "project", "", "Match project (none for no project)")
	f.StringVar(&fltArea, "area", "", "Match area (none for no area)")
	f.StringVarP(&fltSearch, "search", "q", "", "Search title and notes")
	f.StringVar(&fltFrom, "from", "", "Due on or after YYYY-MM-DD")
	f.StringVar(&fltTo, "to", "", "Due on or before YYYY-MM-DD")
	f.BoolVar(&fltHasDate, "has-date", false, "Match tasks with (true) or without (false) a date")
	f.BoolVar(&fltEvening, "evening", false, "Match evening (true) or non-evening (false) tasks")
}

// filterFromFlags builds a Filter from the criteria the user passed.
func filterFromFlags(cmd *cobra.Command) models.Filter {
	f := models.Filter{
		Tags:        fltTags,
		SearchQuery: fltSearch,
		DueDateFrom: optional(fltFrom),
		DueDateTo:   optional(fltTo),
	}
	for _, s := range fltStatus {
		f.Status = append(f.Status, models.TaskStatus(s))
	}
	for _, p := range fltPriority {
		f.Priority = append(f.Priority, models.Priority(p))
	}
	flags := cmd.Flags()
	if flags.Changed("project") {
		f.ProjectID = models.Some(nullable(fltProject))
	}
	if flags.Changed("area") {
		f.AreaID = models.Some(nullable(fltArea))
	}
	if flags.Changed("has-date") {
		v := fltHasDate
		f.HasDate = &v
	}
	if flags.Changed("evening") {
		v := fltEvening
		f.IsEvening = &v
	}
	return f
}

func runFilterSave(cmd *cobra.Command, args []string) error {
	in := planner.SaveFilterInput{ID: filterID, Name: args[0], Filter: filterFromFlags(cmd)}
	return withApp(func(ctx context.Context, a *app) error {
		sf, err := a.svc.SaveFilter(ctx, in)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), sf)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved filter %q: %s\n", sf.Name, sf.ID)
		return nil
	})
}

func runFilterList(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		filters, err := a.svc.ListFilters(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), filters)
		}
		if len(filters) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved filters")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCRITERIA\tUPDATED")
		for _, sf := range filters {
			criteria := strings.Join(filter.ActiveNames(sf.Filter), ",")
			if criteria == "" {
				criteria = "all"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", truncateID(sf.ID), sf.Name, criteria, sf.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	})
}

func runFilterRun(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		id, err := resolveFilter(ctx, a, args[0])
		if err != nil {
			return err
		}
		tasks, err := a.svc.RunFilter(ctx, id)
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

func runFilterRm(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		id, err := resolveFilter(ctx, a, args[0])
		if err != nil {
			return err
		}
		if err := a.svc.DeleteFilter(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted filter %s\n", id)
		return nil
	})
}

// resolveFilter maps a filter name or id to its id. Unknown references pass
// through so the service reports them as not found.
func resolveFilter(ctx context.Context, a *app, ref string) (string, error) {
	filters, err := a.svc.ListFilters(ctx)
	if err != nil {
		return "", err
	}
	for _, sf := range filters {
		if sf.Name == ref || sf.ID == ref {
			return sf.ID, nil
		}
	}
	return ref, nil
}
