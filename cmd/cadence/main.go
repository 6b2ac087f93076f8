package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Cadence - personal task planner",
	Long: `Cadence is a local-first task planner: recurring tasks, Today/Upcoming/Overdue
buckets, calendar and timeline views, time-block conflicts and saved filters.`,
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	configPath string
	dbOverride string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.cadence/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "Path to SQLite database (overrides db_path)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
