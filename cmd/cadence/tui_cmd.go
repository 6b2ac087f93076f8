package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/cadence/internal/config"
	"github.com/fentz26/cadence/internal/events"
	"github.com/fentz26/cadence/internal/logging"
	"github.com/fentz26/cadence/internal/tui"
)

var (
	tuiAddr string
	tuiPoll time.Duration
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	Long: `Opens the bucket switcher. By default it works on the local database and
refreshes on every change; with --addr it talks to a running "cadence serve" and
polls instead.`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiAddr, "addr", "", "API server address, e.g. 127.0.0.1:7466")
	tuiCmd.Flags().DurationVar(&tuiPoll, "poll", tui.DefaultPollInterval, "Refresh interval in --addr mode")
}

func runTUI(cmd *cobra.Command, args []string) error {
	if tuiAddr != "" {
		client := tui.NewClient(tuiAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("API not reachable at %s: %w", tuiAddr, err)
		}
		return runProgram(tui.New(client, tui.Options{PollInterval: tuiPoll}))
	}

	// Logs would draw over the screen, so they go to a file.
	a, err := openApp(logToFile)
	if err != nil {
		return err
	}
	defer a.Close()

	changes, cancel := a.hub.Subscribe(events.TasksChanged, events.DayChanged)
	defer cancel()

	sched := startRollover(a)
	defer sched.Stop()

	return runProgram(tui.New(a.svc, tui.Options{Events: changes}))
}

func runProgram(app *tui.App) error {
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func logToFile(opts *logging.Options) {
	if opts.Output == "" || opts.Output == "stderr" || opts.Output == "stdout" {
		opts.Output = filepath.Join(config.Dir(), "tui.log")
	}
}
