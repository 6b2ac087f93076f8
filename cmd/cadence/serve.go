package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/cadence/internal/events"
	"github.com/fentz26/cadence/internal/planner"
	"github.com/fentz26/cadence/internal/scheduler"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Cadence API server",
	Long:  `Starts the loopback HTTP API and the day-rollover scheduler.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides listen)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Listen
	if listenAddr != "" {
		addr = listenAddr
	}
	a.log.Infow("Starting Cadence server", "addr", addr, "db", a.cfg.DBPath)

	server := planner.NewServer(a.svc, planner.ServerOptions{
		Addr:      addr,
		RateLimit: a.cfg.RateLimit,
		Metrics:   a.metrics,
		Logger:    a.log,
	})

	sched := startRollover(a)
	defer sched.Stop()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		a.log.Infow("Received signal, initiating graceful shutdown", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			a.log.Errorw("Server error", "error", err)
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	a.log.Infow("Shutting down HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Warnw("HTTP server shutdown error", "error", err)
	}
	a.log.Infow("Shutdown complete")
	return nil
}

// startRollover starts the day-rollover poller and counts each rollover.
func startRollover(a *app) *scheduler.Scheduler {
	sched := scheduler.New(a.hub, nil, &scheduler.Config{Interval: a.cfg.RolloverInterval}, a.log)

	// The hub closes the channel on shutdown.
	days, _ := a.hub.Subscribe(events.DayChanged)
	go func() {
		for range days {
			a.metrics.Rollover()
		}
	}()

	sched.Start()
	return sched
}
