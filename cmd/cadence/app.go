package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/cadence/internal/config"
	"github.com/fentz26/cadence/internal/events"
	"github.com/fentz26/cadence/internal/logging"
	"github.com/fentz26/cadence/internal/metrics"
	"github.com/fentz26/cadence/internal/planner"
	"github.com/fentz26/cadence/internal/store"
)

// commandTimeout bounds one-shot CLI commands.
const commandTimeout = 30 * time.Second

// app bundles the components every command needs.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	store   *store.Store
	metrics *metrics.Metrics
	hub     *events.Hub
	svc     *planner.Service
}

// openApp loads configuration and wires the store, logger and service.
// adjust, when non-nil, may rewrite the log options first.
func openApp(adjust func(*logging.Options)) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logOpts := logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if adjust != nil {
		adjust(&logOpts)
	}
	log, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath, log)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	hub := events.NewHub()

	svc := planner.NewService(st, planner.Options{
		WeekStart:    cfg.WeekStartDay(),
		UpcomingDays: cfg.UpcomingDays,
		TimelineDays: cfg.TimelineDays,
		Events:       hub,
		Metrics:      m,
		Logger:       log,
	})

	return &app{cfg: cfg, log: log, store: st, metrics: m, hub: hub, svc: svc}, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbOverride != "" {
		cfg.DBPath = config.ExpandHome(dbOverride)
	}
	return cfg, nil
}

func (a *app) Close() {
	a.hub.Close()
	if err := a.store.Close(); err != nil {
		a.log.Warnw("Database close error", "error", err)
	}
	_ = a.log.Close()
}

// quietLogs keeps one-shot commands from printing routine info lines.
func quietLogs(opts *logging.Options) {
	if opts.Level == "" || opts.Level == "info" {
		opts.Level = "warn"
	}
}

// withApp runs fn against a freshly opened app with a bounded context.
func withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(quietLogs)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return fn(ctx, a)
}
