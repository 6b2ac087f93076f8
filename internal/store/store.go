// Package store provides SQLite-backed persistence for Cadence.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/fentz26/cadence/internal/logging"
	"github.com/fentz26/cadence/internal/models"
)

// Tasks is the task surface shared by Store and Tx.
type Tasks interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	ListByStatus(ctx context.Context, statuses ...models.TaskStatus) ([]models.Task, error)
	ListByDateRange(ctx context.Context, start, end string) ([]models.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Task, error)
	ListByParent(ctx context.Context, parentID string) ([]models.Task, error)
	InsertTask(ctx context.Context, task models.Task) error
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch, now time.Time) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Store provides access to the Cadence SQLite database.
type Store struct {
	taskOps
	db *sqlx.DB
}

// Tx is a Tasks view bound to one open transaction. See InTx.
type Tx struct {
	taskOps
}

var (
	_ Tasks = (*Store)(nil)
	_ Tasks = (*Tx)(nil)
)

// New opens (creating if needed) the database at dbPath and runs migrations.
func New(dbPath string, log *logging.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{
		taskOps: taskOps{q: db, log: logging.OrNop(log).WithComponent("store")},
		db:      db,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InTx runs fn inside a transaction. Any error from fn rolls everything back.
func (s *Store) InTx(ctx context.Context, fn func(Tasks) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{taskOps: taskOps{q: tx, log: s.log}}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpdateTask applies a patch atomically. The read and the write share one
// transaction so concurrent patches cannot interleave.
func (s *Store) UpdateTask(ctx context.Context, id string, patch models.TaskPatch, now time.Time) (*models.Task, error) {
	var updated *models.Task
	err := s.InTx(ctx, func(tx Tasks) error {
		var err error
		updated, err = tx.UpdateTask(ctx, id, patch, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'inbox',
		priority INTEGER NOT NULL DEFAULT 0,
		due_date TEXT,
		due_time TEXT,
		scheduled_date TEXT,
		duration INTEGER,
		is_evening INTEGER NOT NULL DEFAULT 0,
		kanban_column TEXT,
		project_id TEXT,
		area_id TEXT,
		parent_id TEXT,
		tags TEXT NOT NULL DEFAULT '[]',
		checklist TEXT NOT NULL DEFAULT '[]',
		recurring_rule TEXT,
		completed_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS saved_filters (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		filter TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS decision_records (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		task_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
	CREATE INDEX IF NOT EXISTS idx_tasks_scheduled_date ON tasks(scheduled_date);
	CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_parent_id ON tasks(parent_id);
	CREATE INDEX IF NOT EXISTS idx_decision_records_task_id ON decision_records(task_id);
	`

	_, err := s.db.Exec(schema)
	return err
}
