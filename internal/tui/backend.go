package tui

import (
	"context"

	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/planner"
)

// Backend is what the TUI reads from and acts on. *planner.Service satisfies
// it in-process; *Client satisfies it against a running API.
type Backend interface {
	Bucket(ctx context.Context, name string) (*planner.BucketView, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	History(ctx context.Context, taskID string, limit int) ([]models.DecisionRecord, error)
	CreateTask(ctx context.Context, in planner.CreateTaskInput) (*models.Task, error)
	CompleteTask(ctx context.Context, id string) (*planner.Completion, error)
	ReopenTask(ctx context.Context, id string) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

var (
	_ Backend = (*planner.Service)(nil)
	_ Backend = (*Client)(nil)
)
