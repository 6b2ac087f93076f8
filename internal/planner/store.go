package planner

import (
	"context"

	"github.com/fentz26/cadence/internal/audit"
	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/store"
)

// TaskStore is the storage collaborator the service runs against.
// *store.Store satisfies it.
type TaskStore interface {
	store.Tasks
	audit.Writer

	InTx(ctx context.Context, fn func(store.Tasks) error) error

	SaveFilter(ctx context.Context, sf models.SavedFilter) error
	GetFilter(ctx context.Context, id string) (*models.SavedFilter, error)
	ListFilters(ctx context.Context) ([]models.SavedFilter, error)
	DeleteFilter(ctx context.Context, id string) error

	ListDecisionRecords(ctx context.Context, taskID string, limit int) ([]models.DecisionRecord, error)
	Ping(ctx context.Context) error
}

var _ TaskStore = (*store.Store)(nil)
