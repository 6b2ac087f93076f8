package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/fentz26/cadence/internal/audit"
	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/store"
)

// Batch operation names.
const (
	OpMove     = "move"
	OpTag      = "tag"
	OpSchedule = "schedule"
	OpStatus   = "status"
	OpDelete   = "delete"
)

// BatchResult reports the outcome of a batch operation. Tasks holds the
// updated tasks in request order; Spawned holds recurring follow-ups.
type BatchResult struct {
	Op      string        `json:"op"`
	Count   int           `json:"count"`
	Tasks   []models.Task `json:"tasks"`
	Spawned []models.Task `json:"spawned,omitempty"`
}

// MoveTarget names the containers a batch move writes. Unset fields are left
// alone; a set nil clears the field.
type MoveTarget struct {
	ProjectID    models.Opt[*string] `json:"projectId,omitzero"`
	AreaID       models.Opt[*string] `json:"areaId,omitzero"`
	KanbanColumn models.Opt[*string] `json:"kanbanColumn,omitzero"`
}

// BatchRequest is the wire form of a batch operation.
type BatchRequest struct {
	Op            string              `json:"op" validate:"required,oneof=move tag schedule status delete"`
	IDs           []string            `json:"ids" validate:"required,min=1,dive,required"`
	ProjectID     models.Opt[*string] `json:"projectId,omitzero"`
	AreaID        models.Opt[*string] `json:"areaId,omitzero"`
	KanbanColumn  models.Opt[*string] `json:"kanbanColumn,omitzero"`
	AddTags       []string            `json:"addTags,omitempty"`
	RemoveTags    []string            `json:"removeTags,omitempty"`
	ScheduledDate *string             `json:"scheduledDate,omitempty" validate:"omitempty,datekey"`
	Status        models.TaskStatus   `json:"status,omitempty"`
}

// Batch dispatches a BatchRequest to the matching bulk operation.
func (s *Service) Batch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, invalid(err)
	}
	switch req.Op {
	case OpMove:
		return s.BulkMove(ctx, req.IDs, MoveTarget{
			ProjectID:    req.ProjectID,
			AreaID:       req.AreaID,
			KanbanColumn: req.KanbanColumn,
		})
	case OpTag:
		return s.BulkTag(ctx, req.IDs, req.AddTags, req.RemoveTags)
	case OpSchedule:
		return s.BulkSchedule(ctx, req.IDs, req.ScheduledDate)
	case OpStatus:
		return s.BulkSetStatus(ctx, req.IDs, req.Status)
	default:
		return s.BulkDelete(ctx, req.IDs)
	}
}

// BulkMove sets project, area or kanban column on every task.
func (s *Service) BulkMove(ctx context.Context, ids []string, to MoveTarget) (*BatchResult, error) {
	patch := models.TaskPatch{
		ProjectID:    to.ProjectID,
		AreaID:       to.AreaID,
		KanbanColumn: to.KanbanColumn,
	}
	if !patch.ProjectID.Set && !patch.AreaID.Set && !patch.KanbanColumn.Set {
		return nil, invalidf("move needs projectId, areaId or kanbanColumn")
	}
	return s.batch(ctx, OpMove, ids, to, func(tx store.Tasks, id string, now time.Time) (*models.Task, error) {
		return tx.UpdateTask(ctx, id, patch, now)
	})
}

// BulkTag adds and removes tags. Removal wins when a tag is in both lists.
func (s *Service) BulkTag(ctx context.Context, ids, add, remove []string) (*BatchResult, error) {
	if len(add) == 0 && len(remove) == 0 {
		return nil, invalidf("tag needs addTags or removeTags")
	}
	drop := make(map[string]bool, len(remove))
	for _, tag := range remove {
		drop[tag] = true
	}
	inputs := map[string][]string{"add": add, "remove": remove}
	return s.batch(ctx, OpTag, ids, inputs, func(tx store.Tasks, id string, now time.Time) (*models.Task, error) {
		current, err := tx.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, store.ErrTaskNotFound
		}
		tags := make([]string, 0, len(current.Tags)+len(add))
		for _, tag := range dedupe(append(append([]string{}, current.Tags...), add...)) {
			if !drop[tag] {
				tags = append(tags, tag)
			}
		}
		return tx.UpdateTask(ctx, id, models.TaskPatch{Tags: models.Some(tags)}, now)
	})
}

// BulkSchedule sets the scheduled date of every task. A nil date unschedules.
func (s *Service) BulkSchedule(ctx context.Context, ids []string, date *string) (*BatchResult, error) {
	if err := validateDate("scheduledDate", date); err != nil {
		return nil, err
	}
	patch := models.TaskPatch{ScheduledDate: models.Some(date)}
	return s.batch(ctx, OpSchedule, ids, date, func(tx store.Tasks, id string, now time.Time) (*models.Task, error) {
		return tx.UpdateTask(ctx, id, patch, now)
	})
}

// BulkSetStatus moves every task to status. Tasks that become completed spawn
// their recurring follow-ups after the batch commits.
func (s *Service) BulkSetStatus(ctx context.Context, ids []string, status models.TaskStatus) (*BatchResult, error) {
	if !status.Valid() {
		return nil, invalidf("unknown status %q", status)
	}
	var completed []string
	patch := models.TaskPatch{Status: models.Some(status)}
	res, err := s.batch(ctx, OpStatus, ids, status, func(tx store.Tasks, id string, now time.Time) (*models.Task, error) {
		current, err := tx.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, store.ErrTaskNotFound
		}
		if status == models.TaskStatusCompleted && current.Status != models.TaskStatusCompleted {
			completed = append(completed, id)
		}
		return tx.UpdateTask(ctx, id, patch, now)
	})
	if err != nil {
		return nil, err
	}

	if len(completed) == 0 {
		return res, nil
	}
	now := s.clock()
	byID := make(map[string]models.Task, len(res.Tasks))
	for _, t := range res.Tasks {
		byID[t.ID] = t
	}
	var spawnedIDs []string
	for _, id := range completed {
		s.metrics.Completed()
		if next := s.spawnNext(ctx, byID[id], now); next != nil {
			res.Spawned = append(res.Spawned, *next)
			spawnedIDs = append(spawnedIDs, next.ID)
		}
	}
	if len(spawnedIDs) > 0 {
		s.publish(spawnedIDs...)
	}
	return res, nil
}

// BulkDelete removes every task.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (*BatchResult, error) {
	return s.batch(ctx, OpDelete, ids, ids, func(tx store.Tasks, id string, _ time.Time) (*models.Task, error) {
		return nil, tx.DeleteTask(ctx, id)
	})
}

// batch runs fn for every id inside one transaction. Any failure rolls the
// whole batch back.
func (s *Service) batch(ctx context.Context, op string, ids []string, inputs interface{}, fn func(tx store.Tasks, id string, now time.Time) (*models.Task, error)) (*BatchResult, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, invalidf("%s: no task ids", op)
	}

	now := s.clock()
	res := &BatchResult{Op: op, Tasks: []models.Task{}}
	err := s.store.InTx(ctx, func(tx store.Tasks) error {
		for _, id := range ids {
			updated, err := fn(tx, id, now)
			if err != nil {
				return err
			}
			if updated != nil {
				res.Tasks = append(res.Tasks, *updated)
			}
		}
		return nil
	})

	action := "batch." + op
	outcome := audit.OutcomeSuccess
	details := describeIDs(ids)
	if err != nil {
		outcome = audit.OutcomeFailure
		details = err.Error()
	}
	s.metrics.Mutation(action, outcome)
	s.audit.Record(ctx, action, map[string]interface{}{"ids": ids, "inputs": inputs}, outcome, "", details)
	if err != nil {
		s.log.Warnw("Batch operation rolled back", "op", op, "count", len(ids), "error", err)
		return nil, err
	}

	res.Count = len(ids)
	s.metrics.Batch(op, len(ids))
	s.publish(ids...)
	return res, nil
}

func describeIDs(ids []string) string {
	return fmt.Sprintf("%d task(s)", len(ids))
}
