package planner

import (
	"context"
	"strings"
	"time"

	"github.com/fentz26/cadence/internal/datekit"
	"github.com/fentz26/cadence/internal/filter"
	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/recurrence"
	"github.com/fentz26/cadence/internal/store"
)

// MaxPreview caps NextOccurrences.
const MaxPreview = 52

// Query returns the tasks matching f.
func (s *Service) Query(ctx context.Context, f models.Filter) ([]models.Task, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}

	var (
		tasks []models.Task
		err   error
	)
	if f.ProjectID.Set && f.ProjectID.Value != nil {
		tasks, err = s.store.ListByProject(ctx, *f.ProjectID.Value)
	} else {
		tasks, err = s.store.ListTasks(ctx)
	}
	if err != nil {
		return nil, err
	}
	return filter.Apply(tasks, f), nil
}

// SaveFilterInput creates a saved filter, or replaces one when ID is set.
type SaveFilterInput struct {
	ID     string        `json:"id"`
	Name   string        `json:"name" validate:"required,max=200"`
	Filter models.Filter `json:"filter"`
}

// SaveFilter stores a named filter. Names are unique.
func (s *Service) SaveFilter(ctx context.Context, in SaveFilterInput) (*models.SavedFilter, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid(err)
	}
	if err := validateFilter(in.Filter); err != nil {
		return nil, err
	}

	now := s.clock().UTC().Truncate(time.Second)
	sf := models.SavedFilter{ID: in.ID, Name: in.Name, Filter: in.Filter, CreatedAt: now, UpdatedAt: now}
	if sf.ID == "" {
		sf.ID = s.newID()
	} else {
		existing, err := s.store.GetFilter(ctx, sf.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			sf.CreatedAt = existing.CreatedAt
		}
	}

	err := s.store.SaveFilter(ctx, sf)
	s.finish(ctx, "filter.save", in, "", err, "filter="+sf.ID)
	if err != nil {
		return nil, err
	}
	return &sf, nil
}

// ListFilters returns the saved filters ordered by name.
func (s *Service) ListFilters(ctx context.Context) ([]models.SavedFilter, error) {
	return s.store.ListFilters(ctx)
}

// RunFilter evaluates a saved filter.
func (s *Service) RunFilter(ctx context.Context, id string) ([]models.Task, error) {
	sf, err := s.store.GetFilter(ctx, id)
	if err != nil {
		return nil, err
	}
	if sf == nil {
		return nil, store.ErrFilterNotFound
	}
	return s.Query(ctx, sf.Filter)
}

// DeleteFilter removes a saved filter.
func (s *Service) DeleteFilter(ctx context.Context, id string) error {
	err := s.store.DeleteFilter(ctx, id)
	s.finish(ctx, "filter.delete", map[string]string{"id": id}, "", err, "filter="+id)
	return err
}

// NextOccurrences previews the next count dates of rule after from. An empty
// from means today.
func (s *Service) NextOccurrences(rule models.RecurringRule, from string, count int) ([]string, error) {
	if err := validateRule(&rule); err != nil {
		return nil, err
	}
	if from == "" {
		from = s.Today()
	}
	cursor, err := datekit.ParseDate(from)
	if err != nil {
		return nil, invalid(err)
	}
	if count < 1 {
		count = 1
	}
	if count > MaxPreview {
		count = MaxPreview
	}

	dates := make([]string, 0, count)
	for i := 0; i < count; i++ {
		cursor = recurrence.NextOccurrence(rule, cursor)
		dates = append(dates, datekit.FormatDate(cursor))
	}
	return dates, nil
}
