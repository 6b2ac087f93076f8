package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fentz26/cadence/internal/models"
)

type filterRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Filter    string    `db:"filter"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SaveFilter inserts a saved filter, or replaces the one with the same ID.
// Names are unique across saved filters.
func (s *Store) SaveFilter(ctx context.Context, sf models.SavedFilter) error {
	body, err := json.Marshal(sf.Filter)
	if err != nil {
		return fmt.Errorf("encode filter: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var owner string
	err = tx.GetContext(ctx, &owner, `SELECT id FROM saved_filters WHERE name = ?`, sf.Name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check filter name: %w", err)
	}
	if owner != "" && owner != sf.ID {
		return ErrFilterNameTaken
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO saved_filters (id, name, filter, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, filter = excluded.filter, updated_at = excluded.updated_at`,
		sf.ID, sf.Name, string(body), sf.CreatedAt.UTC(), sf.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert filter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetFilter returns a saved filter, or nil when absent.
func (s *Store) GetFilter(ctx context.Context, id string) (*models.SavedFilter, error) {
	var row filterRow
	err := s.db.GetContext(ctx, &row, `SELECT id, name, filter, created_at, updated_at FROM saved_filters WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query filter: %w", err)
	}
	sf, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &sf, nil
}

// ListFilters returns every saved filter ordered by name.
func (s *Store) ListFilters(ctx context.Context) ([]models.SavedFilter, error) {
	var rows []filterRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, filter, created_at, updated_at FROM saved_filters ORDER BY name`); err != nil {
		return nil, fmt.Errorf("query filters: %w", err)
	}
	out := make([]models.SavedFilter, 0, len(rows))
	for _, row := range rows {
		sf, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, sf)
	}
	return out, nil
}

// DeleteFilter removes a saved filter.
func (s *Store) DeleteFilter(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_filters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete filter: %w", err)
	}
	return expectOne(res, ErrFilterNotFound)
}

func (r filterRow) toModel() (models.SavedFilter, error) {
	sf := models.SavedFilter{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.Filter), &sf.Filter); err != nil {
		return models.SavedFilter{}, fmt.Errorf("decode filter %s: %w", r.ID, err)
	}
	return sf, nil
}
