package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fentz26/cadence/internal/models"
)

// WriteDecisionRecord appends an audit record.
func (s *Store) WriteDecisionRecord(ctx context.Context, action, inputsHash, outcome, taskID, details string) (*models.DecisionRecord, error) {
	rec := &models.DecisionRecord{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		TaskID:     taskID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	taskRef := sql.NullString{String: taskID, Valid: taskID != ""}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decision_records (id, action, inputs_hash, outcome, task_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Action, rec.InputsHash, rec.Outcome, taskRef, rec.Details, rec.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert decision record: %w", err)
	}
	return rec, nil
}

// ListDecisionRecords returns the newest records first. An empty taskID
// lists records for every task; limit <= 0 means no limit.
func (s *Store) ListDecisionRecords(ctx context.Context, taskID string, limit int) ([]models.DecisionRecord, error) {
	query := `SELECT id, action, inputs_hash, outcome, COALESCE(task_id, '') AS task_id,
		COALESCE(details, '') AS details, timestamp FROM decision_records`
	var args []interface{}
	if taskID != "" {
		query += ` WHERE task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY timestamp DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var recs []models.DecisionRecord
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("query decision records: %w", err)
	}
	if recs == nil {
		recs = []models.DecisionRecord{}
	}
	return recs, nil
}
