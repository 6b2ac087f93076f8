// Package audit writes decision records for state-mutating actions.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/cadence/internal/logging"
	"github.com/fentz26/cadence/internal/models"
)

// Outcomes recorded for an action.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Writer persists decision records.
type Writer interface {
	WriteDecisionRecord(ctx context.Context, action, inputsHash, outcome, taskID, details string) (*models.DecisionRecord, error)
}

// Recorder hashes action inputs and hands records to a Writer.
type Recorder struct {
	w   Writer
	log *logging.Logger
}

// NewRecorder creates a recorder backed by w.
func NewRecorder(w Writer, log *logging.Logger) *Recorder {
	return &Recorder{w: w, log: logging.OrNop(log).WithComponent("audit")}
}

// Record writes an entry. Audit failures are logged and never fail the
// action being audited.
func (r *Recorder) Record(ctx context.Context, action string, inputs interface{}, outcome, taskID, details string) *models.DecisionRecord {
	rec, err := r.w.WriteDecisionRecord(ctx, action, HashInputs(inputs), outcome, taskID, details)
	if err != nil {
		r.log.Warnw("Failed to write decision record", "action", action, "task_id", taskID, "error", err)
		return nil
	}
	return rec
}

// HashInputs returns the SHA256 of the JSON encoding of inputs.
func HashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
