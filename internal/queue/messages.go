package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/acme/bulk-caller/internal/domain"
)

// Event types carried in the "type" field.
const (
	EventCallResult     = "call.result"
	EventBatchCompleted = "batch.completed"
)

// ResultMessage reports the outcome of one line of a batch.
type ResultMessage struct {
	Type       string            `json:"type"`
	RunID      uuid.UUID         `json:"run_id"`
	Line       int               `json:"line"`
	Number     string            `json:"number"`
	Success    bool              `json:"success"`
	Response   json.RawMessage   `json:"response,omitempty"`
	Error      *domain.CallError `json:"error,omitempty"`
	Processed  int               `json:"processed"`
	Total      int               `json:"total"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewResultMessage builds the event for one result.
func NewResultMessage(runID uuid.UUID, res domain.CallResult, progress domain.Progress) ResultMessage {
	return ResultMessage{
		Type:       EventCallResult,
		RunID:      runID,
		Line:       res.Line,
		Number:     res.Number,
		Success:    res.Success,
		Response:   res.Response,
		Error:      res.Error,
		Processed:  progress.Processed,
		Total:      progress.Total,
		OccurredAt: time.Now().UTC(),
	}
}

// BatchCompletedMessage closes a run's event stream.
type BatchCompletedMessage struct {
	Type       string         `json:"type"`
	RunID      uuid.UUID      `json:"run_id"`
	Summary    domain.Summary `json:"summary"`
	OccurredAt time.Time      `json:"occurred_at"`
}
