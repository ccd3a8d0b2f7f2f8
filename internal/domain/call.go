package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/acme/bulk-caller/pkg/errors"
)

// ErrorKind classifies why a line did not produce a call.
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindService    ErrorKind = "service"
	ErrorKindTransport  ErrorKind = "transport"
)

// RunStatus enumerates lifecycle states of a batch run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusAborted   RunStatus = "aborted"
)

// CallRequest is one submission to the call-placement service.
type CallRequest struct {
	Number       string
	FirstMessage string
}

// CallError describes a failed line.
type CallError struct {
	Kind       ErrorKind `json:"kind"`
	StatusCode int       `json:"status_code,omitempty"`
	Body       string    `json:"body,omitempty"`
	Message    string    `json:"message"`
}

func (e *CallError) Error() string {
	return e.Message
}

// Unwrap lets callers match the error taxonomy with errors.Is.
func (e *CallError) Unwrap() error {
	switch e.Kind {
	case ErrorKindValidation:
		return apperrors.ErrValidation
	case ErrorKindService:
		return apperrors.ErrService
	default:
		return apperrors.ErrTransport
	}
}

// NewValidationError reports a malformed phone number.
func NewValidationError(number string) *CallError {
	return &CallError{Kind: ErrorKindValidation, Message: "Invalid phone number format: " + number}
}

// NewServiceError reports a non-success status from the call-placement API.
func NewServiceError(status int, body string) *CallError {
	return &CallError{
		Kind:       ErrorKindService,
		StatusCode: status,
		Body:       body,
		Message:    fmt.Sprintf("API Error: %d - %s", status, body),
	}
}

// NewTransportError reports a fault during the HTTP exchange.
func NewTransportError(err error) *CallError {
	return &CallError{Kind: ErrorKindTransport, Message: err.Error()}
}

// Outcome is either a success carrying the service response or a failure
// carrying a CallError. Exactly one of the two fields is set.
type Outcome struct {
	Response json.RawMessage
	Err      *CallError
}

// Succeeded builds a success outcome.
func Succeeded(body json.RawMessage) Outcome {
	return Outcome{Response: body}
}

// Failed builds a failure outcome.
func Failed(err *CallError) Outcome {
	return Outcome{Err: err}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// CallResult is the outcome recorded for one input line.
type CallResult struct {
	Line     int             `json:"line"`
	Number   string          `json:"number"`
	Success  bool            `json:"success"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    *CallError      `json:"error,omitempty"`
}

// NewCallResult records an outcome for the given line.
func NewCallResult(line int, number string, outcome Outcome) CallResult {
	return CallResult{
		Line:     line,
		Number:   number,
		Success:  outcome.OK(),
		Response: outcome.Response,
		Error:    outcome.Err,
	}
}

// Message renders the result the way it is shown to the operator.
func (r CallResult) Message() string {
	switch {
	case r.Success:
		return "Successfully initiated call to " + r.Number
	case r.Error == nil:
		return "Failed to call " + r.Number
	case r.Error.Kind == ErrorKindValidation:
		return r.Error.Message
	default:
		return "Failed to call " + r.Number + ": " + r.Error.Message
	}
}

// Progress tracks how many lines of a batch have been processed.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// Fraction returns Processed/Total, or zero for an empty batch.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Processed) / float64(p.Total)
}

// Summary aggregates the results of a batch.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Invalid   int `json:"invalid"`
}

// Record folds one result into the summary.
func (s *Summary) Record(res CallResult) {
	switch {
	case res.Success:
		s.Succeeded++
	case res.Error != nil && res.Error.Kind == ErrorKindValidation:
		s.Invalid++
	default:
		s.Failed++
	}
}

// Run is the in-memory view of one submitted batch.
type Run struct {
	ID           uuid.UUID    `json:"id"`
	Status       RunStatus    `json:"status"`
	FirstMessage string       `json:"first_message"`
	Progress     Progress     `json:"progress"`
	Current      string       `json:"current,omitempty"`
	Results      []CallResult `json:"results"`
	Summary      Summary      `json:"summary"`
	Error        string       `json:"error,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

// NewRun creates a running batch for the given number of lines.
func NewRun(total int, firstMessage string) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:           uuid.New(),
		Status:       RunStatusRunning,
		FirstMessage: firstMessage,
		Progress:     Progress{Total: total},
		Results:      make([]CallResult, 0, total),
		Summary:      Summary{Total: total},
		StartedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy safe to hand to another goroutine.
func (r *Run) Clone() *Run {
	cp := *r
	cp.Results = append([]CallResult(nil), r.Results...)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
