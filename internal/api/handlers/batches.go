package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/acme/bulk-caller/internal/domain"
	batchsvc "github.com/acme/bulk-caller/internal/service/batch"
	apperrors "github.com/acme/bulk-caller/pkg/errors"
)

type submitBatchRequest struct {
	Numbers      string `json:"numbers"`
	FirstMessage string `json:"first_message"`
}

type batchResponse struct {
	ID           uuid.UUID        `json:"id"`
	Status       domain.RunStatus `json:"status"`
	FirstMessage string           `json:"first_message"`
	Progress     progressResponse `json:"progress"`
	Current      string           `json:"current,omitempty"`
	Results      []resultResponse `json:"results"`
	Summary      domain.Summary   `json:"summary"`
	Error        string           `json:"error,omitempty"`
	StartedAt    time.Time        `json:"started_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

type progressResponse struct {
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	Fraction  float64 `json:"fraction"`
}

type resultResponse struct {
	Line     int               `json:"line"`
	Number   string            `json:"number"`
	Success  bool              `json:"success"`
	Level    string            `json:"level"`
	Message  string            `json:"message"`
	Response json.RawMessage   `json:"response,omitempty"`
	Error    *domain.CallError `json:"error,omitempty"`
}

func (h *HandlerSet) submitBatch(ctx *fiber.Ctx) error {
	var req submitBatchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	run, err := h.batches.Submit(ctx.UserContext(), batchsvc.SubmitInput{
		Numbers:      req.Numbers,
		FirstMessage: req.FirstMessage,
	})
	if err != nil {
		return translateError(err)
	}

	ctx.Location(fmt.Sprintf("/api/v1/batches/%s", run.ID))
	return ctx.Status(http.StatusAccepted).JSON(toBatchResponse(run))
}

func (h *HandlerSet) getBatch(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return translateError(fmt.Errorf("%w: invalid batch id", apperrors.ErrValidation))
	}

	run, err := h.batches.Get(ctx.UserContext(), id)
	if err != nil {
		return translateError(err)
	}
	return ctx.JSON(toBatchResponse(run))
}

func toBatchResponse(run *domain.Run) batchResponse {
	results := make([]resultResponse, 0, len(run.Results))
	for _, res := range run.Results {
		level := "error"
		if res.Success {
			level = "success"
		}
		results = append(results, resultResponse{
			Line:     res.Line,
			Number:   res.Number,
			Success:  res.Success,
			Level:    level,
			Message:  res.Message(),
			Response: res.Response,
			Error:    res.Error,
		})
	}

	return batchResponse{
		ID:           run.ID,
		Status:       run.Status,
		FirstMessage: run.FirstMessage,
		Progress: progressResponse{
			Processed: run.Progress.Processed,
			Total:     run.Progress.Total,
			Fraction:  run.Progress.Fraction(),
		},
		Current:     run.Current,
		Results:     results,
		Summary:     run.Summary,
		Error:       run.Error,
		StartedAt:   run.StartedAt,
		UpdatedAt:   run.UpdatedAt,
		CompletedAt: run.CompletedAt,
	}
}
