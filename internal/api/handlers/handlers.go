package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/bulk-caller/internal/domain"
	batchsvc "github.com/acme/bulk-caller/internal/service/batch"
	"github.com/acme/bulk-caller/pkg/logger"
)

// BatchService is what the HTTP layer needs from the batch service.
type BatchService interface {
	Submit(ctx context.Context, input batchsvc.SubmitInput) (*domain.Run, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	DefaultMessage() string
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Params bundles handler dependencies. Metrics and Checks are optional.
type Params struct {
	Batches BatchService
	Metrics http.Handler
	Checks  map[string]HealthCheck
	Logger  *logger.Logger
	Title   string
}

// HandlerSet bundles all HTTP handlers.
type HandlerSet struct {
	batches BatchService
	metrics http.Handler
	checks  map[string]HealthCheck
	logger  *logger.Logger
	title   string
}

// NewHandlerSet creates a new handler bundle.
func NewHandlerSet(p Params) *HandlerSet {
	if p.Logger == nil {
		p.Logger = logger.NewNop()
	}
	if p.Title == "" {
		p.Title = "Bulk Phone Caller"
	}
	return &HandlerSet{
		batches: p.Batches,
		metrics: p.Metrics,
		checks:  p.Checks,
		logger:  p.Logger,
		title:   p.Title,
	}
}

// Register wires all routes onto the fiber app.
func (h *HandlerSet) Register(app *fiber.App) {
	app.Get("/", h.index)
	app.Get("/healthz", h.health)
	if h.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.metrics))
	}

	api := app.Group("/api")
	v1 := api.Group("/v1")

	batches := v1.Group("/batches")
	batches.Post("/", h.submitBatch)
	batches.Get("/:id", h.getBatch)
}

// ErrorHandler provides centralized error responses.
func (h *HandlerSet) ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code >= fiber.StatusInternalServerError {
		h.logger.WithContext(ctx.UserContext()).Error("request failed",
			zap.String("path", ctx.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)
	}

	return ctx.Status(code).JSON(fiber.Map{
		"error":    message,
		"trace_id": traceID(ctx),
	})
}

func (h *HandlerSet) health(ctx *fiber.Ctx) error {
	healthCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	errs := make(map[string]string)
	for name, check := range h.checks {
		if err := check(healthCtx); err != nil {
			errs[name] = err.Error()
		}
	}

	status := fiber.StatusOK
	state := "ok"
	if len(errs) > 0 {
		status = fiber.StatusServiceUnavailable
		state = "degraded"
	}

	return ctx.Status(status).JSON(fiber.Map{"status": state, "errors": errs})
}

func traceID(ctx *fiber.Ctx) string {
	sc := trace.SpanContextFromContext(ctx.UserContext())
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
