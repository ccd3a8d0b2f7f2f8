// Package dispatch runs a batch of phone numbers through the call-placement
// service, one line at a time and in input order.
package dispatch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/bulk-caller/internal/domain"
	"github.com/acme/bulk-caller/internal/phone"
	"github.com/acme/bulk-caller/internal/telephony"
	"github.com/acme/bulk-caller/pkg/logger"
)

// Observer receives feedback while a batch runs. Calls arrive from the
// goroutine executing Run, in order.
type Observer interface {
	// CallStarted fires right before a valid number is submitted.
	CallStarted(ctx context.Context, line int, number string)
	// LineProcessed fires once per input line, valid or not.
	LineProcessed(ctx context.Context, result domain.CallResult, progress domain.Progress)
	// BatchCompleted fires after the last line.
	BatchCompleted(ctx context.Context, summary domain.Summary)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) CallStarted(context.Context, int, string) {}
func (NopObserver) LineProcessed(context.Context, domain.CallResult, domain.Progress) {}
func (NopObserver) BatchCompleted(context.Context, domain.Summary) {}

// Dispatcher submits one call per valid line.
type Dispatcher struct {
	provider telephony.Provider
	pacer    Pacer
	logger   *logger.Logger
	tracer   trace.Tracer
}

// New creates a dispatcher. A nil pacer submits without delay.
func New(provider telephony.Provider, pacer Pacer, lg *logger.Logger) *Dispatcher {
	if pacer == nil {
		pacer = NewIntervalPacer(0)
	}
	if lg == nil {
		lg = logger.NewNop()
	}
	return &Dispatcher{
		provider: provider,
		pacer:    pacer,
		logger:   lg,
		tracer:   otel.Tracer("bulkcaller.dispatch"),
	}
}

// Run processes every line of the batch. Individual call failures are
// recorded and never stop the loop; only ctx cancellation does, in which case
// the partial summary is returned with ctx's error and BatchCompleted is not
// emitted.
func (d *Dispatcher) Run(ctx context.Context, batch Batch, obs Observer) (domain.Summary, error) {
	if obs == nil {
		obs = NopObserver{}
	}

	total := len(batch.Lines)
	summary := domain.Summary{Total: total}

	ctx, span := d.tracer.Start(ctx, "batch.dispatch", trace.WithAttributes(
		attribute.Int("batch.lines", total),
	))
	defer span.End()

	for idx, number := range batch.Lines {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			return summary, err
		}

		line := idx + 1

		var outcome domain.Outcome
		if !phone.Valid(number) {
			outcome = domain.Failed(domain.NewValidationError(number))
		} else {
			if err := d.pacer.Wait(ctx); err != nil {
				span.RecordError(err)
				return summary, err
			}
			obs.CallStarted(ctx, line, number)
			outcome = d.place(ctx, line, domain.CallRequest{Number: number, FirstMessage: batch.FirstMessage})
		}

		result := domain.NewCallResult(line, number, outcome)
		summary.Record(result)
		obs.LineProcessed(ctx, result, domain.Progress{Processed: line, Total: total})
	}

	span.SetAttributes(
		attribute.Int("batch.succeeded", summary.Succeeded),
		attribute.Int("batch.failed", summary.Failed),
		attribute.Int("batch.invalid", summary.Invalid),
	)
	d.logger.WithContext(ctx).Debug("batch dispatched",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("invalid", summary.Invalid),
	)
	obs.BatchCompleted(ctx, summary)
	return summary, nil
}

func (d *Dispatcher) place(ctx context.Context, line int, req domain.CallRequest) domain.Outcome {
	ctx, span := d.tracer.Start(ctx, "call.place", trace.WithAttributes(
		attribute.Int("call.line", line),
	))
	defer span.End()

	outcome := d.provider.PlaceCall(ctx, req)
	if !outcome.OK() {
		span.SetStatus(codes.Error, outcome.Err.Message)
		span.SetAttributes(
			attribute.String("call.error_kind", string(outcome.Err.Kind)),
			attribute.Int("call.status_code", outcome.Err.StatusCode),
		)
	}
	return outcome
}
