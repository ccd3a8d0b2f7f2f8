package batch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/acme/bulk-caller/internal/dispatch"
	"github.com/acme/bulk-caller/internal/domain"
)

// recorder keeps a run's stored state in step with the dispatcher. It is
// driven from the single goroutine executing the batch.
type recorder struct {
	svc     *Service
	run     *domain.Run
	extra   dispatch.Observer
	started time.Time
}

var _ dispatch.Observer = (*recorder)(nil)

func newRecorder(svc *Service, run *domain.Run, extra dispatch.Observer) *recorder {
	if extra == nil {
		extra = dispatch.NopObserver{}
	}
	return &recorder{svc: svc, run: run, extra: extra}
}

func (r *recorder) CallStarted(ctx context.Context, line int, number string) {
	r.started = time.Now()
	r.run.Current = "Initiating call to " + number + "..."
	r.save(ctx)
	r.extra.CallStarted(ctx, line, number)
}

func (r *recorder) LineProcessed(ctx context.Context, res domain.CallResult, progress domain.Progress) {
	var elapsed time.Duration
	if !r.started.IsZero() {
		elapsed = time.Since(r.started)
		r.started = time.Time{}
	}

	r.run.Results = append(r.run.Results, res)
	r.run.Summary.Record(res)
	r.run.Progress = progress
	r.run.Current = ""
	r.save(ctx)

	r.log(ctx, res, elapsed)
	if r.svc.metrics != nil {
		r.svc.metrics.ObserveLine(res, elapsed)
	}
	if r.svc.publisher != nil {
		if err := r.svc.publisher.PublishResult(detach(ctx), r.run.ID, res, progress); err != nil {
			r.svc.logger.Warn("batch service: publish result", zap.String("run_id", r.run.ID.String()), zap.Error(err))
		}
	}
	if err := r.svc.gate.Refresh(detach(ctx), r.run.ID.String()); err != nil {
		r.svc.logger.Warn("batch service: refresh gate", zap.String("run_id", r.run.ID.String()), zap.Error(err))
	}

	r.extra.LineProcessed(ctx, res, progress)
}

func (r *recorder) BatchCompleted(ctx context.Context, summary domain.Summary) {
	now := time.Now().UTC()
	r.run.Status = domain.RunStatusCompleted
	r.run.Summary = summary
	r.run.CompletedAt = &now
	r.save(ctx)

	r.svc.logger.WithContext(ctx).Info("All calls completed!",
		zap.String("run_id", r.run.ID.String()),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("invalid", summary.Invalid),
	)
	if r.svc.publisher != nil {
		if err := r.svc.publisher.PublishCompleted(detach(ctx), r.run.ID, summary); err != nil {
			r.svc.logger.Warn("batch service: publish completion", zap.String("run_id", r.run.ID.String()), zap.Error(err))
		}
	}

	r.extra.BatchCompleted(ctx, summary)
}

// abort marks the run as stopped before its last line.
func (r *recorder) abort(err error) {
	now := time.Now().UTC()
	r.run.Status = domain.RunStatusAborted
	r.run.Error = err.Error()
	r.run.Current = ""
	r.run.CompletedAt = &now
	r.save(context.Background())

	r.svc.logger.Warn("batch aborted",
		zap.String("run_id", r.run.ID.String()),
		zap.Int("processed", r.run.Progress.Processed),
		zap.Int("total", r.run.Progress.Total),
		zap.Error(err),
	)
}

func (r *recorder) save(ctx context.Context) {
	r.run.UpdatedAt = time.Now().UTC()
	if err := r.svc.store.Save(detach(ctx), r.run); err != nil {
		r.svc.logger.Warn("batch service: save run", zap.String("run_id", r.run.ID.String()), zap.Error(err))
	}
}

func (r *recorder) log(ctx context.Context, res domain.CallResult, elapsed time.Duration) {
	lg := r.svc.logger.WithContext(ctx)
	fields := []zap.Field{
		zap.String("run_id", r.run.ID.String()),
		zap.Int("line", res.Line),
		zap.String("number", maskNumber(res.Number)),
	}
	switch {
	case res.Success:
		lg.Info("call initiated", append(fields, zap.Duration("elapsed", elapsed))...)
	case res.Error.Kind == domain.ErrorKindValidation:
		lg.Warn("invalid phone number", fields...)
	default:
		lg.Warn("call failed", append(fields,
			zap.String("kind", string(res.Error.Kind)),
			zap.Int("status_code", res.Error.StatusCode),
			zap.String("error", res.Error.Message),
		)...)
	}
}

// detach keeps trace values but drops cancellation, so the final state of an
// interrupted run is still written.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// maskNumber hides all but the last four characters of a number.
func maskNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	masked := make([]byte, len(number))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(number)-4:], number[len(number)-4:])
	return string(masked)
}
