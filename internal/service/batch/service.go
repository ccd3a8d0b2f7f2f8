package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/bulk-caller/internal/dispatch"
	"github.com/acme/bulk-caller/internal/domain"
	"github.com/acme/bulk-caller/internal/runstore"
	"github.com/acme/bulk-caller/internal/service/concurrency"
	"github.com/acme/bulk-caller/internal/telemetry"
	apperrors "github.com/acme/bulk-caller/pkg/errors"
	"github.com/acme/bulk-caller/pkg/logger"
)

// ResultPublisher forwards outcomes to an event stream.
type ResultPublisher interface {
	PublishResult(ctx context.Context, runID uuid.UUID, res domain.CallResult, progress domain.Progress) error
	PublishCompleted(ctx context.Context, runID uuid.UUID, summary domain.Summary) error
}

// Params bundles the collaborators of a Service. Publisher and Metrics are
// optional.
type Params struct {
	Dispatcher     *dispatch.Dispatcher
	Store          runstore.Store
	Gate           concurrency.Gate
	Publisher      ResultPublisher
	Metrics        *telemetry.Metrics
	Logger         *logger.Logger
	DefaultMessage string
}

// Service accepts batches and runs them through the dispatcher.
type Service struct {
	dispatcher     *dispatch.Dispatcher
	store          runstore.Store
	gate           concurrency.Gate
	publisher      ResultPublisher
	metrics        *telemetry.Metrics
	logger         *logger.Logger
	defaultMessage string

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService builds the batch service.
func NewService(p Params) *Service {
	if p.Gate == nil {
		p.Gate = concurrency.NewLocalGate()
	}
	if p.Logger == nil {
		p.Logger = logger.NewNop()
	}
	runCtx, cancel := context.WithCancel(context.Background())
	return &Service{
		runCtx:         runCtx,
		cancel:         cancel,
		dispatcher:     p.Dispatcher,
		store:          p.Store,
		gate:           p.Gate,
		publisher:      p.Publisher,
		metrics:        p.Metrics,
		logger:         p.Logger,
		defaultMessage: p.DefaultMessage,
	}
}

// SubmitInput is what the operator typed.
type SubmitInput struct {
	Numbers      string
	FirstMessage string
}

// Submit validates and stores a new run, then dispatches it in the
// background until it finishes or Close is called. The returned run is a
// snapshot taken before the first call.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*domain.Run, error) {
	run, lines, err := s.start(ctx, input)
	if err != nil {
		return nil, err
	}
	snapshot := run.Clone()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.execute(s.runCtx, run, lines, nil)
	}()

	return snapshot, nil
}

// Execute runs a batch synchronously, forwarding every event to obs as well.
func (s *Service) Execute(ctx context.Context, input SubmitInput, obs dispatch.Observer) (*domain.Run, error) {
	run, lines, err := s.start(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, run, lines, obs)
}

// Get returns the current state of a run.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	run, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("batch service: get run %s: %w", id, err)
	}
	return run, nil
}

// Close stops background runs and waits for them to record their final state.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// DefaultMessage is the first message used when the operator leaves it blank.
func (s *Service) DefaultMessage() string {
	return s.defaultMessage
}

func (s *Service) start(ctx context.Context, input SubmitInput) (*domain.Run, []string, error) {
	lines, err := dispatch.SplitBatch(input.Numbers)
	if err != nil {
		return nil, nil, err
	}

	message := strings.TrimSpace(input.FirstMessage)
	if message == "" {
		message = s.defaultMessage
	}

	run := domain.NewRun(len(lines), message)
	owner := run.ID.String()

	acquired, err := s.gate.TryAcquire(ctx, owner)
	if err != nil {
		return nil, nil, fmt.Errorf("batch service: acquire gate: %w", err)
	}
	if !acquired {
		return nil, nil, fmt.Errorf("%w: another batch is still dispatching", apperrors.ErrConflict)
	}

	if err := s.store.Save(ctx, run); err != nil {
		s.releaseGate(owner)
		return nil, nil, fmt.Errorf("batch service: save run: %w", err)
	}
	return run, lines, nil
}

func (s *Service) execute(ctx context.Context, run *domain.Run, lines []string, extra dispatch.Observer) (*domain.Run, error) {
	owner := run.ID.String()
	defer s.releaseGate(owner)

	if s.metrics != nil {
		s.metrics.BatchStarted()
	}

	rec := newRecorder(s, run, extra)
	s.logger.WithContext(ctx).Info("batch started",
		zap.String("run_id", owner),
		zap.Int("lines", len(lines)),
	)

	_, err := s.dispatcher.Run(ctx, dispatch.Batch{Lines: lines, FirstMessage: run.FirstMessage}, rec)
	if err != nil {
		rec.abort(err)
	}

	if s.metrics != nil {
		s.metrics.BatchFinished(run.Status)
	}
	return run.Clone(), err
}

func (s *Service) releaseGate(owner string) {
	if err := s.gate.Release(context.Background(), owner); err != nil {
		s.logger.Warn("batch service: release gate", zap.String("run_id", owner), zap.Error(err))
	}
}
