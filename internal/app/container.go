package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/acme/bulk-caller/internal/api/handlers"
	"github.com/acme/bulk-caller/internal/config"
	"github.com/acme/bulk-caller/internal/dispatch"
	"github.com/acme/bulk-caller/internal/infra/redis"
	"github.com/acme/bulk-caller/internal/queue"
	"github.com/acme/bulk-caller/internal/runstore"
	batchsvc "github.com/acme/bulk-caller/internal/service/batch"
	"github.com/acme/bulk-caller/internal/service/concurrency"
	"github.com/acme/bulk-caller/internal/telemetry"
	"github.com/acme/bulk-caller/internal/telephony"
	telephonyMock "github.com/acme/bulk-caller/internal/telephony/mock"
	"github.com/acme/bulk-caller/internal/telephony/twilio"
	"github.com/acme/bulk-caller/internal/telephony/vapi"
	"github.com/acme/bulk-caller/pkg/logger"
)

// dry-run provider behaviour
const (
	mockSuccessRate = 0.9
	mockLatency     = 300 * time.Millisecond
)

type originVerifier interface {
	Verify(ctx context.Context) error
}

// Container wires together shared infrastructure dependencies.
type Container struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *telemetry.Metrics

	// Redis and Kafka are nil unless configured.
	Redis *redis.Client
	Kafka *queue.Kafka

	// verifier checks the Twilio origin number; replaced in tests.
	verifier func(config.TwilioConfig) originVerifier

	// lazily initialised components
	components struct {
		once      sync.Once
		provider  telephony.Provider
		publisher *queue.ResultPublisher
		batches   *batchsvc.Service
	}
}

// Build constructs a container for the given configuration path.
func Build(ctx context.Context, configPath string) (*Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	return BuildWith(ctx, cfg, lg)
}

// BuildWith constructs a container from an already loaded configuration.
func BuildWith(ctx context.Context, cfg *config.Config, lg *logger.Logger) (*Container, error) {
	container := &Container{
		Config:  cfg,
		Logger:  lg,
		Metrics: telemetry.NewMetrics(),
	}
	container.verifier = newTwilioVerifier

	if cfg.RunStore.Backend == "redis" {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		container.Redis = redisClient
	}

	if cfg.Kafka.Enabled {
		kafka, err := queue.NewKafka(cfg.Kafka)
		if err != nil {
			_ = container.closeInfra()
			return nil, fmt.Errorf("bootstrap kafka: %w", err)
		}
		container.Kafka = kafka
	}

	return container, nil
}

func newTwilioVerifier(cfg config.TwilioConfig) originVerifier {
	return twilio.NewVerifier(cfg)
}

func (c *Container) initComponents() {
	c.components.once.Do(func() {
		var provider telephony.Provider
		if c.Config.Dispatch.DryRun {
			c.Logger.Warn("dry run: calls are simulated and nothing is dialled")
			provider = telephonyMock.NewProvider(mockSuccessRate, mockLatency, time.Now().UnixNano())
		} else {
			provider = vapi.NewClient(c.Config.Vapi, c.Config.Twilio)
		}

		var (
			store runstore.Store
			gate  concurrency.Gate
		)
		if c.Redis != nil {
			store = runstore.NewRedis(c.Redis.Inner(), c.Config.Redis.KeyPrefix, c.Config.RunStore.TTL)
			gate = concurrency.NewRedisGate(c.Redis.Inner(), c.Config.Redis.KeyPrefix, c.Config.Redis.GateTTL)
		} else {
			store = runstore.NewMemory(c.Config.RunStore.TTL)
			gate = concurrency.NewLocalGate()
		}

		params := batchsvc.Params{
			Dispatcher:     dispatch.New(provider, dispatch.NewIntervalPacer(c.Config.Dispatch.CallInterval), c.Logger),
			Store:          store,
			Gate:           gate,
			Metrics:        c.Metrics,
			Logger:         c.Logger,
			DefaultMessage: c.Config.Dispatch.DefaultFirstMessage,
		}
		if c.Kafka != nil {
			c.components.publisher = queue.NewResultPublisher(c.Kafka, c.Config.Kafka.ResultTopic)
			params.Publisher = c.components.publisher
		}

		c.components.provider = provider
		c.components.batches = batchsvc.NewService(params)
	})
}

// Batches exposes the batch service.
func (c *Container) Batches() *batchsvc.Service {
	c.initComponents()
	return c.components.batches
}

// Provider exposes the call-placement provider in use.
func (c *Container) Provider() telephony.Provider {
	c.initComponents()
	return c.components.provider
}

// HandlerSet builds HTTP handlers with dependencies.
func (c *Container) HandlerSet() *handlers.HandlerSet {
	checks := map[string]handlers.HealthCheck{}
	if c.Redis != nil {
		checks["redis"] = c.Redis.Ping
	}
	params := handlers.Params{
		Batches: c.Batches(),
		Checks:  checks,
		Logger:  c.Logger,
	}
	if c.Config.Telemetry.MetricsEnabled {
		params.Metrics = c.Metrics.Handler()
	}
	return handlers.NewHandlerSet(params)
}

// Preflight confirms the Twilio origin number when enabled. It is skipped
// in dry-run mode.
func (c *Container) Preflight(ctx context.Context) error {
	if !c.Config.Twilio.Preflight || c.Config.Dispatch.DryRun {
		return nil
	}
	if err := c.verifier(c.Config.Twilio).Verify(ctx); err != nil {
		return err
	}
	c.Logger.Info("twilio origin number verified")
	return nil
}

// EnsureTopics ensures the result topic exists when Kafka is enabled.
func (c *Container) EnsureTopics(ctx context.Context) error {
	if c.Kafka == nil {
		return nil
	}
	partitions := c.Config.Kafka.Partitions
	if partitions <= 0 {
		partitions = 1
	}
	return c.Kafka.EnsureTopics(ctx, []string{c.Config.Kafka.ResultTopic}, partitions, 1)
}

// Close stops running batches and releases all held resources.
func (c *Container) Close() error {
	var errs []error
	if c.components.batches != nil {
		c.components.batches.Close()
	}
	if c.components.publisher != nil {
		if err := c.components.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("result publisher close: %w", err))
		}
	}
	errs = append(errs, c.closeInfra()...)
	if c.Logger != nil {
		c.Logger.Sync()
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func (c *Container) closeInfra() []error {
	var errs []error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	return errs
}
