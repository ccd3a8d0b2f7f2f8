package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/acme/bulk-caller/internal/domain"
)

// MessageWriter is the subset of kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ResultPublisher publishes call results to Kafka, keyed by run id.
type ResultPublisher struct {
	writer MessageWriter
}

// NewResultPublisher constructs a publisher for the given topic.
func NewResultPublisher(k *Kafka, topic string) *ResultPublisher {
	return NewResultPublisherWithWriter(k.NewWriter(topic))
}

// NewResultPublisherWithWriter wraps an existing writer.
func NewResultPublisherWithWriter(w MessageWriter) *ResultPublisher {
	return &ResultPublisher{writer: w}
}

// PublishResult emits one line's outcome.
func (p *ResultPublisher) PublishResult(ctx context.Context, runID uuid.UUID, res domain.CallResult, progress domain.Progress) error {
	return p.write(ctx, runID, NewResultMessage(runID, res, progress))
}

// PublishCompleted emits the end-of-batch summary.
func (p *ResultPublisher) PublishCompleted(ctx context.Context, runID uuid.UUID, summary domain.Summary) error {
	return p.write(ctx, runID, BatchCompletedMessage{
		Type:       EventBatchCompleted,
		RunID:      runID,
		Summary:    summary,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *ResultPublisher) write(ctx context.Context, runID uuid.UUID, msg any) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("result publisher: marshal message: %w", err)
	}
	record := kafka.Message{
		Key:   runID[:],
		Value: value,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, record); err != nil {
		return fmt.Errorf("result publisher: write message: %w", err)
	}
	return nil
}

// Close closes the publisher.
func (p *ResultPublisher) Close() error {
	return p.writer.Close()
}
