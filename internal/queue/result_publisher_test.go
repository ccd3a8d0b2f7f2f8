package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/bulk-caller/internal/config"
	"github.com/acme/bulk-caller/internal/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishResult(t *testing.T) {
	w := &fakeWriter{}
	p := NewResultPublisherWithWriter(w)
	runID := uuid.New()

	res := domain.NewCallResult(2, "+14163128929", domain.Failed(domain.NewServiceError(500, "down")))
	require.NoError(t, p.PublishResult(context.Background(), runID, res, domain.Progress{Processed: 2, Total: 3}))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, runID[:], w.msgs[0].Key)

	var msg ResultMessage
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &msg))
	assert.Equal(t, EventCallResult, msg.Type)
	assert.Equal(t, runID, msg.RunID)
	assert.Equal(t, 2, msg.Line)
	assert.False(t, msg.Success)
	assert.Equal(t, 500, msg.Error.StatusCode)
	assert.Equal(t, 3, msg.Total)
}

func TestPublishCompleted(t *testing.T) {
	w := &fakeWriter{}
	p := NewResultPublisherWithWriter(w)
	runID := uuid.New()

	require.NoError(t, p.PublishCompleted(context.Background(), runID, domain.Summary{Total: 3, Succeeded: 2, Invalid: 1}))

	var msg BatchCompletedMessage
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &msg))
	assert.Equal(t, EventBatchCompleted, msg.Type)
	assert.Equal(t, 2, msg.Summary.Succeeded)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishWriteError(t *testing.T) {
	p := NewResultPublisherWithWriter(&fakeWriter{err: errors.New("broker down")})
	err := p.PublishCompleted(context.Background(), uuid.New(), domain.Summary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestNewKafkaRequiresBrokers(t *testing.T) {
	_, err := NewKafka(config.KafkaConfig{})
	assert.Error(t, err)

	k, err := NewKafka(config.KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	w := k.NewWriter("results")
	assert.Equal(t, "results", w.Topic)
}
