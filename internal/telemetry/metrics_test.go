package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/acme/bulk-caller/internal/domain"
)

func TestObserveLine(t *testing.T) {
	m := NewMetrics()

	m.ObserveLine(domain.NewCallResult(1, "4163128929", domain.Succeeded([]byte(`{}`))), 120*time.Millisecond)
	m.ObserveLine(domain.NewCallResult(2, "bad", domain.Failed(domain.NewValidationError("bad"))), 0)
	m.ObserveLine(domain.NewCallResult(3, "4163128930", domain.Failed(domain.NewTransportError(errors.New("reset")))), time.Second)

	if got := testutil.ToFloat64(m.lines.WithLabelValues("success")); got != 1 {
		t.Fatalf("success count = %v", got)
	}
	if got := testutil.ToFloat64(m.lines.WithLabelValues("validation_error")); got != 1 {
		t.Fatalf("validation count = %v", got)
	}
	if got := testutil.ToFloat64(m.lines.WithLabelValues("transport_error")); got != 1 {
		t.Fatalf("transport count = %v", got)
	}
	if got := testutil.CollectAndCount(m.callDuration); got != 2 {
		t.Fatalf("expected 2 latency series, got %d", got)
	}
}

func TestBatchLifecycle(t *testing.T) {
	m := NewMetrics()
	m.BatchStarted()
	if got := testutil.ToFloat64(m.active); got != 1 {
		t.Fatalf("active = %v", got)
	}
	m.BatchFinished(domain.RunStatusCompleted)
	if got := testutil.ToFloat64(m.active); got != 0 {
		t.Fatalf("active = %v", got)
	}
	if got := testutil.ToFloat64(m.batches.WithLabelValues("completed")); got != 1 {
		t.Fatalf("completed batches = %v", got)
	}
}
