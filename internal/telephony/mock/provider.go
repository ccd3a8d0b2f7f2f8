package mock

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acme/bulk-caller/internal/domain"
)

// Provider simulates the call-placement service for dry runs.
type Provider struct {
	successRate float64
	latency     time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewProvider constructs a mock provider. A zero seed uses the clock.
func NewProvider(successRate float64, latency time.Duration, seed int64) *Provider {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Provider{
		successRate: successRate,
		latency:     latency,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// PlaceCall simulates a call attempt.
func (p *Provider) PlaceCall(ctx context.Context, req domain.CallRequest) domain.Outcome {
	if p.latency > 0 {
		select {
		case <-ctx.Done():
			return domain.Failed(domain.NewTransportError(ctx.Err()))
		case <-time.After(p.latency):
		}
	}

	p.mu.Lock()
	roll := p.rng.Float64()
	transport := p.rng.Float64() < 0.3
	p.mu.Unlock()

	if roll < p.successRate {
		body, _ := json.Marshal(map[string]any{
			"id":        uuid.NewString(),
			"status":    "queued",
			"customer":  map[string]string{"number": req.Number},
			"simulated": true,
		})
		return domain.Succeeded(body)
	}

	if transport {
		return domain.Failed(domain.NewTransportError(errors.New("simulated connection reset")))
	}
	return domain.Failed(domain.NewServiceError(500, `{"message":"simulated failure"}`))
}
