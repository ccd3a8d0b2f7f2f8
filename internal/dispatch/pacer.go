package dispatch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out submissions to the call-placement service.
type Pacer interface {
	Wait(ctx context.Context) error
}

// IntervalPacer lets one submission through per interval. The first Wait
// returns immediately.
type IntervalPacer struct {
	limiter *rate.Limiter
}

// NewIntervalPacer builds a pacer for the given inter-call interval. A
// non-positive interval disables pacing.
func NewIntervalPacer(interval time.Duration) *IntervalPacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &IntervalPacer{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next submission slot or ctx is done.
func (p *IntervalPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
