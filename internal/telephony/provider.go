package telephony

import (
	"context"

	"github.com/acme/bulk-caller/internal/domain"
)

// Provider abstracts the call-placement integration. Every fault is folded
// into the returned Outcome so a single call can never abort a batch.
type Provider interface {
	PlaceCall(ctx context.Context, req domain.CallRequest) domain.Outcome
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, req domain.CallRequest) domain.Outcome

// PlaceCall calls f.
func (f ProviderFunc) PlaceCall(ctx context.Context, req domain.CallRequest) domain.Outcome {
	return f(ctx, req)
}
