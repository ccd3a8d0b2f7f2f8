package mock

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/acme/bulk-caller/internal/domain"
)

func TestProviderAlwaysSucceeds(t *testing.T) {
	p := NewProvider(1, 0, 7)
	for i := 0; i < 20; i++ {
		out := p.PlaceCall(context.Background(), domain.CallRequest{Number: "+14163128929"})
		if !out.OK() {
			t.Fatalf("expected success, got %v", out.Err)
		}
		var body map[string]any
		if err := json.Unmarshal(out.Response, &body); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		if body["simulated"] != true {
			t.Fatalf("expected simulated marker in %s", out.Response)
		}
	}
}

func TestProviderAlwaysFails(t *testing.T) {
	p := NewProvider(0, 0, 7)
	for i := 0; i < 20; i++ {
		out := p.PlaceCall(context.Background(), domain.CallRequest{Number: "+14163128929"})
		if out.OK() {
			t.Fatalf("expected failure")
		}
		if out.Err.Kind == domain.ErrorKindValidation {
			t.Fatalf("provider must never report validation errors")
		}
	}
}

func TestProviderHonoursCancellation(t *testing.T) {
	p := NewProvider(1, time.Minute, 7)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := p.PlaceCall(ctx, domain.CallRequest{Number: "+14163128929"})
	if out.OK() || out.Err.Kind != domain.ErrorKindTransport {
		t.Fatalf("expected transport failure on cancelled context, got %+v", out)
	}
}
