package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestEmptyBatchMatchesValidation(t *testing.T) {
	wrapped := fmt.Errorf("batch service: submit: %w", ErrEmptyBatch)

	if !Is(wrapped, ErrEmptyBatch) {
		t.Fatalf("expected wrapped error to match ErrEmptyBatch")
	}
	if !Is(wrapped, ErrValidation) {
		t.Fatalf("expected empty batch to be a validation error")
	}
	if Is(wrapped, ErrConflict) {
		t.Fatalf("empty batch must not match ErrConflict")
	}
	if got := ErrEmptyBatch.Error(); got != "Please enter at least one phone number" {
		t.Fatalf("unexpected warning text %q", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ignored") != nil {
		t.Fatalf("wrapping nil must stay nil")
	}

	base := errors.New("boom")
	err := Wrap(base, "twilio preflight")
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to keep its cause")
	}
}
