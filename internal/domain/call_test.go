package domain

import (
	"errors"
	"testing"

	apperrors "github.com/acme/bulk-caller/pkg/errors"
)

func TestCallErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name    string
		err     *CallError
		target  error
		message string
	}{
		{"validation", NewValidationError("123-456"), apperrors.ErrValidation, "Invalid phone number format: 123-456"},
		{"service", NewServiceError(400, `{"message":"bad"}`), apperrors.ErrService, `API Error: 400 - {"message":"bad"}`},
		{"transport", NewTransportError(errors.New("dial tcp: connection refused")), apperrors.ErrTransport, "dial tcp: connection refused"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.target) {
				t.Fatalf("expected %v to match %v", tc.err, tc.target)
			}
			if tc.err.Error() != tc.message {
				t.Fatalf("got message %q, want %q", tc.err.Error(), tc.message)
			}
		})
	}
}

func TestProgressFraction(t *testing.T) {
	if got := (Progress{}).Fraction(); got != 0 {
		t.Fatalf("empty progress should be 0, got %v", got)
	}
	if got := (Progress{Processed: 1, Total: 3}).Fraction(); got != 1.0/3.0 {
		t.Fatalf("unexpected fraction %v", got)
	}
	if got := (Progress{Processed: 3, Total: 3}).Fraction(); got != 1 {
		t.Fatalf("complete progress should be 1, got %v", got)
	}
}

func TestSummaryRecord(t *testing.T) {
	var s Summary
	s.Record(NewCallResult(1, "+14163128929", Succeeded([]byte(`{"id":"c1"}`))))
	s.Record(NewCallResult(2, "123", Failed(NewValidationError("123"))))
	s.Record(NewCallResult(3, "+14162326807", Failed(NewServiceError(500, "oops"))))
	s.Record(NewCallResult(4, "+14162326808", Failed(NewTransportError(errors.New("timeout")))))

	if s.Succeeded != 1 || s.Invalid != 1 || s.Failed != 2 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestRunCloneIsIndependent(t *testing.T) {
	run := NewRun(2, "hello")
	run.Results = append(run.Results, NewCallResult(1, "+14163128929", Succeeded([]byte(`{}`))))

	cp := run.Clone()
	cp.Results = append(cp.Results, NewCallResult(2, "x", Failed(NewValidationError("x"))))
	cp.Results[0].Number = "changed"

	if len(run.Results) != 1 || run.Results[0].Number != "+14163128929" {
		t.Fatalf("clone mutated the original run: %+v", run.Results)
	}
}

func TestCallResultMessage(t *testing.T) {
	cases := []struct {
		res  CallResult
		want string
	}{
		{NewCallResult(1, "+14163128929", Succeeded([]byte(`{}`))), "Successfully initiated call to +14163128929"},
		{NewCallResult(2, "123", Failed(NewValidationError("123"))), "Invalid phone number format: 123"},
		{NewCallResult(3, "4162326807", Failed(NewServiceError(401, "unauthorized"))), "Failed to call 4162326807: API Error: 401 - unauthorized"},
		{NewCallResult(4, "4162326808", Failed(NewTransportError(errors.New("dial tcp: refused")))), "Failed to call 4162326808: dial tcp: refused"},
	}
	for _, tc := range cases {
		if got := tc.res.Message(); got != tc.want {
			t.Errorf("line %d: got %q, want %q", tc.res.Line, got, tc.want)
		}
	}
}
