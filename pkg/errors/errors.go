package errors

import "errors"

// Sentinels for domain errors.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation error")
	ErrService    = errors.New("call service error")
	ErrTransport  = errors.New("transport error")
)

// ErrEmptyBatch rejects a submission that carries no phone numbers. It matches
// ErrValidation but reads as the operator-facing warning.
var ErrEmptyBatch error = emptyBatchError{}

type emptyBatchError struct{}

func (emptyBatchError) Error() string { return "Please enter at least one phone number" }

func (emptyBatchError) Is(target error) bool { return target == ErrValidation }

// Is reports whether err is one of the sentinels.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Wrap adds context to an error.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Join(errors.New(message), err)
}
