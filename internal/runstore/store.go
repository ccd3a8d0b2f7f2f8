// Package runstore keeps the short-lived state of batch runs so the UI can
// poll progress. Entries expire; nothing here outlives its TTL.
package runstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/acme/bulk-caller/internal/domain"
	apperrors "github.com/acme/bulk-caller/pkg/errors"
)

// ErrNotFound indicates the run is unknown or has expired.
var ErrNotFound = apperrors.ErrNotFound

// Store saves and loads runs.
type Store interface {
	Save(ctx context.Context, run *domain.Run) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Run, error)
}
