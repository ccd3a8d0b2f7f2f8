package dispatch

import (
	"strings"

	apperrors "github.com/acme/bulk-caller/pkg/errors"
)

// Batch is one operator submission: raw lines plus the shared first message.
type Batch struct {
	Lines        []string
	FirstMessage string
}

// SplitBatch breaks raw text into trimmed lines, one number per line. Blank
// lines between numbers are kept so they are reported like any other line.
func SplitBatch(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperrors.ErrEmptyBatch
	}

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines, nil
}
