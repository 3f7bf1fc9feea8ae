package history

import (
	"context"

	"voice-agent/pkg/gsheets"
)

// Recorder persists interaction records for later review.
type Recorder interface {
	// Record appends one interaction. Failures are logged, never surfaced.
	Record(ctx context.Context, row gsheets.InteractionRow)
}
