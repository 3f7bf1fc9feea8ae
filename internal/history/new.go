package history

import (
	"context"
	"time"

	"voice-agent/pkg/gsheets"
	pkgLog "voice-agent/pkg/log"
)

// SheetsRecorder appends interaction rows to a Google Sheet.
// Recording is best-effort: a turn never fails because the sheet is down.
type SheetsRecorder struct {
	client        *gsheets.Client
	spreadsheetID string
	sheetRange    string
	timeout       time.Duration
	l             pkgLog.Logger
}

// Config holds the interaction history configuration.
type Config struct {
	SpreadsheetID string
	SheetRange    string
	Timeout       time.Duration
}

// NewSheetsRecorder creates a new sheet-backed interaction recorder.
func NewSheetsRecorder(client *gsheets.Client, cfg Config, l pkgLog.Logger) *SheetsRecorder {
	if cfg.SheetRange == "" {
		cfg.SheetRange = "Interactions!A:H"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SheetsRecorder{
		client:        client,
		spreadsheetID: cfg.SpreadsheetID,
		sheetRange:    cfg.SheetRange,
		timeout:       cfg.Timeout,
		l:             l,
	}
}

// Record appends one interaction row. Errors are logged and swallowed.
func (r *SheetsRecorder) Record(ctx context.Context, row gsheets.InteractionRow) {
	// Detach from the caller's context so a finished turn cannot cancel the write.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if err := r.client.AppendInteraction(writeCtx, r.spreadsheetID, r.sheetRange, row); err != nil {
		r.l.Warnf(ctx, "failed to record interaction for user %s: %v", row.UserID, err)
	}
}

// NopRecorder discards interaction records. Used when history is disabled.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, row gsheets.InteractionRow) {}
