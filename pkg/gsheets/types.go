package gsheets

import "time"

// AppendRowRequest is the input for appending a row to a spreadsheet.
type AppendRowRequest struct {
	SpreadsheetID string
	SheetRange    string // e.g. "Interactions!A:H"
	Values        []interface{}
}

// InteractionRow is one recorded voice interaction.
type InteractionRow struct {
	ID         string // unique per turn
	Timestamp  time.Time
	UserID     string
	SessionID  string
	Transcript string
	Intent     string
	Reply      string
	Outcome    string // "ok", "throttled", "degraded", "failed"
}
