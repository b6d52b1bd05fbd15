package model

import "time"

type RecordingStatus string

const (
	RecordingStatusPending     RecordingStatus = "pending"
	RecordingStatusDownloading RecordingStatus = "downloading"
	RecordingStatusDone        RecordingStatus = "done"
	RecordingStatusError       RecordingStatus = "error"
)

// QueueItem is one candidate call recording awaiting processing.
// Rows are never deleted; terminal items stay around as an audit trail.
type QueueItem struct {
	ID           string
	Source       string // origin CRM tag, e.g. "amocrm"
	EntityType   string // CRM entity the note hangs off ("lead", "contact", ...)
	NoteID       string // external note/call identifier
	RecordingURL string
	DurationSec  int // call duration as reported by the CRM, 0 when unknown
	Status       RecordingStatus
	LastError    string // populated only when Status == error
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NoteKey is the composite note identifier used for idempotency markers.
func (q *QueueItem) NoteKey() string {
	return q.EntityType + ":" + q.NoteID
}
