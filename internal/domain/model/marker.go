package model

import "time"

// ProcessedMarker is a durable fact that a (source, note) pair has been fully
// handled. Presence is authoritative and permanent: markers are never expired
// or overwritten, and at most one exists per key.
type ProcessedMarker struct {
	Source      string
	NoteID      string
	RecordURL   string // kept for debugging only
	ProcessedAt time.Time
}
