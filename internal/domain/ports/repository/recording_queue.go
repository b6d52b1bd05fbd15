package repository

import (
	"context"

	"crm-call-insights/internal/domain/model"
)

// RecordingQueueRepository persists the durable work queue of recordings.
//
// Claim protocol: TakeBatch selects up to limit pending items; the caller then
// transitions the whole batch to `downloading` via MarkStatus so that
// in-flight work is externally observable. This is not a distributed lock —
// a single active worker per queue is assumed.
type RecordingQueueRepository interface {
	// Enqueue inserts a new item. It is idempotent on RecordingURL: a second
	// enqueue of the same URL is a no-op returning domain.ErrAlreadyExists.
	Enqueue(ctx context.Context, tx Tx, item *model.QueueItem) error

	// TakeBatch returns up to limit items currently pending, oldest first.
	TakeBatch(ctx context.Context, limit int) ([]*model.QueueItem, error)

	// MarkStatus bulk-updates the status of the given item ids.
	MarkStatus(ctx context.Context, tx Tx, ids []string, status model.RecordingStatus) error

	// MarkDone sets status=done and clears LastError.
	MarkDone(ctx context.Context, tx Tx, id string) error

	// MarkError sets status=error and records the failure reason.
	MarkError(ctx context.Context, tx Tx, id string, reason string) error

	// Requeue resets an error item back to pending for a re-drive.
	Requeue(ctx context.Context, tx Tx, id string) error

	// FindByStatus lists items in a given status for inspection, newest first.
	FindByStatus(ctx context.Context, tx Tx, status model.RecordingStatus, limit int) ([]*model.QueueItem, error)

	// CountByStatus returns item counts per status for queue-depth gauges.
	CountByStatus(ctx context.Context) (map[model.RecordingStatus]int, error)
}
