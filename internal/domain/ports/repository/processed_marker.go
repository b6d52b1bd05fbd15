package repository

import (
	"context"

	"crm-call-insights/internal/domain/model"
)

// ProcessedMarkerRepository stores the durable "already handled" facts used by
// the idempotency guard. At most one marker exists per (source, note) key.
type ProcessedMarkerRepository interface {
	Exists(ctx context.Context, tx Tx, source, noteID string) (bool, error)

	// Save writes a marker. Saving an existing key is a no-op, never an error.
	Save(ctx context.Context, tx Tx, m *model.ProcessedMarker) error
}
