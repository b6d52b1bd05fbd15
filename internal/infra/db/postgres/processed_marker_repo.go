package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"crm-call-insights/internal/domain"
	"crm-call-insights/internal/domain/model"
	"crm-call-insights/internal/domain/ports/repository"
)

var _ repository.ProcessedMarkerRepository = (*processedMarkerRepo)(nil)

type processedMarkerRepo struct {
	pool *pgxpool.Pool
}

func NewProcessedMarkerRepo(pool *pgxpool.Pool) *processedMarkerRepo {
	return &processedMarkerRepo{pool: pool}
}

func (r *processedMarkerRepo) Exists(ctx context.Context, tx repository.Tx, source, noteID string) (bool, error) {
	const q = `
SELECT EXISTS(
    SELECT 1 FROM processed_markers
    WHERE source = $1 AND note_id = $2
);`
	row, err := pickRow(ctx, r.pool, tx, q, source, noteID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *processedMarkerRepo) Save(ctx context.Context, tx repository.Tx, m *model.ProcessedMarker) error {
	if m.ProcessedAt.IsZero() {
		m.ProcessedAt = time.Now()
	}
	// ON CONFLICT DO NOTHING: a marker is permanent, never overwritten.
	const q = `
INSERT INTO processed_markers (source, note_id, record_url, processed_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (source, note_id) DO NOTHING;`
	_, err := execSQL(ctx, r.pool, tx, q, m.Source, m.NoteID, m.RecordURL, m.ProcessedAt)
	return err
}
