package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"crm-call-insights/internal/domain"
	"crm-call-insights/internal/domain/model"
	"crm-call-insights/internal/domain/ports/repository"
)

var _ repository.RecordingQueueRepository = (*recordingQueueRepo)(nil)

type recordingQueueRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewRecordingQueueRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *recordingQueueRepo {
	return &recordingQueueRepo{pool: pool, tm: tm}
}

const queueColumns = `id, source, entity_type, note_id, recording_url, duration_sec, status, last_error, created_at, updated_at`

func (r *recordingQueueRepo) Enqueue(ctx context.Context, tx repository.Tx, item *model.QueueItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = model.RecordingStatusPending
	}
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	const q = `
INSERT INTO recording_queue (` + queueColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

	_, err := execSQL(ctx, r.pool, tx, q,
		item.ID, item.Source, item.EntityType, item.NoteID, item.RecordingURL,
		item.DurationSec, item.Status, item.LastError, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		// The unique index on recording_url makes enqueue idempotent: a second
		// attempt for the same recording is reported, not retried.
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *recordingQueueRepo) TakeBatch(ctx context.Context, limit int) ([]*model.QueueItem, error) {
	var items []*model.QueueItem

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const q = `
SELECT ` + queueColumns + `
FROM recording_queue
WHERE status = 'pending'
ORDER BY created_at
LIMIT $1
FOR UPDATE SKIP LOCKED;`

		rows, err := pickRows(ctx, r.pool, tx, q, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			item, err := scanQueueItem(rows)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *recordingQueueRepo) MarkStatus(ctx context.Context, tx repository.Tx, ids []string, status model.RecordingStatus) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `
UPDATE recording_queue SET status = $2, updated_at = now()
WHERE id = ANY($1);`
	_, err := execSQL(ctx, r.pool, tx, q, ids, status)
	return err
}

func (r *recordingQueueRepo) MarkDone(ctx context.Context, tx repository.Tx, id string) error {
	const q = `
UPDATE recording_queue SET status = 'done', last_error = '', updated_at = now()
WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *recordingQueueRepo) MarkError(ctx context.Context, tx repository.Tx, id string, reason string) error {
	const q = `
UPDATE recording_queue SET status = 'error', last_error = $2, updated_at = now()
WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *recordingQueueRepo) Requeue(ctx context.Context, tx repository.Tx, id string) error {
	const q = `
UPDATE recording_queue SET status = 'pending', last_error = '', updated_at = now()
WHERE id = $1 AND status = 'error';`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *recordingQueueRepo) FindByStatus(ctx context.Context, tx repository.Tx, status model.RecordingStatus, limit int) ([]*model.QueueItem, error) {
	const q = `
SELECT ` + queueColumns + `
FROM recording_queue
WHERE status = $1
ORDER BY updated_at DESC
LIMIT $2;`
	rows, err := pickRows(ctx, r.pool, tx, q, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*model.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *recordingQueueRepo) CountByStatus(ctx context.Context) (map[model.RecordingStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM recording_queue GROUP BY status;`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.RecordingStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.RecordingStatus(status)] = n
	}
	return counts, rows.Err()
}

func scanQueueItem(rows pgx.Rows) (*model.QueueItem, error) {
	var item model.QueueItem
	var status string
	err := rows.Scan(
		&item.ID, &item.Source, &item.EntityType, &item.NoteID, &item.RecordingURL,
		&item.DurationSec, &status, &item.LastError, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	item.Status = model.RecordingStatus(status)
	return &item, nil
}
