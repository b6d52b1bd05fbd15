package postgres

import (
	"context"
	"fmt"
	"time"

	"crm-call-insights/internal/domain/model"
	"crm-call-insights/internal/domain/ports/repository"
	"crm-call-insights/internal/infra/metrics"
	red "crm-call-insights/internal/infra/redis"
)

var _ repository.ProcessedMarkerRepository = (*markerRepoCacheDecorator)(nil)

// markerRepoCacheDecorator fronts the durable marker store with a Redis
// read-through cache. Only positive facts are cached: a marker, once present,
// never goes away, so a hit can be trusted forever. Misses always consult the
// durable store.
type markerRepoCacheDecorator struct {
	inner repository.ProcessedMarkerRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewMarkerRepoCacheDecorator(inner repository.ProcessedMarkerRepository, cache red.RedisClient, ttl time.Duration) repository.ProcessedMarkerRepository {
	return &markerRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func markerKey(source, noteID string) string {
	return fmt.Sprintf("processed:%s:%s", source, noteID)
}

func (d *markerRepoCacheDecorator) Exists(ctx context.Context, tx repository.Tx, source, noteID string) (bool, error) {
	if _, err := d.cache.Get(ctx, markerKey(source, noteID)); err == nil {
		metrics.IncCacheRequest("processed_marker", "hit")
		return true, nil
	}

	metrics.IncCacheRequest("processed_marker", "miss")
	exists, err := d.inner.Exists(ctx, tx, source, noteID)
	if err != nil {
		return false, err
	}
	if exists {
		_ = d.cache.Set(ctx, markerKey(source, noteID), "1", d.ttl)
	}
	return exists, nil
}

func (d *markerRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, m *model.ProcessedMarker) error {
	if err := d.inner.Save(ctx, tx, m); err != nil {
		return err
	}
	_ = d.cache.Set(ctx, markerKey(m.Source, m.NoteID), "1", d.ttl)
	return nil
}
