package web

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"crm-call-insights/internal/domain"
	"crm-call-insights/internal/domain/model"
	"crm-call-insights/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type memMarkerRepo struct {
	mu      sync.Mutex
	markers map[string]bool
}

func newMemMarkerRepo() *memMarkerRepo { return &memMarkerRepo{markers: map[string]bool{}} }

func (m *memMarkerRepo) Exists(ctx context.Context, tx repository.Tx, source, noteID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markers[source+"|"+noteID], nil
}

func (m *memMarkerRepo) Save(ctx context.Context, tx repository.Tx, marker *model.ProcessedMarker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers[marker.Source+"|"+marker.NoteID] = true
	return nil
}

type memQueueRepo struct {
	mu    sync.Mutex
	items map[string]*model.QueueItem
}

func newMemQueueRepo() *memQueueRepo { return &memQueueRepo{items: map[string]*model.QueueItem{}} }

func (m *memQueueRepo) add(item *model.QueueItem) *model.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = model.RecordingStatusPending
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	m.items[item.ID] = item
	return item
}

func (m *memQueueRepo) get(id string) *model.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.items[id]
	return &cp
}

func (m *memQueueRepo) Enqueue(ctx context.Context, tx repository.Tx, item *model.QueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.RecordingURL == item.RecordingURL {
			return domain.ErrAlreadyExists
		}
	}
	item.ID = uuid.NewString()
	item.Status = model.RecordingStatusPending
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	m.items[item.ID] = item
	return nil
}

func (m *memQueueRepo) TakeBatch(ctx context.Context, limit int) ([]*model.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.QueueItem
	for _, item := range m.items {
		if item.Status == model.RecordingStatusPending {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memQueueRepo) MarkStatus(ctx context.Context, tx repository.Tx, ids []string, status model.RecordingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			item.Status = status
		}
	}
	return nil
}

func (m *memQueueRepo) MarkDone(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	item.Status = model.RecordingStatusDone
	item.LastError = ""
	return nil
}

func (m *memQueueRepo) MarkError(ctx context.Context, tx repository.Tx, id string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	item.Status = model.RecordingStatusError
	item.LastError = reason
	return nil
}

func (m *memQueueRepo) Requeue(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.Status != model.RecordingStatusError {
		return domain.ErrNotFound
	}
	item.Status = model.RecordingStatusPending
	item.LastError = ""
	return nil
}

func (m *memQueueRepo) FindByStatus(ctx context.Context, tx repository.Tx, status model.RecordingStatus, limit int) ([]*model.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.QueueItem
	for _, item := range m.items {
		if item.Status == status {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memQueueRepo) CountByStatus(ctx context.Context) (map[model.RecordingStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.RecordingStatus]int{}
	for _, item := range m.items {
		out[item.Status]++
	}
	return out, nil
}
