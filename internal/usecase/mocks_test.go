package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"crm-call-insights/internal/domain"
	"crm-call-insights/internal/domain/model"
	"crm-call-insights/internal/domain/ports/adapter"
	"crm-call-insights/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// ---- AI fake ----

type fakeAI struct {
	mu      sync.Mutex
	reply   string
	err     error
	tokens  int
	chatted int
}

func (f *fakeAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	f.mu.Lock()
	f.chatted++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return f.tokens, nil
}

func (f *fakeAI) chatCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chatted
}

// ---- STT fake ----

type fakeSTT struct {
	mu     sync.Mutex
	text   string
	err    error
	called int
}

func (f *fakeSTT) Transcribe(ctx context.Context, audio []byte, hints adapter.TranscribeHints) (string, error) {
	f.mu.Lock()
	f.called++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeSTT) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.called
}

// ---- Notifier fake ----

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// ---- Marker repo fake ----

type memMarkerRepo struct {
	mu        sync.Mutex
	markers   map[string]bool
	existsErr error
	saveErr   error
}

func newMemMarkerRepo() *memMarkerRepo {
	return &memMarkerRepo{markers: map[string]bool{}}
}

func (m *memMarkerRepo) key(source, noteID string) string { return source + "|" + noteID }

func (m *memMarkerRepo) Exists(ctx context.Context, tx repository.Tx, source, noteID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.markers[m.key(source, noteID)], nil
}

func (m *memMarkerRepo) Save(ctx context.Context, tx repository.Tx, marker *model.ProcessedMarker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.markers[m.key(marker.Source, marker.NoteID)] = true
	return nil
}

// ---- Queue repo fake ----

type memQueueRepo struct {
	mu    sync.Mutex
	items map[string]*model.QueueItem
}

func newMemQueueRepo() *memQueueRepo {
	return &memQueueRepo{items: map[string]*model.QueueItem{}}
}

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
		item.CreatedAt = time.Now().Add(-time.Duration(len(m.items)) * time.Second)
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
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
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
			item.UpdatedAt = time.Now()
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
	item.UpdatedAt = time.Now()
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
	item.UpdatedAt = time.Now()
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
	item.UpdatedAt = time.Now()
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
