//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"crm-call-insights/internal/domain"
	"crm-call-insights/internal/domain/model"
)

func TestRecordingQueueRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	tm := NewTxManager(testPool)
	repo := NewRecordingQueueRepo(testPool, tm)

	newItem := func(noteID, url string) *model.QueueItem {
		return &model.QueueItem{
			Source:       "amocrm",
			EntityType:   "lead",
			NoteID:       noteID,
			RecordingURL: url,
			DurationSec:  90,
		}
	}

	t.Run("enqueue is idempotent on recording url", func(t *testing.T) {
		cleanup(t)

		item := newItem("1", "https://crm.example/rec/1.mp3")
		if err := repo.Enqueue(ctx, nil, item); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		dup := newItem("1", "https://crm.example/rec/1.mp3")
		if err := repo.Enqueue(ctx, nil, dup); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("duplicate enqueue err = %v, want ErrAlreadyExists", err)
		}

		counts, err := repo.CountByStatus(ctx)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if counts[model.RecordingStatusPending] != 1 {
			t.Fatalf("pending count = %d, want 1", counts[model.RecordingStatusPending])
		}
	})

	t.Run("take batch claims oldest pending first", func(t *testing.T) {
		cleanup(t)

		for i, noteID := range []string{"a", "b", "c"} {
			item := newItem(noteID, "https://crm.example/rec/"+noteID+".mp3")
			if err := repo.Enqueue(ctx, nil, item); err != nil {
				t.Fatalf("enqueue %d: %v", i, err)
			}
		}

		items, err := repo.TakeBatch(ctx, 2)
		if err != nil {
			t.Fatalf("take batch: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("took %d items, want 2", len(items))
		}
		if items[0].NoteID != "a" || items[1].NoteID != "b" {
			t.Fatalf("batch order = [%s %s], want oldest first [a b]", items[0].NoteID, items[1].NoteID)
		}
	})

	t.Run("status transitions", func(t *testing.T) {
		cleanup(t)

		item := newItem("1", "https://crm.example/rec/1.mp3")
		if err := repo.Enqueue(ctx, nil, item); err != nil {
			t.Fatalf("enqueue: %v", err)
		}

		if err := repo.MarkStatus(ctx, nil, []string{item.ID}, model.RecordingStatusDownloading); err != nil {
			t.Fatalf("mark downloading: %v", err)
		}
		if err := repo.MarkError(ctx, nil, item.ID, "recording could not be downloaded"); err != nil {
			t.Fatalf("mark error: %v", err)
		}

		failed, err := repo.FindByStatus(ctx, nil, model.RecordingStatusError, 10)
		if err != nil {
			t.Fatalf("find by status: %v", err)
		}
		if len(failed) != 1 || failed[0].LastError == "" {
			t.Fatalf("error items = %+v, want one with a reason", failed)
		}

		if err := repo.Requeue(ctx, nil, item.ID); err != nil {
			t.Fatalf("requeue: %v", err)
		}
		if err := repo.MarkDone(ctx, nil, item.ID); err != nil {
			t.Fatalf("mark done: %v", err)
		}

		// A done item never qualifies for requeue.
		if err := repo.Requeue(ctx, nil, item.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("requeue of done item err = %v, want ErrNotFound", err)
		}

		// And it is invisible to the claim query.
		items, err := repo.TakeBatch(ctx, 10)
		if err != nil {
			t.Fatalf("take batch: %v", err)
		}
		if len(items) != 0 {
			t.Fatalf("claimed %d items after done, want 0", len(items))
		}
	})

	t.Run("mark unknown id reports not found", func(t *testing.T) {
		cleanup(t)
		if err := repo.MarkDone(ctx, nil, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}
