//go:build integration

package postgres

import (
	"context"
	"testing"

	"crm-call-insights/internal/domain/model"
)

func TestProcessedMarkerRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewProcessedMarkerRepo(testPool)

	t.Run("save and exists", func(t *testing.T) {
		cleanup(t)

		exists, err := repo.Exists(ctx, nil, "amocrm", "lead:42")
		if err != nil {
			t.Fatalf("exists: %v", err)
		}
		if exists {
			t.Fatal("marker reported before save")
		}

		m := &model.ProcessedMarker{Source: "amocrm", NoteID: "lead:42", RecordURL: "https://crm.example/rec/42.mp3"}
		if err := repo.Save(ctx, nil, m); err != nil {
			t.Fatalf("save: %v", err)
		}

		exists, err = repo.Exists(ctx, nil, "amocrm", "lead:42")
		if err != nil {
			t.Fatalf("exists: %v", err)
		}
		if !exists {
			t.Fatal("marker not reported after save")
		}
	})

	t.Run("second save is a no-op", func(t *testing.T) {
		cleanup(t)

		m := &model.ProcessedMarker{Source: "amocrm", NoteID: "lead:42"}
		if err := repo.Save(ctx, nil, m); err != nil {
			t.Fatalf("first save: %v", err)
		}
		if err := repo.Save(ctx, nil, m); err != nil {
			t.Fatalf("repeat save: %v", err)
		}
	})

	t.Run("scoped by source", func(t *testing.T) {
		cleanup(t)

		m := &model.ProcessedMarker{Source: "amocrm", NoteID: "lead:42"}
		if err := repo.Save(ctx, nil, m); err != nil {
			t.Fatalf("save: %v", err)
		}
		exists, err := repo.Exists(ctx, nil, "bitrix", "lead:42")
		if err != nil {
			t.Fatalf("exists: %v", err)
		}
		if exists {
			t.Fatal("marker leaked across sources")
		}
	})
}
