package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"crm-call-insights/internal/domain/model"
	"crm-call-insights/internal/domain/ports/repository"
)

// DedupUseCase is the idempotency guard in front of the paid pipeline stages.
//
// The guard fails open: when the marker store is unreachable it answers
// "already processed". Silently skipping one call is cheaper than paying for
// a duplicate transcription and analysis. Do not flip this to fail-closed.
type DedupUseCase struct {
	markers repository.ProcessedMarkerRepository
	log     *zerolog.Logger
}

func NewDedupUseCase(markers repository.ProcessedMarkerRepository, logger *zerolog.Logger) *DedupUseCase {
	l := logger.With().Str("component", "DedupUC").Logger()
	return &DedupUseCase{markers: markers, log: &l}
}

func (uc *DedupUseCase) IsAlreadyProcessed(ctx context.Context, source, noteID string) bool {
	exists, err := uc.markers.Exists(ctx, nil, source, noteID)
	if err != nil {
		uc.log.Warn().Err(err).Str("source", source).Str("note_id", noteID).
			Msg("marker store unavailable, treating as already processed")
		return true
	}
	return exists
}

// MarkProcessed records the marker best-effort. A failed write only risks one
// future duplicate attempt, so it is logged and never surfaced.
func (uc *DedupUseCase) MarkProcessed(ctx context.Context, source, noteID, recordURL string) {
	m := &model.ProcessedMarker{
		Source:      source,
		NoteID:      noteID,
		RecordURL:   recordURL,
		ProcessedAt: time.Now(),
	}
	if err := uc.markers.Save(ctx, nil, m); err != nil {
		uc.log.Warn().Err(err).Str("source", source).Str("note_id", noteID).
			Msg("failed to write processed marker")
	}
}
