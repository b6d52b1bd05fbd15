package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"crm-call-insights/internal/domain/model"
	"crm-call-insights/internal/domain/ports/adapter"
	"crm-call-insights/internal/domain/ports/repository"
	"crm-call-insights/internal/infra/logging"
	"crm-call-insights/internal/infra/metrics"
	"crm-call-insights/internal/infra/sched"
)

// Report summarizes one ProcessQueueOnce invocation.
type Report struct {
	OK    bool `json:"ok"`
	Taken int  `json:"taken"`
	Done  int  `json:"done"`
}

// ProcessUseCase drives claimed queue items through the pipeline stages:
// idempotency guard, transcription (via the bounded scheduler), analysis,
// notification, marker write, queue status. Items fail independently; one
// item's error never aborts its batch siblings.
type ProcessUseCase struct {
	queue       repository.RecordingQueueRepository
	dedup       *DedupUseCase
	transcriber *TranscribeUseCase
	analyzer    *AnalyzeUseCase
	notifier    adapter.Notifier
	scheduler   *sched.TaskScheduler
	log         *zerolog.Logger
}

func NewProcessUseCase(
	queue repository.RecordingQueueRepository,
	dedup *DedupUseCase,
	transcriber *TranscribeUseCase,
	analyzer *AnalyzeUseCase,
	notifier adapter.Notifier,
	scheduler *sched.TaskScheduler,
	logger *zerolog.Logger,
) *ProcessUseCase {
	l := logger.With().Str("component", "ProcessUC").Logger()
	return &ProcessUseCase{
		queue:       queue,
		dedup:       dedup,
		transcriber: transcriber,
		analyzer:    analyzer,
		notifier:    notifier,
		scheduler:   scheduler,
		log:         &l,
	}
}

// ProcessQueueOnce claims up to limit pending items and processes them.
// Designed to be invoked repeatedly (timer or manual trigger), not to loop.
func (uc *ProcessUseCase) ProcessQueueOnce(ctx context.Context, limit int) (Report, error) {
	defer logging.TraceDuration(uc.log, "ProcessUC.ProcessQueueOnce")()

	items, err := uc.queue.TakeBatch(ctx, limit)
	if err != nil {
		return Report{}, fmt.Errorf("take batch: %w", err)
	}
	if len(items) == 0 {
		return Report{OK: true}, nil
	}

	// Claim step two: make "being worked on" externally observable.
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	if err := uc.queue.MarkStatus(ctx, nil, ids, model.RecordingStatusDownloading); err != nil {
		return Report{Taken: len(items)}, fmt.Errorf("mark batch downloading: %w", err)
	}
	metrics.IncQueueBatch()
	uc.log.Info().Int("taken", len(items)).Msg("claimed batch")

	// Transcriptions run concurrently under the scheduler's limit; everything
	// after the future resolves is cheap and handled sequentially per item.
	type pending struct {
		item *model.QueueItem
		fut  *sched.Future
	}
	var work []pending
	done := 0
	for _, item := range items {
		if uc.dedup.IsAlreadyProcessed(ctx, item.Source, item.NoteKey()) {
			uc.log.Info().Str("item_id", item.ID).Str("note_id", item.NoteID).
				Msg("already processed, skipping")
			uc.finishItem(ctx, item.ID, "skipped")
			done++
			continue
		}
		item := item
		fut := uc.scheduler.Submit(ctx, func(ctx context.Context) (interface{}, error) {
			return uc.transcriber.Transcribe(ctx, item.RecordingURL)
		})
		work = append(work, pending{item: item, fut: fut})
	}

	for _, p := range work {
		if uc.processOne(ctx, p.item, p.fut) {
			done++
		}
	}

	uc.refreshDepthGauges(ctx)
	return Report{OK: true, Taken: len(items), Done: done}, nil
}

// processOne finishes a single claimed item once its transcription future
// resolves. Returns true when the item reached done.
func (uc *ProcessUseCase) processOne(ctx context.Context, item *model.QueueItem, fut *sched.Future) bool {
	ctx = logging.WithItemID(ctx, item.ID)
	ctx = logging.WithNoteID(ctx, item.NoteID)
	log := logging.With(ctx, uc.log)

	v, err := fut.Wait(ctx)
	if err != nil {
		log.Error().Err(err).Str("url", item.RecordingURL).Msg("transcription failed")
		uc.failItem(ctx, item, err)
		return false
	}
	transcript := v.(*model.Transcript)

	assessment := uc.analyzer.Analyze(ctx, transcript, CallMeta{
		Source:      item.Source,
		NoteID:      item.NoteKey(),
		DurationSec: item.DurationSec,
	})
	uc.notify(ctx, summaryText(item, assessment))

	// Marker first, then status: a crash in between leaves the item stuck in
	// downloading, which an operator can see, but never double-charges.
	uc.dedup.MarkProcessed(ctx, item.Source, item.NoteKey(), item.RecordingURL)

	uc.finishItem(ctx, item.ID, "done")
	log.Info().Str("intent", string(assessment.Intent)).
		Str("source", string(assessment.Source)).
		Msg("item processed")
	return true
}

func (uc *ProcessUseCase) finishItem(ctx context.Context, id, outcome string) {
	if err := uc.queue.MarkDone(ctx, nil, id); err != nil {
		uc.log.Error().Err(err).Str("item_id", id).Msg("failed to mark item done")
		return
	}
	metrics.IncQueueItem(outcome)
}

func (uc *ProcessUseCase) failItem(ctx context.Context, item *model.QueueItem, cause error) {
	if err := uc.queue.MarkError(ctx, nil, item.ID, cause.Error()); err != nil {
		uc.log.Error().Err(err).Str("item_id", item.ID).Msg("failed to mark item error")
	}
	metrics.IncQueueItem("error")
	uc.notify(ctx, fmt.Sprintf("⚠️ call %s: %v", item.NoteID, cause))
}

// notify is fire-and-forget: the sink never gets to fail the pipeline.
func (uc *ProcessUseCase) notify(ctx context.Context, text string) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(ctx, text); err != nil {
		uc.log.Warn().Err(err).Msg("notification failed")
	}
}

func (uc *ProcessUseCase) refreshDepthGauges(ctx context.Context) {
	counts, err := uc.queue.CountByStatus(ctx)
	if err != nil {
		return
	}
	for _, status := range []model.RecordingStatus{
		model.RecordingStatusPending, model.RecordingStatusDownloading,
		model.RecordingStatusDone, model.RecordingStatusError,
	} {
		metrics.SetQueueDepth(string(status), counts[status])
	}
}

func summaryText(item *model.QueueItem, a *model.QualityAssessment) string {
	score := "—"
	if a.ScoreTotal != nil {
		score = fmt.Sprintf("%d/100", *a.ScoreTotal)
	}
	text := fmt.Sprintf("☎️ call %s: intent=%s, %ds, score %s", item.NoteID, a.Intent, item.DurationSec, score)
	if a.Escalate {
		text += " ‼️ escalate"
	}
	return text
}
