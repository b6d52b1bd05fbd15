package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"crm-call-insights/internal/config"
	"crm-call-insights/internal/domain/model"
	"crm-call-insights/internal/domain/ports/adapter"
	"crm-call-insights/internal/infra/metrics"
)

// CallMeta carries the out-of-band facts about a call that the classifier
// needs besides the transcript itself.
type CallMeta struct {
	Source      string
	NoteID      string
	DurationSec int
}

// AnalyzeUseCase derives an intent and a 0-100 quality score from a
// transcript. It tries the scoring model first and falls back silently to the
// deterministic heuristics; callers never see the model failure, only which
// path produced the assessment.
type AnalyzeUseCase struct {
	ai         adapter.AIServiceAdapter // nil forces the heuristic path
	cfg        config.AnalysisConfig
	nonEval    map[model.CallIntent]bool
	configHash string
	entropy    *ulid.MonotonicEntropy
	log        *zerolog.Logger
}

func NewAnalyzeUseCase(ai adapter.AIServiceAdapter, cfg config.AnalysisConfig, stt config.STTConfig, logger *zerolog.Logger) *AnalyzeUseCase {
	nonEval := make(map[model.CallIntent]bool, len(cfg.NonEvaluableIntents))
	for _, in := range cfg.NonEvaluableIntents {
		nonEval[model.CallIntent(in)] = true
	}
	l := logger.With().Str("component", "AnalyzeUC").Logger()
	return &AnalyzeUseCase{
		ai:         ai,
		cfg:        cfg,
		nonEval:    nonEval,
		configHash: ConfigFingerprint(cfg, stt),
		entropy:    ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		log:        &l,
	}
}

// ConfigFingerprint hashes the active scoring configuration into a stable hex
// digest. Identical configuration always yields the identical hash, which is
// what lets an assessment be audited against the exact thresholds that
// produced it.
func ConfigFingerprint(cfg config.AnalysisConfig, stt config.STTConfig) string {
	nonEval := append([]string(nil), cfg.NonEvaluableIntents...)
	sort.Strings(nonEval)

	lines := []string{
		fmt.Sprintf("alert_rules_version=%s", cfg.AlertRulesVersion),
		fmt.Sprintf("alert_score_threshold=%d", cfg.AlertScoreThreshold),
		fmt.Sprintf("alert_sentiment_floor=%d", cfg.AlertSentimentFloor),
		fmt.Sprintf("asr_concurrency=%d", stt.Concurrency),
		fmt.Sprintf("max_download_mb=%d", stt.MaxDownloadMB),
		fmt.Sprintf("model=%s", cfg.Model),
		fmt.Sprintf("non_evaluable=%s", strings.Join(nonEval, ",")),
		fmt.Sprintf("rubric_version=%s", cfg.RubricVersion),
		fmt.Sprintf("short_call_sec=%d", cfg.ShortCallSec),
	}
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// Analyze never fails: the worst case is a heuristic assessment.
func (uc *AnalyzeUseCase) Analyze(ctx context.Context, transcript *model.Transcript, meta CallMeta) *model.QualityAssessment {
	text := transcript.Text()

	a, ok := uc.modelAnalyze(ctx, text)
	if !ok {
		a = uc.heuristicAnalyze(text, meta)
	}

	// Duration is ground truth for "short", whatever the model asserted.
	if meta.DurationSec > 0 && meta.DurationSec <= uc.cfg.ShortCallSec {
		a.Intent = model.IntentShort
	}

	if uc.nonEval[a.Intent] {
		// Non-evaluable calls are neither scored nor alerted on.
		a.ScoreTotal = nil
		a.SuppressAlert = true
		a.Escalate = false
	} else {
		a.SuppressAlert = false
		if !a.Escalate {
			a.Escalate = uc.shouldEscalate(a)
		}
	}

	a.Passport = model.Passport{
		Model:             uc.cfg.Model,
		RubricVersion:     uc.cfg.RubricVersion,
		AlertRulesVersion: uc.cfg.AlertRulesVersion,
		ConfigHash:        uc.configHash,
		TraceID:           ulid.MustNew(ulid.Timestamp(time.Now()), uc.entropy).String(),
	}

	metrics.IncAnalysis(string(a.Source), string(a.Intent))
	return a
}

func (uc *AnalyzeUseCase) shouldEscalate(a *model.QualityAssessment) bool {
	if a.Sentiment <= uc.cfg.AlertSentimentFloor {
		return true
	}
	return a.ScoreTotal != nil && *a.ScoreTotal < uc.cfg.AlertScoreThreshold
}

func (uc *AnalyzeUseCase) heuristicAnalyze(text string, meta CallMeta) *model.QualityAssessment {
	intent := heuristicIntent(text, meta.DurationSec, uc.cfg.ShortCallSec)
	dims := heuristicDimensions(text)
	total := totalFromDimensions(dims)
	return &model.QualityAssessment{
		Intent:     intent,
		Sentiment:  heuristicSentiment(text),
		ScoreTotal: &total,
		Dimensions: dims,
		Source:     model.AnalysisSourceHeuristic,
	}
}

const rubricPromptFmt = `Ты оцениваешь качество телефонного звонка отдела продаж.
Определи intent звонка: sales | support | info | misroute | short | ivr_only | unknown.
Оцени sentiment клиента целым числом от -3 до 3.
Оцени каждое измерение от 0 до 10: %s.
Посчитай score_total от 0 до 100 и реши, нужна ли эскалация.
Ответь ТОЛЬКО JSON-объектом:
{"intent": "...", "sentiment": 0, "score_total": 0, "scores": {"greeting": 0, ...}, "escalate": false}`

type modelVerdict struct {
	Intent     string         `json:"intent"`
	Sentiment  int            `json:"sentiment"`
	ScoreTotal *int           `json:"score_total"`
	Scores     map[string]int `json:"scores"`
	Escalate   bool           `json:"escalate"`
}

// modelAnalyze attempts the model-backed path. Any failure, from the network
// to a malformed reply, reports false and nothing else: fallback is silent.
func (uc *AnalyzeUseCase) modelAnalyze(ctx context.Context, text string) (*model.QualityAssessment, bool) {
	if uc.ai == nil || strings.TrimSpace(text) == "" {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
	defer cancel()

	messages := []adapter.Message{
		{Role: "system", Content: fmt.Sprintf(rubricPromptFmt, strings.Join(model.ScoreDimensions, ", "))},
		{Role: "user", Content: uc.budgetText(ctx, text)},
	}

	start := time.Now()
	reply, err := uc.ai.Chat(ctx, uc.cfg.Model, messages)
	metrics.ObserveAnalysisLatency(float64(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		uc.log.Debug().Err(err).Msg("scoring model call failed, falling back to heuristics")
		return nil, false
	}

	var v modelVerdict
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &v); err != nil {
		uc.log.Debug().Msg("scoring model reply unparseable, falling back to heuristics")
		return nil, false
	}

	intent := model.CallIntent(strings.ToLower(strings.TrimSpace(v.Intent)))
	switch intent {
	case model.IntentSales, model.IntentSupport, model.IntentInfo,
		model.IntentMisroute, model.IntentShort, model.IntentIVROnly, model.IntentUnknown:
	default:
		uc.log.Debug().Str("intent", v.Intent).Msg("scoring model returned unknown intent, falling back to heuristics")
		return nil, false
	}

	dims := make(map[string]int, len(model.ScoreDimensions))
	for _, dim := range model.ScoreDimensions {
		dims[dim] = clamp(v.Scores[dim], 0, 10)
	}
	total := totalFromDimensions(dims)
	if v.ScoreTotal != nil {
		total = clamp(*v.ScoreTotal, 0, 100)
	}

	return &model.QualityAssessment{
		Intent:     intent,
		Sentiment:  clamp(v.Sentiment, -3, 3),
		ScoreTotal: &total,
		Dimensions: dims,
		Escalate:   v.Escalate,
		Source:     model.AnalysisSourceModel,
	}, true
}

// budgetText trims the transcript to the prompt token budget. Counting is
// provider best-effort; the trim keeps the head of the call, where greeting
// and need-discovery live.
func (uc *AnalyzeUseCase) budgetText(ctx context.Context, text string) string {
	tokens, err := uc.ai.CountTokens(ctx, uc.cfg.Model, []adapter.Message{{Role: "user", Content: text}})
	if err != nil || tokens <= 0 {
		return text
	}
	metrics.ObservePromptTokens(tokens)
	if tokens <= uc.cfg.MaxPromptTokens {
		return text
	}
	runes := []rune(text)
	keep := len(runes) * uc.cfg.MaxPromptTokens / tokens
	if keep <= 0 || keep >= len(runes) {
		return text
	}
	return string(runes[:keep])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
