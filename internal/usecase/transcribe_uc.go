package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"crm-call-insights/internal/config"
	"crm-call-insights/internal/domain"
	"crm-call-insights/internal/domain/model"
	"crm-call-insights/internal/domain/ports/adapter"
	"crm-call-insights/internal/infra/metrics"
)

// TranscribeUseCase downloads a call recording within a size ceiling and runs
// it through the speech-to-text provider, optionally re-segmenting the text by
// speaker role. It holds no concurrency policy of its own; callers submit it
// to the task scheduler.
type TranscribeUseCase struct {
	stt        adapter.SpeechToTextAdapter // nil when no credential is configured
	ai         adapter.AIServiceAdapter    // nil disables role segmentation
	httpClient *http.Client
	cfg        config.STTConfig
	log        *zerolog.Logger
}

func NewTranscribeUseCase(
	stt adapter.SpeechToTextAdapter,
	ai adapter.AIServiceAdapter,
	httpClient *http.Client,
	cfg config.STTConfig,
	logger *zerolog.Logger,
) *TranscribeUseCase {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	l := logger.With().Str("component", "TranscribeUC").Logger()
	return &TranscribeUseCase{stt: stt, ai: ai, httpClient: httpClient, cfg: cfg, log: &l}
}

// Transcribe runs the full stage for one recording. Oversized or unavailable
// media and provider failures are terminal for this attempt; segmentation
// failures are not failures at all, they fall back to the raw text.
func (uc *TranscribeUseCase) Transcribe(ctx context.Context, recordingURL string) (*model.Transcript, error) {
	if uc.stt == nil {
		return nil, domain.ErrSTTNotConfigured
	}
	maxBytes := int64(uc.cfg.MaxDownloadMB) * 1024 * 1024

	// Best-effort size probe: failures fall through to the download, where the
	// ceiling is enforced again on actual bytes.
	if size, ok := uc.probeSize(ctx, recordingURL); ok && size > maxBytes {
		uc.log.Warn().Str("url", recordingURL).Int64("content_length", size).
			Msg("recording over size ceiling, skipping download")
		return nil, domain.ErrOversizedMedia
	}

	audio, err := uc.download(ctx, recordingURL, maxBytes)
	if err != nil {
		return nil, err
	}
	metrics.ObserveDownloadBytes(len(audio))

	raw, err := uc.speechToText(ctx, audio, recordingURL)
	if err != nil {
		return nil, err
	}

	t := &model.Transcript{Raw: raw}
	if uc.ai == nil || !uc.cfg.SegmentRoles {
		return t, nil
	}
	if turns, ok := uc.segmentRoles(ctx, raw); ok {
		t.Turns = turns
		t.Segmented = true
		metrics.IncSegmentation("segmented")
	} else {
		metrics.IncSegmentation("fallback")
	}
	return t, nil
}

func (uc *TranscribeUseCase) probeSize(ctx context.Context, rawURL string) (int64, bool) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, false
	}
	resp, err := uc.httpClient.Do(req)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 || resp.ContentLength < 0 {
		return 0, false
	}
	return resp.ContentLength, true
}

func (uc *TranscribeUseCase) download(ctx context.Context, rawURL string, maxBytes int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMediaUnavailable, err)
	}
	resp, err := uc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMediaUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http %d", domain.ErrMediaUnavailable, resp.StatusCode)
	}

	// Second size check, this time on actual bytes: one past the ceiling
	// means the body is too large.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMediaUnavailable, err)
	}
	if int64(len(body)) > maxBytes {
		return nil, domain.ErrOversizedMedia
	}
	return body, nil
}

func (uc *TranscribeUseCase) speechToText(ctx context.Context, audio []byte, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.TranscribeTimeout)
	defer cancel()

	start := time.Now()
	text, err := uc.stt.Transcribe(ctx, audio, adapter.TranscribeHints{Filename: filenameFromURL(rawURL)})
	metrics.ObserveSTTLatency(float64(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		return "", fmt.Errorf("speech-to-text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyTranscript
	}
	return text, nil
}

const segmentPrompt = `Разбей текст телефонного разговора на реплики по ролям.
Роли: ivr (автоответчик), manager (сотрудник компании), customer (клиент).
Ответь ТОЛЬКО JSON-массивом объектов вида {"speaker": "...", "text": "..."} без пояснений.`

// segmentRoles asks the model to partition the raw text into speaker turns.
// Strictly an enhancement: any failure, of the call or of the parse, reports
// false and the caller keeps the raw text.
func (uc *TranscribeUseCase) segmentRoles(ctx context.Context, raw string) ([]model.SpeakerTurn, bool) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.SegmentTimeout)
	defer cancel()

	reply, err := uc.ai.Chat(ctx, "", []adapter.Message{
		{Role: "system", Content: segmentPrompt},
		{Role: "user", Content: raw},
	})
	if err != nil {
		uc.log.Debug().Err(err).Msg("role segmentation call failed, keeping raw text")
		return nil, false
	}

	var parsed []struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &parsed); err != nil || len(parsed) == 0 {
		uc.log.Debug().Msg("role segmentation reply unparseable, keeping raw text")
		return nil, false
	}

	turns := make([]model.SpeakerTurn, 0, len(parsed))
	for _, p := range parsed {
		role := model.SpeakerRole(strings.ToLower(strings.TrimSpace(p.Speaker)))
		if !model.ValidSpeakerRole(role) {
			role = model.RoleUnknown
		}
		turns = append(turns, model.SpeakerTurn{Speaker: role, Text: p.Text})
	}
	return turns, true
}

// stripCodeFence removes a surrounding markdown code fence, if any. Models
// tend to wrap JSON answers in ```json ... ``` despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func filenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
