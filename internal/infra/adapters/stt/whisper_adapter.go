package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"crm-call-insights/internal/domain/ports/adapter"
)

var _ adapter.SpeechToTextAdapter = (*WhisperAdapter)(nil)

// WhisperAdapter implements the STT port against any OpenAI-compatible
// /audio/transcriptions endpoint (multipart upload, JSON response).
type WhisperAdapter struct {
	apiKey string
	base   string // e.g., https://api.openai.com/v1
	model  string
	client *http.Client
}

func NewWhisperAdapter(apiKey, model, base string) (*WhisperAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("stt api key empty")
	}
	if model == "" {
		model = "whisper-1"
	}
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return &WhisperAdapter{
		apiKey: apiKey,
		base:   strings.TrimRight(base, "/"),
		model:  model,
		// Deadline comes from the caller's context; keep a generous ceiling.
		client: &http.Client{Timeout: 10 * time.Minute},
	}, nil
}

func (w *WhisperAdapter) Transcribe(ctx context.Context, audio []byte, hints adapter.TranscribeHints) (string, error) {
	filename := hints.Filename
	if filename == "" {
		filename = "audio.mp3"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	_ = mw.WriteField("model", w.model)
	if hints.Language != "" {
		_ = mw.WriteField("language", hints.Language)
	}
	_ = mw.WriteField("response_format", "json")
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.base+"/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("stt http %d", resp.StatusCode)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload.Text, nil
}
