package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"crm-call-insights/internal/domain"
	"crm-call-insights/internal/domain/model"
)

type queueItemResponse struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	EntityType   string `json:"entity_type"`
	NoteID       string `json:"note_id"`
	RecordingURL string `json:"recording_url"`
	DurationSec  int    `json:"duration_sec"`
	Status       string `json:"status"`
	LastError    string `json:"last_error,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toQueueItemResponse(item *model.QueueItem) queueItemResponse {
	return queueItemResponse{
		ID:           item.ID,
		Source:       item.Source,
		EntityType:   item.EntityType,
		NoteID:       item.NoteID,
		RecordingURL: item.RecordingURL,
		DurationSec:  item.DurationSec,
		Status:       string(item.Status),
		LastError:    item.LastError,
		CreatedAt:    item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    item.UpdatedAt.Format(time.RFC3339),
	}
}

// handleProcess triggers one queue pass. ?limit= overrides the configured
// batch limit for this pass only.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	limit := s.queueCfg.BatchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	report, err := s.processUC.ProcessQueueOnce(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("manual queue pass failed")
		http.Error(w, "queue pass failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	status := model.RecordingStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.RecordingStatusError
	}
	switch status {
	case model.RecordingStatusPending, model.RecordingStatusDownloading,
		model.RecordingStatusDone, model.RecordingStatusError:
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	items, err := s.queueRepo.FindByStatus(r.Context(), nil, status, limit)
	if err != nil {
		http.Error(w, "failed to list items", http.StatusInternalServerError)
		return
	}
	out := make([]queueItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toQueueItemResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

type enqueueRequest struct {
	Source       string `json:"source"`
	EntityType   string `json:"entity_type"`
	NoteID       string `json:"note_id"`
	RecordingURL string `json:"recording_url"`
	DurationSec  int    `json:"duration_sec"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RecordingURL == "" || req.NoteID == "" {
		http.Error(w, "recording_url and note_id are required", http.StatusBadRequest)
		return
	}
	if req.Source == "" {
		req.Source = s.queueCfg.Source
	}
	if req.EntityType == "" {
		req.EntityType = "lead"
	}

	item := &model.QueueItem{
		Source:       req.Source,
		EntityType:   req.EntityType,
		NoteID:       req.NoteID,
		RecordingURL: req.RecordingURL,
		DurationSec:  req.DurationSec,
	}
	if err := s.queueRepo.Enqueue(r.Context(), nil, item); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			http.Error(w, "recording already queued", http.StatusConflict)
			return
		}
		s.log.Error().Err(err).Str("note_id", req.NoteID).Msg("enqueue failed")
		http.Error(w, "enqueue failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toQueueItemResponse(item))
}

// handleRequeue re-drives a failed item. Only items in error status qualify.
func (s *Server) handleRequeue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.queueRepo.Requeue(r.Context(), nil, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "no such item in error status", http.StatusNotFound)
			return
		}
		http.Error(w, "requeue failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(model.RecordingStatusPending)})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
