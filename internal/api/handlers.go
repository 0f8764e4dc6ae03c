package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipsmith/clipsmith/internal/jobstore"
	"github.com/clipsmith/clipsmith/internal/models"
	"github.com/clipsmith/clipsmith/internal/queue"
)

type Handler struct {
	queue *queue.Queue
	jobs  *jobstore.Store
}

func NewHandler(q *queue.Queue, jobs *jobstore.Store) *Handler {
	return &Handler{
		queue: q,
		jobs:  jobs,
	}
}

// CreateVideo handles POST /v1/videos
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if req.StoryText == "" {
		respondError(w, http.StatusBadRequest, "Story text is required")
		return
	}

	jobID := uuid.New()

	if err := h.jobs.Create(r.Context(), jobID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	videoReq := models.VideoRequest{
		Title:              req.Title,
		StoryText:          req.StoryText,
		BackgroundCategory: req.BackgroundCategory,
		VoiceID:            req.VoiceID,
		Subreddit:          req.Subreddit,
		Author:             req.Author,
	}

	if err := h.queue.EnqueueRenderVideo(r.Context(), jobID, videoReq); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusAccepted, models.CreateVideoResponse{
		JobID:  jobID,
		Status: models.JobStatusProcessing,
	})
}

// GetVideo handles GET /v1/videos/{id} — the poll endpoint.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	state, err := h.jobs.Get(r.Context(), jobID)
	if errors.Is(err, jobstore.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get job status")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
