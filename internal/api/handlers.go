// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ManuGH/reelforge/internal/log"
	"github.com/ManuGH/reelforge/internal/pipeline/model"
	"github.com/ManuGH/reelforge/internal/pipeline/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Duration bounds for generation requests, in seconds.
const (
	MinDurationSeconds = 20
	MaxDurationSeconds = 60
)

// MaxTopicLength bounds the topic string.
const MaxTopicLength = 200

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	var req model.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid JSON body")
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		writeError(w, "Topic is required")
		return
	}
	if len(req.Topic) > MaxTopicLength {
		writeError(w, "Topic must be at most 200 characters")
		return
	}
	if req.DurationSeconds < MinDurationSeconds || req.DurationSeconds > MaxDurationSeconds {
		writeError(w, "Duration must be between 20 and 60 seconds")
		return
	}
	if req.Tone == "" {
		req.Tone = model.ToneInformative
	}
	if !model.ValidTone(req.Tone) {
		writeError(w, "Tone must be one of: informative, dramatic, motivational, neutral")
		return
	}

	now := time.Now().Unix()
	job := &model.Job{
		ID:              uuid.NewString(),
		Topic:           req.Topic,
		DurationSeconds: req.DurationSeconds,
		Tone:            req.Tone,
		DryRun:          req.DryRun,
		Status:          model.StatusQueued,
		Message:         "queued",
		CreatedAtUnix:   now,
		UpdatedAtUnix:   now,
	}

	if err := s.store.Create(r.Context(), job); err != nil {
		logger.Error().Err(err).Msg("enqueue failed")
		writeInternal(w)
		return
	}
	s.pool.Notify()

	logger.Info().Str(log.FieldJobID, job.ID).Str(log.FieldTopic, job.Topic).Msg("job enqueued")
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w)
			return
		}
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Msg("status lookup failed")
		writeInternal(w)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.List(r.Context())
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Msg("job list failed")
		writeInternal(w)
		return
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleMark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.marked.Mark(id)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Msg("mark failed")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": err == nil})
}

func (s *Server) handleUnmark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.marked.Unmark(id)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Msg("unmark failed")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": err == nil})
}

func (s *Server) handleIsMarked(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]bool{"isMarked": s.marked.IsMarked(id)})
}
