// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/coursewise/coursewise/internal/config"
	"github.com/coursewise/coursewise/internal/metrics"
	"github.com/coursewise/coursewise/internal/recommend"
)

// handlerTimeout caps one request's work against the engine and catalog.
const handlerTimeout = 10 * time.Second

// HealthChecker is the slice of the catalog the health endpoint needs.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler serves the recommendation API.
type Handler struct {
	engine *recommend.Engine
	db     HealthChecker
	cfg    config.APIConfig
	logger zerolog.Logger
}

// NewHandler creates the API handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine *recommend.Engine, db HealthChecker, cfg config.APIConfig, logger zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		db:     db,
		cfg:    cfg,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	status := "ok"
	httpStatus := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error().Err(err).Msg("health check database ping failed")
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respondJSON(w, r, httpStatus, &APIResponse{
		Status: "success",
		Data: map[string]any{
			"status":        status,
			"model_trained": h.engine.IsModelTrained(),
		},
	})
}

// GetRecommendations handles GET /api/v1/recommendations/user/{userID}.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, r, http.StatusBadRequest, "INVALID_USER_ID", "user id must not be empty", nil)
		return
	}
	limit := h.parseLimit(r)

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	courses, err := h.engine.GetRecommendationsForUser(ctx, userID, limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "RECOMMENDATION_ERROR", "failed to generate recommendations", err)
		return
	}
	if courses == nil {
		courses = []recommend.CourseSummary{}
	}

	result := "ok"
	if len(courses) == 0 {
		result = "empty"
	}
	metrics.RecommendationRequests.WithLabelValues(result).Inc()

	respondJSON(w, r, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]any{
			"user_id": userID,
			"courses": courses,
			"count":   len(courses),
		},
	})
}

// GetSimilarCourses handles GET /api/v1/courses/{courseID}/similar.
func (h *Handler) GetSimilarCourses(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		respondError(w, r, http.StatusBadRequest, "INVALID_COURSE_ID", "course id must not be empty", nil)
		return
	}
	limit := h.parseLimit(r)

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	courses, err := h.engine.GetSimilarCourses(ctx, courseID, limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "SIMILARITY_ERROR", "failed to find similar courses", err)
		return
	}
	if courses == nil {
		courses = []recommend.CourseSummary{}
	}

	respondJSON(w, r, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]any{
			"course_id": courseID,
			"courses":   courses,
			"count":     len(courses),
		},
	})
}

// GetPrediction handles GET /api/v1/predictions/user/{userID}/course/{courseID}.
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	courseID := chi.URLParam(r, "courseID")
	if userID == "" || courseID == "" {
		respondError(w, r, http.StatusBadRequest, "INVALID_ID", "user id and course id must not be empty", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	mode := "model"
	if !h.engine.IsModelTrained() {
		mode = "fallback"
	}
	metrics.PredictionRequests.WithLabelValues(mode).Inc()

	respondJSON(w, r, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]any{
			"user_id":          userID,
			"course_id":        courseID,
			"predicted_rating": h.engine.PredictRating(ctx, userID, courseID),
		},
	})
}

// GetModelStatus handles GET /api/v1/model/status.
func (h *Handler) GetModelStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	status, err := h.engine.GetTrainingStatus(ctx)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STATUS_ERROR", "failed to compute training status", err)
		return
	}

	respondJSON(w, r, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   status,
	})
}

// TriggerTraining handles POST /api/v1/model/train. Training runs in the
// background; the request returns immediately.
func (h *Handler) TriggerTraining(w http.ResponseWriter, r *http.Request) {
	// Probe for a concurrent run without starting one on this goroutine.
	done := make(chan error, 1)
	go func() {
		start := time.Now()
		err := h.engine.Train(context.Background())
		done <- err
		if err == nil || errors.Is(err, recommend.ErrTrainingInProgress) {
			return
		}
		h.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("background training failed")
	}()

	select {
	case err := <-done:
		// Train returned immediately: either the single-flight lock was
		// held or it failed before doing real work.
		if errors.Is(err, recommend.ErrTrainingInProgress) {
			respondError(w, r, http.StatusConflict, "TRAINING_IN_PROGRESS", "training is already in progress", nil)
			return
		}
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, "TRAINING_ERROR", "training failed", err)
			return
		}
		respondJSON(w, r, http.StatusOK, &APIResponse{
			Status: "success",
			Data:   map[string]string{"message": "training completed"},
		})
	case <-time.After(100 * time.Millisecond):
		respondJSON(w, r, http.StatusAccepted, &APIResponse{
			Status: "success",
			Data:   map[string]string{"message": "training started"},
		})
	}
}

// parseLimit reads ?limit with the configured default and cap.
func (h *Handler) parseLimit(r *http.Request) int {
	limit := h.cfg.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if h.cfg.MaxLimit > 0 && limit > h.cfg.MaxLimit {
		limit = h.cfg.MaxLimit
	}
	return limit
}
