// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrTrainingInProgress is returned when TrainModel is invoked while
	// another training run holds the single-flight lock.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrNoEnrollments aborts training when there is no behavioral data.
	ErrNoEnrollments = errors.New("no enrollment data")
)

// Engine is the recommendation engine: it orchestrates training and answers
// recommendation, similarity and prediction queries against the currently
// published snapshot. It is safe for concurrent use; queries always observe
// a complete (possibly older) snapshot.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	provider DataProvider
	store    *Store

	// snapshot is the published model; nil until the first successful
	// training run or snapshot load.
	snapshot atomic.Pointer[Snapshot]

	// trainMu serializes training runs (single-flight).
	trainMu sync.Mutex

	// breaker guards live catalog lookups on the serving path.
	breaker *gobreaker.CircuitBreaker[*Course]
}

// NewEngine creates a recommendation engine. The provider supplies raw data
// for training and live course data for serving; the store persists
// snapshots.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, provider DataProvider, store *Store, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("data provider not set")
	}
	if store == nil {
		return nil, fmt.Errorf("snapshot store not set")
	}

	return &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		provider: provider,
		store:    store,
		breaker: gobreaker.NewCircuitBreaker[*Course](gobreaker.Settings{
			Name:        "catalog-lookup",
			MaxRequests: 3,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
	}, nil
}

// LoadSnapshot restores a previously persisted snapshot into memory, making
// the engine immediately able to serve after a restart.
func (e *Engine) LoadSnapshot() error {
	snap, err := e.store.Load()
	if err != nil {
		return err
	}

	e.snapshot.Store(snap)
	e.logger.Info().
		Int("version", snap.Metadata.Version).
		Time("trained_at", snap.Metadata.TrainedAt).
		Msg("snapshot loaded")
	return nil
}

// TrainModel runs a full training pass. Returns false on any failure (no
// data, factorization failure, persistence failure, training in progress);
// the previously published snapshot stays untouched in every failure case.
func (e *Engine) TrainModel(ctx context.Context) bool {
	if err := e.Train(ctx); err != nil {
		return false
	}
	return true
}

// IsModelTrained reports whether a complete snapshot is published.
func (e *Engine) IsModelTrained() bool {
	return e.snapshot.Load().Complete()
}

// ModelMetadata returns a copy of the published snapshot's training
// metadata, or nil when no model is trained.
func (e *Engine) ModelMetadata() *TrainingMetadata {
	snap := e.snapshot.Load()
	if !snap.Complete() {
		return nil
	}
	meta := snap.Metadata
	return &meta
}

// PredictRating predicts the rating the user would give the course, in
// [0,5]. Unknown ids degrade through the cold-start chain: content-only
// score, then the neutral default. Never errors.
func (e *Engine) PredictRating(ctx context.Context, userID, courseID string) float64 {
	snap := e.snapshot.Load()
	if !snap.Complete() {
		return neutralScore
	}

	vec := e.courseVector(ctx, snap, courseID)
	return predictRating(snap, e.config, userID, courseID, vec)
}

// GetRecommendationsForUser returns up to limit course recommendations. The
// fast path serves the precomputed Top-N cache re-enriched with live course
// data; users without a cached list get an on-demand scoring pass over the
// published catalog (slower, not written back to the cache).
func (e *Engine) GetRecommendationsForUser(ctx context.Context, userID string, limit int) ([]CourseSummary, error) {
	if limit <= 0 {
		limit = e.config.Training.TopN
	}

	snap := e.snapshot.Load()
	if !snap.Complete() {
		e.logger.Debug().Str("user_id", userID).Msg("recommendations requested before training")
		return []CourseSummary{}, nil
	}

	if recs, ok := snap.Recommendations[userID]; ok {
		return e.enrichScored(ctx, recs, limit), nil
	}

	return e.recommendOnDemand(ctx, snap, userID, limit)
}

// recommendOnDemand scores the full published catalog for a user without a
// precomputed list.
func (e *Engine) recommendOnDemand(ctx context.Context, snap *Snapshot, userID string, limit int) ([]CourseSummary, error) {
	courses, err := e.provider.ListPublishedCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published courses: %w", err)
	}

	user := e.lookupUser(ctx, userID)
	if user == nil {
		user = &User{ID: userID}
	}

	recs, err := recommendCourses(snap, e.config, user, courses, limit)
	if err != nil {
		return nil, fmt.Errorf("score catalog for user %s: %w", userID, err)
	}

	byID := make(map[string]*Course, len(courses))
	for i := range courses {
		byID[courses[i].ID] = &courses[i]
	}

	summaries := make([]CourseSummary, 0, len(recs))
	for _, r := range recs {
		if c, ok := byID[r.CourseID]; ok {
			summaries = append(summaries, summarize(c, r.Score))
		}
	}
	return summaries, nil
}

// GetSimilarCourses ranks all other courses by the item-similarity matrix
// row and returns up to limit as live course data. Returns an empty list,
// never an error, when the course is unknown or no model is published.
func (e *Engine) GetSimilarCourses(ctx context.Context, courseID string, limit int) ([]CourseSummary, error) {
	if limit <= 0 {
		limit = e.config.Training.TopN
	}

	snap := e.snapshot.Load()
	if !snap.Complete() {
		return []CourseSummary{}, nil
	}

	ci, ok := snap.CourseIndex[courseID]
	if !ok {
		e.logger.Debug().Str("course_id", courseID).Msg("similarity requested for unknown course")
		return []CourseSummary{}, nil
	}

	row := snap.CourseSimilarity[ci]
	candidates := make([]ScoredCourse, 0, len(row)-1)
	for j, sim := range row {
		if j == ci {
			continue
		}
		candidates = append(candidates, ScoredCourse{CourseID: snap.CourseIDs[j], Score: sim})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].CourseID < candidates[j].CourseID
	})

	return e.enrichScored(ctx, candidates, limit), nil
}

// GetTrainingStatus derives the staleness assessment from current raw-data
// counts and the published snapshot's metadata.
func (e *Engine) GetTrainingStatus(ctx context.Context) (TrainingStatus, error) {
	users, err := e.provider.ListActiveStudents(ctx)
	if err != nil {
		return TrainingStatus{}, fmt.Errorf("list active students: %w", err)
	}
	courses, err := e.provider.ListPublishedCourses(ctx)
	if err != nil {
		return TrainingStatus{}, fmt.Errorf("list published courses: %w", err)
	}
	enrollments, err := e.provider.ListEnrollments(ctx)
	if err != nil {
		return TrainingStatus{}, fmt.Errorf("list enrollments: %w", err)
	}

	var meta *TrainingMetadata
	if snap := e.snapshot.Load(); snap != nil {
		meta = &snap.Metadata
	}

	return computeTrainingStatus(meta, len(users), len(courses), len(enrollments), e.config.Staleness, time.Now()), nil
}

// enrichScored resolves cached (course, score) pairs into live course
// summaries, skipping courses that are gone or no longer published, up to
// limit entries.
func (e *Engine) enrichScored(ctx context.Context, scored []ScoredCourse, limit int) []CourseSummary {
	summaries := make([]CourseSummary, 0, limit)
	for _, r := range scored {
		if len(summaries) >= limit {
			break
		}
		c := e.lookupCourse(ctx, r.CourseID)
		if c == nil || !c.Published {
			continue
		}
		summaries = append(summaries, summarize(c, r.Score))
	}
	return summaries
}

// courseVector builds the content feature vector for a course, preferring a
// live lookup and falling back to the vector stored at training time.
func (e *Engine) courseVector(ctx context.Context, snap *Snapshot, courseID string) []float64 {
	if c := e.lookupCourse(ctx, courseID); c != nil {
		return snap.Features.Vectorize(c)
	}
	return snap.CourseVectors[courseID]
}

// lookupCourse fetches one course through the circuit breaker. Returns nil
// for unknown courses and for lookup failures.
func (e *Engine) lookupCourse(ctx context.Context, courseID string) *Course {
	c, err := e.breaker.Execute(func() (*Course, error) {
		return e.provider.GetCourse(ctx, courseID)
	})
	if err != nil {
		e.logger.Warn().Str("course_id", courseID).Err(err).Msg("course lookup failed")
		return nil
	}
	return c
}

// lookupUser fetches one user; failures and unknown ids both yield nil.
func (e *Engine) lookupUser(ctx context.Context, userID string) *User {
	u, err := e.provider.GetUser(ctx, userID)
	if err != nil {
		e.logger.Warn().Str("user_id", userID).Err(err).Msg("user lookup failed")
		return nil
	}
	return u
}
