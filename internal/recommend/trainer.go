// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Train runs the full training pipeline and publishes the resulting snapshot.
// The operation is all-or-nothing: any abort returns an error and leaves both
// the published snapshot and the persisted artifact untouched. Returns
// ErrTrainingInProgress immediately if another training run holds the lock.
func (e *Engine) Train(ctx context.Context) error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	start := time.Now()
	e.logger.Info().Msg("starting model training")

	trainCtx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	snap, err := e.buildSnapshot(trainCtx)
	if err != nil {
		e.logger.Error().Err(err).Msg("training aborted")
		return err
	}

	// Persist before publish: a write failure must not leave memory and
	// disk disagreeing.
	if err := e.store.Save(snap); err != nil {
		e.logger.Error().Err(err).Msg("snapshot persistence failed, computed model discarded")
		return fmt.Errorf("persist snapshot: %w", err)
	}

	e.snapshot.Store(snap)

	e.logger.Info().
		Int("version", snap.Metadata.Version).
		Int("users", snap.Metadata.UserCount).
		Int("courses", snap.Metadata.CourseCount).
		Int("enrollments", snap.Metadata.EnrollmentCount).
		Float64("density", snap.Metadata.MatrixDensity).
		Int("rank", snap.Metadata.FactorizationRank).
		Dur("duration", time.Since(start)).
		Msg("model training complete")

	return nil
}

// buildSnapshot runs the pipeline stages and assembles a complete snapshot
// off to the side, without touching published state.
func (e *Engine) buildSnapshot(ctx context.Context) (*Snapshot, error) {
	enrollments, err := e.provider.ListEnrollments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return nil, ErrNoEnrollments
	}

	users, err := e.provider.ListActiveStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}

	courses, err := e.provider.ListPublishedCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published courses: %w", err)
	}

	now := time.Now()

	rm, err := buildRatingMatrix(users, courses, enrollments, e.config.Rating, now)
	if err != nil {
		return nil, err
	}

	factors, err := factorizeMatrix(rm.matrix, e.config.Factorization.Rank)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Int("rank", factors.rank).
		Float64("density", rm.density()).
		Msg("factorization complete")

	userSim := cosineSimilarityMatrix(factors.users)
	courseSim := cosineSimilarityMatrix(factors.courses)

	space := buildFeatureSpace(courses)
	courseVectors := buildCourseVectors(&space, courses)
	profiles := buildUserProfiles(rm, courseVectors, space.Dim())

	version := 1
	if prev := e.snapshot.Load(); prev != nil {
		version = prev.Metadata.Version + 1
	}

	snap := &Snapshot{
		UserIndex:        rm.userIndex,
		CourseIndex:      rm.courseIndex,
		UserIDs:          rm.userIDs,
		CourseIDs:        rm.courseIDs,
		Ratings:          denseToRows(rm.matrix),
		UserFeatures:     denseToRows(factors.users),
		CourseFeatures:   denseToRows(factors.courses),
		UserSimilarity:   userSim,
		CourseSimilarity: courseSim,
		Features:         space,
		CourseVectors:    courseVectors,
		UserProfiles:     profiles,
		Enrolled:         enrolledCourses(enrollments),
		Metadata: TrainingMetadata{
			TrainedAt:         now,
			Version:           version,
			UserCount:         len(users),
			CourseCount:       len(courses),
			EnrollmentCount:   len(enrollments),
			MatrixDensity:     rm.density(),
			FactorizationRank: factors.rank,
		},
	}

	snap.Recommendations = e.precomputeRecommendations(ctx, snap, users, courses)

	return snap, nil
}

// enrolledCourses groups enrollment course ids by user, sorted for
// deterministic snapshots.
func enrolledCourses(enrollments []Enrollment) map[string][]string {
	sets := make(map[string]map[string]struct{})
	for _, e := range enrollments {
		if sets[e.ParticipantID] == nil {
			sets[e.ParticipantID] = make(map[string]struct{})
		}
		sets[e.ParticipantID][e.CourseID] = struct{}{}
	}

	enrolled := make(map[string][]string, len(sets))
	for userID, set := range sets {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		enrolled[userID] = ids
	}
	return enrolled
}

// precomputeRecommendations builds the per-user Top-N cache with a bounded
// worker pool. Users are independent, so the fan-out is safe; a failure for
// one user is logged and skipped without aborting the pass.
func (e *Engine) precomputeRecommendations(ctx context.Context, snap *Snapshot, users []User, courses []Course) map[string][]ScoredCourse {
	workers := e.config.Training.PrecomputeWorkers

	type result struct {
		userID string
		recs   []ScoredCourse
	}

	jobs := make(chan User)
	results := make(chan result)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				recs, err := recommendCourses(snap, e.config, &u, courses, e.config.Training.TopN)
				if err != nil {
					e.logger.Warn().
						Str("user_id", u.ID).
						Err(err).
						Msg("recommendation precompute failed for user, skipping")
					continue
				}
				results <- result{userID: u.ID, recs: recs}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, u := range users {
			select {
			case jobs <- u:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	recommendations := make(map[string][]ScoredCourse, len(users))
	for r := range results {
		recommendations[r.userID] = r.recs
	}
	return recommendations
}

// recommendCourses scores every published course the user is not enrolled in
// and returns the top n by adjusted score. Ties break on course id so output
// is deterministic.
func recommendCourses(snap *Snapshot, cfg *Config, user *User, courses []Course, n int) ([]ScoredCourse, error) {
	dim := snap.Features.Dim()
	scored := make([]ScoredCourse, 0, len(courses))

	for i := range courses {
		c := &courses[i]
		if !c.Published || snap.IsEnrolled(user.ID, c.ID) {
			continue
		}

		vec := snap.CourseVectors[c.ID]
		if vec == nil {
			vec = snap.Features.Vectorize(c)
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("course %s: feature vector dimension %d, want %d", c.ID, len(vec), dim)
		}

		scored = append(scored, ScoredCourse{
			CourseID: c.ID,
			Score:    scoreCandidate(snap, cfg, user, user.ID, c, vec),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].CourseID < scored[j].CourseID
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored, nil
}
