// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ratingMatrix bundles the dense user x course rating matrix with the index
// maps fixed for one training run. Indices are assigned by sorting natural
// ids ascending, so identical input data always yields identical matrices.
type ratingMatrix struct {
	matrix *mat.Dense

	userIndex   map[string]int
	courseIndex map[string]int
	userIDs     []string
	courseIDs   []string

	// filled is the number of non-zero cells, for density reporting.
	filled int
}

// density returns the fraction of non-zero cells.
func (rm *ratingMatrix) density() float64 {
	r, c := rm.matrix.Dims()
	if r == 0 || c == 0 {
		return 0
	}
	return float64(rm.filled) / float64(r*c)
}

// buildRatingMatrix assembles the user x course matrix from enrollments,
// synthesizing one implicit rating per (user, course) pair. Enrollments
// referencing unknown users or courses are skipped.
func buildRatingMatrix(users []User, courses []Course, enrollments []Enrollment, w RatingWeights, now time.Time) (*ratingMatrix, error) {
	if len(users) == 0 || len(courses) == 0 {
		return nil, fmt.Errorf("build rating matrix: %d users, %d courses", len(users), len(courses))
	}

	userIDs := make([]string, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.ID)
	}
	sort.Strings(userIDs)

	courseIDs := make([]string, 0, len(courses))
	for _, c := range courses {
		courseIDs = append(courseIDs, c.ID)
	}
	sort.Strings(courseIDs)

	userIndex := make(map[string]int, len(userIDs))
	for i, id := range userIDs {
		userIndex[id] = i
	}
	courseIndex := make(map[string]int, len(courseIDs))
	for i, id := range courseIDs {
		courseIndex[id] = i
	}

	reviews := explicitReviews(users)

	rm := &ratingMatrix{
		matrix:      mat.NewDense(len(userIDs), len(courseIDs), nil),
		userIndex:   userIndex,
		courseIndex: courseIndex,
		userIDs:     userIDs,
		courseIDs:   courseIDs,
	}

	for _, e := range enrollments {
		ui, uok := userIndex[e.ParticipantID]
		ci, cok := courseIndex[e.CourseID]
		if !uok || !cok {
			continue
		}

		var review *float64
		if r, ok := reviews[e.ParticipantID][e.CourseID]; ok {
			review = &r
		}

		if rm.matrix.At(ui, ci) == 0 {
			rm.filled++
		}
		rm.matrix.Set(ui, ci, SynthesizeRating(e, review, w, now))
	}

	return rm, nil
}

// explicitReviews indexes users' explicit ratings by user id and course id.
func explicitReviews(users []User) map[string]map[string]float64 {
	reviews := make(map[string]map[string]float64)
	for _, u := range users {
		if len(u.Reviews) == 0 {
			continue
		}
		byCourse := make(map[string]float64, len(u.Reviews))
		for _, r := range u.Reviews {
			byCourse[r.CourseID] = r.Rating
		}
		reviews[u.ID] = byCourse
	}
	return reviews
}
