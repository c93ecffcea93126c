// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Prediction bounds of the hybrid predictor.
const (
	PredictionMin = 0.0
	PredictionMax = 5.0
)

// levelCompatibility maps education levels to the course levels they match
// for the level-match ranking bonus.
var levelCompatibility = map[string]map[string]bool{
	"high_school": {"beginner": true},
	"associate":   {"beginner": true, "intermediate": true},
	"bachelor":    {"beginner": true, "intermediate": true},
	"master":      {"intermediate": true, "advanced": true},
	"phd":         {"advanced": true},
}

// levelCompatible reports whether a course level suits an education level.
func levelCompatible(educationLevel, courseLevel string) bool {
	return levelCompatibility[strings.ToLower(educationLevel)][strings.ToLower(courseLevel)]
}

// predictRating computes the hybrid rating prediction for a (user, course)
// pair against one snapshot. courseVec is the course's content feature
// vector, or nil when it could not be built.
//
// When both ids are in the trained index maps the collaborative score (dot
// product of latent factor rows, clamped to [0,5]) is blended with the
// content score; when either id is missing the content score stands alone
// (cold start). Always returns a value in [PredictionMin, PredictionMax].
func predictRating(snap *Snapshot, cfg *Config, userID, courseID string, courseVec []float64) float64 {
	content := contentScore(snap, userID, courseVec)

	ui, uok := snap.UserIndex[userID]
	ci, cok := snap.CourseIndex[courseID]
	if !uok || !cok {
		return clamp(content, PredictionMin, PredictionMax)
	}

	collab := clamp(floats.Dot(snap.UserFeatures[ui], snap.CourseFeatures[ci]), PredictionMin, PredictionMax)
	blended := cfg.Blend.Collaborative*collab + cfg.Blend.Content*content
	return clamp(blended, PredictionMin, PredictionMax)
}

// contentScore rescales the cosine similarity between a user's content
// profile and a course vector into [0,5]. Returns the neutral default when
// the user has no profile or either vector has zero norm.
func contentScore(snap *Snapshot, userID string, courseVec []float64) float64 {
	profile, ok := snap.UserProfiles[userID]
	if !ok || courseVec == nil {
		return neutralScore
	}

	sim, ok := cosine(profile, courseVec)
	if !ok {
		return neutralScore
	}
	return neutralScore + sim*neutralScore
}

// scoreCandidate computes the ranking score for a candidate course: the
// hybrid prediction plus the field-of-study and education-level bonuses.
// user may be nil when academic context is unavailable.
func scoreCandidate(snap *Snapshot, cfg *Config, user *User, userID string, course *Course, courseVec []float64) float64 {
	score := predictRating(snap, cfg, userID, course.ID, courseVec)

	if user != nil {
		if user.StudyField != "" && strings.EqualFold(user.StudyField, course.Category) {
			score += cfg.Bonus.CategoryMatch
		}
		if levelCompatible(user.EducationLevel, course.Level) {
			score += cfg.Bonus.LevelMatch
		}
	}

	return score
}
