// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"math"
	"testing"
	"time"
)

func testCatalog() []Course {
	return []Course{
		{
			ID:       "c1",
			Category: "programming",
			Level:    "beginner",
			Language: "en",
			Pricing:  Pricing{Price: 50},
			Reviews:  []CourseReview{{Rating: 4}, {Rating: 5}},
			Sections: []Section{{Lectures: []Lecture{{DurationMinutes: 10}, {DurationMinutes: 20}}}},
		},
		{
			ID:       "c2",
			Category: "design",
			Level:    "advanced",
			Language: "de",
			Pricing:  Pricing{IsFree: true},
		},
	}
}

func TestBuildFeatureSpace(t *testing.T) {
	fs := buildFeatureSpace(testCatalog())

	if got, want := len(fs.Categories), 2; got != want {
		t.Errorf("categories = %v, want %d entries", fs.Categories, want)
	}
	if fs.Categories[0] != "design" || fs.Categories[1] != "programming" {
		t.Errorf("categories not sorted: %v", fs.Categories)
	}
	if fs.MaxPrice != 50 {
		t.Errorf("MaxPrice = %v, want 50", fs.MaxPrice)
	}
	if fs.MaxReviewCount != 2 {
		t.Errorf("MaxReviewCount = %v, want 2", fs.MaxReviewCount)
	}

	// Maxima never drop below 1, so normalization cannot divide by zero.
	empty := buildFeatureSpace(nil)
	if empty.MaxPrice != 1 || empty.MaxLectureCount != 1 {
		t.Errorf("empty-catalog maxima = %+v, want floors of 1", empty)
	}
}

func TestVectorize(t *testing.T) {
	courses := testCatalog()
	fs := buildFeatureSpace(courses)

	vec := fs.Vectorize(&courses[0])
	if len(vec) != fs.Dim() {
		t.Fatalf("len(vec) = %d, want %d", len(vec), fs.Dim())
	}

	// One-hot: "programming" is index 1 in the sorted category block.
	if vec[0] != 0 || vec[1] != 1 {
		t.Errorf("category block = %v, want [0 1]", vec[:2])
	}

	numeric := vec[len(vec)-numericFeatureCount:]
	if numeric[0] != 1 {
		t.Errorf("normalized price = %v, want 1 (course sets the max)", numeric[0])
	}
	if numeric[1] != 0 {
		t.Errorf("is-free = %v, want 0", numeric[1])
	}
	if math.Abs(numeric[2]-4.5/RatingMax) > 1e-12 {
		t.Errorf("normalized rating = %v, want %v", numeric[2], 4.5/RatingMax)
	}
}

func TestVectorizeUnseenValues(t *testing.T) {
	fs := buildFeatureSpace(testCatalog())

	fresh := Course{ID: "c9", Category: "music", Level: "expert", Language: "fr"}
	vec := fs.Vectorize(&fresh)

	oneHot := vec[:len(vec)-numericFeatureCount]
	for i, v := range oneHot {
		if v != 0 {
			t.Errorf("one-hot[%d] = %v for values unseen at training time, want 0", i, v)
		}
	}
}

func TestBuildUserProfiles(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	courses := testCatalog()
	fs := buildFeatureSpace(courses)
	vectors := buildCourseVectors(&fs, courses)

	rm, err := buildRatingMatrix(
		[]User{{ID: "u1"}, {ID: "u2"}},
		courses,
		[]Enrollment{
			{ParticipantID: "u1", CourseID: "c1", Progress: 100, Completed: true, StartedAt: now},
			{ParticipantID: "u1", CourseID: "c2", Progress: 20, StartedAt: now},
		},
		testWeights(), now)
	if err != nil {
		t.Fatalf("buildRatingMatrix() error = %v", err)
	}

	profiles := buildUserProfiles(rm, vectors, fs.Dim())

	profile, ok := profiles["u1"]
	if !ok {
		t.Fatal("u1 has rated enrollments but no profile")
	}
	if len(profile) != fs.Dim() {
		t.Fatalf("profile dim = %d, want %d", len(profile), fs.Dim())
	}
	if _, ok := profiles["u2"]; ok {
		t.Error("u2 has no enrollments but got a profile")
	}

	// The weighted average leans toward the higher-rated course c1, whose
	// category block is [0 1].
	if profile[1] <= profile[0] {
		t.Errorf("profile category weights = [%.3f %.3f], want c1's category dominant", profile[0], profile[1])
	}
}
