// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"context"
	"time"
)

// Enrollment is one participant-course interaction record. It is immutable
// input to training; the engine never mutates it.
type Enrollment struct {
	// ParticipantID is the enrolled user's identifier.
	ParticipantID string `json:"participant_id"`

	// CourseID is the course identifier.
	CourseID string `json:"course_id"`

	// Progress is the completion percentage (0-100).
	Progress float64 `json:"progress"`

	// Completed indicates the course was finished.
	Completed bool `json:"completed"`

	// CompletedAt is when the course was completed, if it was.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// StartedAt is when the participant enrolled.
	StartedAt time.Time `json:"started_at"`

	// HasPassedQuiz indicates the final quiz was passed.
	HasPassedQuiz bool `json:"has_passed_quiz"`

	// QuizScore is the final quiz score (0-100).
	QuizScore float64 `json:"quiz_score"`
}

// Review is an explicit course rating left by a user.
type Review struct {
	CourseID string `json:"course_id"`

	// Rating is the explicit rating (1-5).
	Rating float64 `json:"rating"`
}

// User is an active student with optional academic context.
type User struct {
	ID string `json:"id"`

	// StudyField is the user's declared field of study, if any.
	StudyField string `json:"study_field,omitempty"`

	// EducationLevel is the user's education level, if any.
	EducationLevel string `json:"education_level,omitempty"`

	// Reviews are the user's explicit course ratings.
	Reviews []Review `json:"reviews,omitempty"`
}

// Pricing describes how a course is sold.
type Pricing struct {
	Price  float64 `json:"price"`
	IsFree bool    `json:"is_free"`
}

// CourseReview is an anonymous rating attached to a course.
type CourseReview struct {
	Rating float64 `json:"rating"`
}

// Lecture is a single lecture within a course section.
type Lecture struct {
	DurationMinutes float64 `json:"duration_minutes"`
}

// Section groups lectures within a course.
type Section struct {
	Lectures []Lecture `json:"lectures"`
}

// Course is a catalog entry with the metadata the content profiler consumes.
type Course struct {
	ID        string         `json:"id"`
	Category  string         `json:"category"`
	Level     string         `json:"level"`
	Language  string         `json:"language"`
	Pricing   Pricing        `json:"pricing"`
	Reviews   []CourseReview `json:"reviews,omitempty"`
	Sections  []Section      `json:"sections,omitempty"`
	Published bool           `json:"published"`
}

// AverageRating returns the mean explicit rating, or 0 with no reviews.
func (c *Course) AverageRating() float64 {
	if len(c.Reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range c.Reviews {
		sum += r.Rating
	}
	return sum / float64(len(c.Reviews))
}

// LectureCount returns the total number of lectures across all sections.
func (c *Course) LectureCount() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Lectures)
	}
	return n
}

// CourseSummary is the display form of a course returned by serving queries,
// enriched with the score that ranked it.
type CourseSummary struct {
	ID            string  `json:"id"`
	Category      string  `json:"category"`
	Level         string  `json:"level"`
	Language      string  `json:"language"`
	Price         float64 `json:"price"`
	IsFree        bool    `json:"is_free"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`

	// Score is the ranking score (predicted rating or similarity).
	Score float64 `json:"score"`
}

// summarize builds a CourseSummary from live course data and a ranking score.
func summarize(c *Course, score float64) CourseSummary {
	return CourseSummary{
		ID:            c.ID,
		Category:      c.Category,
		Level:         c.Level,
		Language:      c.Language,
		Price:         c.Pricing.Price,
		IsFree:        c.Pricing.IsFree,
		AverageRating: c.AverageRating(),
		ReviewCount:   len(c.Reviews),
		Score:         score,
	}
}

// ScoredCourse is a cached (course, score) pair in a user's precomputed
// recommendation list.
type ScoredCourse struct {
	CourseID string  `json:"course_id"`
	Score    float64 `json:"score"`
}

// DataProvider is the read-only query interface the engine consumes. It is
// typically implemented by the catalog database layer.
type DataProvider interface {
	// ListEnrollments returns every enrollment record.
	ListEnrollments(ctx context.Context) ([]Enrollment, error)

	// ListActiveStudents returns all active users with their reviews.
	ListActiveStudents(ctx context.Context) ([]User, error)

	// ListPublishedCourses returns all published courses with full metadata.
	ListPublishedCourses(ctx context.Context) ([]Course, error)

	// GetCourse returns one course by id, or (nil, nil) if unknown.
	GetCourse(ctx context.Context, id string) (*Course, error)

	// GetUser returns one user by id, or (nil, nil) if unknown.
	GetUser(ctx context.Context, id string) (*User, error)
}

// TrainingMetadata records the shape of the data a snapshot was trained on.
type TrainingMetadata struct {
	// TrainedAt is when the training run completed.
	TrainedAt time.Time `json:"trained_at"`

	// Version increases by one on every successful training run.
	Version int `json:"version"`

	// UserCount is the number of users at training time.
	UserCount int `json:"user_count"`

	// CourseCount is the number of published courses at training time.
	CourseCount int `json:"course_count"`

	// EnrollmentCount is the number of enrollments at training time.
	EnrollmentCount int `json:"enrollment_count"`

	// MatrixDensity is the fraction of non-zero cells in the rating matrix.
	MatrixDensity float64 `json:"matrix_density"`

	// FactorizationRank is the rank actually used by the factorizer.
	FactorizationRank int `json:"factorization_rank"`
}

// Recommended actions reported by the training status monitor.
const (
	ActionTrain    = "train"
	ActionRetrain  = "retrain"
	ActionUpToDate = "up_to_date"
)

// Urgency levels reported by the training status monitor.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// TrainingStatus is the derived staleness assessment of the current model.
// It is computed on demand and never stored.
type TrainingStatus struct {
	// NeedsRetraining is true when the decision table recommends retraining.
	NeedsRetraining bool `json:"needs_retraining"`

	// LastTrainedAt is when the current model was trained; zero if untrained.
	LastTrainedAt time.Time `json:"last_trained_at"`

	// DaysSinceLastTraining is the whole days elapsed since training.
	DaysSinceLastTraining int `json:"days_since_last_training"`

	// NewUsers is the user count delta since training.
	NewUsers int `json:"new_users"`

	// NewCourses is the course count delta since training.
	NewCourses int `json:"new_courses"`

	// NewEnrollments is the enrollment count delta since training.
	NewEnrollments int `json:"new_enrollments"`

	// RecommendedAction is one of "train", "retrain", "up_to_date".
	RecommendedAction string `json:"recommended_action"`

	// Urgency is one of "low", "medium", "high", "critical".
	Urgency string `json:"urgency"`
}
