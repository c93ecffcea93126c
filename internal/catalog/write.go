// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coursewise/coursewise/internal/metrics"
	"github.com/coursewise/coursewise/internal/recommend"
)

// InsertUser inserts or replaces a user record.
func (db *DB) InsertUser(ctx context.Context, u *recommend.User, active bool) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO users (id, study_field, education_level, active)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.StudyField, u.EducationLevel, active)
	metrics.RecordDBQuery("insert", "users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", u.ID, err)
	}

	for _, r := range u.Reviews {
		if err := db.InsertUserReview(ctx, u.ID, r.CourseID, r.Rating); err != nil {
			return err
		}
	}
	return nil
}

// InsertUserReview records one explicit course rating by a user.
func (db *DB) InsertUserReview(ctx context.Context, userID, courseID string, rating float64) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO user_reviews (user_id, course_id, rating) VALUES (?, ?, ?)`,
		userID, courseID, rating)
	metrics.RecordDBQuery("insert", "user_reviews", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert user review: %w", err)
	}
	return nil
}

// InsertCourse inserts or replaces a course with its sections, lectures and
// anonymous reviews. Section and lecture rows get fresh ids on every insert.
func (db *DB) InsertCourse(ctx context.Context, c *recommend.Course) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO courses (id, category, level, language, price, is_free, published)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Category, c.Level, c.Language, c.Pricing.Price, c.Pricing.IsFree, c.Published)
	metrics.RecordDBQuery("insert", "courses", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert course %s: %w", c.ID, err)
	}

	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sections WHERE course_id = ?`, c.ID); err != nil {
		return fmt.Errorf("clear sections for %s: %w", c.ID, err)
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM course_reviews WHERE course_id = ?`, c.ID); err != nil {
		return fmt.Errorf("clear reviews for %s: %w", c.ID, err)
	}

	for pos, section := range c.Sections {
		sectionID := uuid.NewString()
		if _, err := db.conn.ExecContext(ctx, `
			INSERT INTO sections (id, course_id, position) VALUES (?, ?, ?)`,
			sectionID, c.ID, pos); err != nil {
			return fmt.Errorf("insert section: %w", err)
		}
		for _, lecture := range section.Lectures {
			if _, err := db.conn.ExecContext(ctx, `
				INSERT INTO lectures (id, section_id, duration_minutes) VALUES (?, ?, ?)`,
				uuid.NewString(), sectionID, lecture.DurationMinutes); err != nil {
				return fmt.Errorf("insert lecture: %w", err)
			}
		}
	}

	for _, review := range c.Reviews {
		if _, err := db.conn.ExecContext(ctx, `
			INSERT INTO course_reviews (course_id, rating) VALUES (?, ?)`,
			c.ID, review.Rating); err != nil {
			return fmt.Errorf("insert course review: %w", err)
		}
	}

	return nil
}

// InsertEnrollment records one participant-course interaction.
func (db *DB) InsertEnrollment(ctx context.Context, e *recommend.Enrollment) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO enrollments (participant_id, course_id, progress, completed,
		                         completed_at, started_at, has_passed_quiz, quiz_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ParticipantID, e.CourseID, e.Progress, e.Completed,
		e.CompletedAt, e.StartedAt, e.HasPassedQuiz, e.QuizScore)
	metrics.RecordDBQuery("insert", "enrollments", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// SeedDemo loads a small demo catalog for local development.
func (db *DB) SeedDemo(ctx context.Context) error {
	now := time.Now()
	finished := now.AddDate(0, -1, 0)

	users := []recommend.User{
		{ID: "demo-alice", StudyField: "computer_science", EducationLevel: "bachelor",
			Reviews: []recommend.Review{{CourseID: "demo-go", Rating: 5}}},
		{ID: "demo-bob", StudyField: "design", EducationLevel: "master"},
		{ID: "demo-carol", EducationLevel: "high_school"},
	}
	courses := []recommend.Course{
		{ID: "demo-go", Category: "computer_science", Level: "beginner", Language: "en",
			Pricing: recommend.Pricing{Price: 49}, Published: true,
			Reviews:  []recommend.CourseReview{{Rating: 5}, {Rating: 4}},
			Sections: []recommend.Section{{Lectures: []recommend.Lecture{{DurationMinutes: 12}, {DurationMinutes: 18}}}}},
		{ID: "demo-sql", Category: "computer_science", Level: "intermediate", Language: "en",
			Pricing: recommend.Pricing{Price: 59}, Published: true},
		{ID: "demo-figma", Category: "design", Level: "advanced", Language: "en",
			Pricing: recommend.Pricing{IsFree: true}, Published: true},
		{ID: "demo-stats", Category: "mathematics", Level: "beginner", Language: "en",
			Pricing: recommend.Pricing{Price: 29}, Published: true},
	}
	enrollments := []recommend.Enrollment{
		{ParticipantID: "demo-alice", CourseID: "demo-go", Progress: 100, Completed: true,
			CompletedAt: &finished, StartedAt: now.AddDate(0, -2, 0), HasPassedQuiz: true, QuizScore: 95},
		{ParticipantID: "demo-alice", CourseID: "demo-sql", Progress: 45, StartedAt: now.AddDate(0, -1, 0)},
		{ParticipantID: "demo-bob", CourseID: "demo-figma", Progress: 80, StartedAt: now.AddDate(0, -1, 0)},
		{ParticipantID: "demo-bob", CourseID: "demo-go", Progress: 30, StartedAt: now.AddDate(0, 0, -10)},
		{ParticipantID: "demo-carol", CourseID: "demo-stats", Progress: 65, StartedAt: now.AddDate(0, 0, -20)},
	}

	for i := range users {
		if err := db.InsertUser(ctx, &users[i], true); err != nil {
			return err
		}
	}
	for i := range courses {
		if err := db.InsertCourse(ctx, &courses[i]); err != nil {
			return err
		}
	}
	for i := range enrollments {
		if err := db.InsertEnrollment(ctx, &enrollments[i]); err != nil {
			return err
		}
	}

	db.logger.Info().
		Int("users", len(users)).
		Int("courses", len(courses)).
		Int("enrollments", len(enrollments)).
		Msg("demo catalog seeded")
	return nil
}
