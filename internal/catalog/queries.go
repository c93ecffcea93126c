// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/coursewise/coursewise/internal/metrics"
	"github.com/coursewise/coursewise/internal/recommend"
)

// ListEnrollments returns every enrollment record.
func (db *DB) ListEnrollments(ctx context.Context) ([]recommend.Enrollment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT participant_id, course_id, progress, completed, completed_at,
		       started_at, has_passed_quiz, quiz_score
		FROM enrollments
		ORDER BY participant_id, course_id`)
	metrics.RecordDBQuery("select", "enrollments", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []recommend.Enrollment
	for rows.Next() {
		var (
			e           recommend.Enrollment
			completedAt sql.NullTime
		)
		if err := rows.Scan(&e.ParticipantID, &e.CourseID, &e.Progress, &e.Completed,
			&completedAt, &e.StartedAt, &e.HasPassedQuiz, &e.QuizScore); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			e.CompletedAt = &t
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return enrollments, nil
}

// ListActiveStudents returns all active users with their explicit reviews.
func (db *DB) ListActiveStudents(ctx context.Context) ([]recommend.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, study_field, education_level
		FROM users
		WHERE active
		ORDER BY id`)
	metrics.RecordDBQuery("select", "users", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []recommend.User
	index := make(map[string]int)
	for rows.Next() {
		var u recommend.User
		if err := rows.Scan(&u.ID, &u.StudyField, &u.EducationLevel); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		index[u.ID] = len(users)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	reviewRows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, course_id, rating FROM user_reviews`)
	if err != nil {
		return nil, fmt.Errorf("query user reviews: %w", err)
	}
	defer reviewRows.Close()

	for reviewRows.Next() {
		var (
			userID string
			review recommend.Review
		)
		if err := reviewRows.Scan(&userID, &review.CourseID, &review.Rating); err != nil {
			return nil, fmt.Errorf("scan user review: %w", err)
		}
		if i, ok := index[userID]; ok {
			users[i].Reviews = append(users[i].Reviews, review)
		}
	}
	if err := reviewRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user reviews: %w", err)
	}

	return users, nil
}

// ListPublishedCourses returns all published courses with full metadata.
func (db *DB) ListPublishedCourses(ctx context.Context) ([]recommend.Course, error) {
	return db.listCourses(ctx, `WHERE published`, nil)
}

// GetCourse returns one course by id with full metadata, or (nil, nil) when
// unknown.
func (db *DB) GetCourse(ctx context.Context, id string) (*recommend.Course, error) {
	courses, err := db.listCourses(ctx, `WHERE id = ?`, []any{id})
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, nil
	}
	return &courses[0], nil
}

// GetUser returns one user by id with their reviews, or (nil, nil) when
// unknown.
func (db *DB) GetUser(ctx context.Context, id string) (*recommend.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, study_field, education_level FROM users WHERE id = ?`, id)

	var u recommend.User
	err := row.Scan(&u.ID, &u.StudyField, &u.EducationLevel)
	metrics.RecordDBQuery("select", "users", time.Since(start), nil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", id, err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT course_id, rating FROM user_reviews WHERE user_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query user reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var review recommend.Review
		if err := rows.Scan(&review.CourseID, &review.Rating); err != nil {
			return nil, fmt.Errorf("scan user review: %w", err)
		}
		u.Reviews = append(u.Reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user reviews: %w", err)
	}

	return &u, nil
}

// listCourses loads courses matching the where clause and hydrates their
// reviews, sections and lectures in three queries total.
func (db *DB) listCourses(ctx context.Context, where string, args []any) ([]recommend.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, category, level, language, price, is_free, published
		FROM courses `+where+` ORDER BY id`, args...)
	metrics.RecordDBQuery("select", "courses", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var courses []recommend.Course
	index := make(map[string]int)
	for rows.Next() {
		var c recommend.Course
		if err := rows.Scan(&c.ID, &c.Category, &c.Level, &c.Language,
			&c.Pricing.Price, &c.Pricing.IsFree, &c.Published); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		index[c.ID] = len(courses)
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	if len(courses) == 0 {
		return courses, nil
	}

	reviewRows, err := db.conn.QueryContext(ctx, `
		SELECT course_id, rating FROM course_reviews`)
	if err != nil {
		return nil, fmt.Errorf("query course reviews: %w", err)
	}
	defer reviewRows.Close()

	for reviewRows.Next() {
		var (
			courseID string
			rating   float64
		)
		if err := reviewRows.Scan(&courseID, &rating); err != nil {
			return nil, fmt.Errorf("scan course review: %w", err)
		}
		if i, ok := index[courseID]; ok {
			courses[i].Reviews = append(courses[i].Reviews, recommend.CourseReview{Rating: rating})
		}
	}
	if err := reviewRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate course reviews: %w", err)
	}

	sectionRows, err := db.conn.QueryContext(ctx, `
		SELECT s.course_id, s.id, l.duration_minutes
		FROM sections s
		LEFT JOIN lectures l ON l.section_id = s.id
		ORDER BY s.course_id, s.position, s.id`)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer sectionRows.Close()

	sectionIndex := make(map[string]int)
	for sectionRows.Next() {
		var (
			courseID  string
			sectionID string
			duration  sql.NullFloat64
		)
		if err := sectionRows.Scan(&courseID, &sectionID, &duration); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		ci, ok := index[courseID]
		if !ok {
			continue
		}
		si, ok := sectionIndex[sectionID]
		if !ok {
			si = len(courses[ci].Sections)
			sectionIndex[sectionID] = si
			courses[ci].Sections = append(courses[ci].Sections, recommend.Section{})
		}
		if duration.Valid {
			courses[ci].Sections[si].Lectures = append(courses[ci].Sections[si].Lectures,
				recommend.Lecture{DurationMinutes: duration.Float64})
		}
	}
	if err := sectionRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}

	return courses, nil
}
