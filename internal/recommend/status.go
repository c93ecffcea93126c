// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"time"
)

// computeTrainingStatus derives the staleness assessment for the model from
// its training metadata and the current raw-data counts.
//
// Decision table: no snapshot -> train/critical; critically old ->
// retrain/critical; significant new data and stale -> retrain/high;
// significant new data alone -> retrain/medium; stale alone -> retrain/low;
// otherwise up_to_date/low.
func computeTrainingStatus(meta *TrainingMetadata, users, courses, enrollments int, cfg StalenessConfig, now time.Time) TrainingStatus {
	if meta == nil {
		return TrainingStatus{
			NeedsRetraining:   true,
			RecommendedAction: ActionTrain,
			Urgency:           UrgencyCritical,
		}
	}

	days := int(now.Sub(meta.TrainedAt).Hours() / 24)
	if days < 0 {
		days = 0
	}

	st := TrainingStatus{
		LastTrainedAt:         meta.TrainedAt,
		DaysSinceLastTraining: days,
		NewUsers:              nonNegative(users - meta.UserCount),
		NewCourses:            nonNegative(courses - meta.CourseCount),
		NewEnrollments:        nonNegative(enrollments - meta.EnrollmentCount),
	}

	significant := st.NewUsers >= cfg.NewDataThreshold ||
		st.NewCourses >= cfg.NewDataThreshold ||
		st.NewEnrollments >= cfg.NewDataThreshold
	stale := days >= cfg.StaleAfterDays
	critical := days >= cfg.CriticalAfterDays

	switch {
	case critical:
		st.RecommendedAction = ActionRetrain
		st.Urgency = UrgencyCritical
	case significant && stale:
		st.RecommendedAction = ActionRetrain
		st.Urgency = UrgencyHigh
	case significant:
		st.RecommendedAction = ActionRetrain
		st.Urgency = UrgencyMedium
	case stale:
		st.RecommendedAction = ActionRetrain
		st.Urgency = UrgencyLow
	default:
		st.RecommendedAction = ActionUpToDate
		st.Urgency = UrgencyLow
	}

	st.NeedsRetraining = st.RecommendedAction != ActionUpToDate
	return st
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
