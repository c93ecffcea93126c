// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

// Snapshot is the complete, self-consistent trained model state. It is built
// entirely off to the side by a training run and published atomically; after
// publication it is immutable and safe to read concurrently.
//
// Invariants: UserIndex/UserIDs and CourseIndex/CourseIDs are bijective and
// consistent across every matrix; the similarity matrices are symmetric.
type Snapshot struct {
	// UserIndex maps user id to rating-matrix row.
	UserIndex map[string]int `json:"user_index"`

	// CourseIndex maps course id to rating-matrix column.
	CourseIndex map[string]int `json:"course_index"`

	// UserIDs maps row index back to user id, in index order.
	UserIDs []string `json:"user_ids"`

	// CourseIDs maps column index back to course id, in index order.
	CourseIDs []string `json:"course_ids"`

	// Ratings is the dense user x course implicit rating matrix.
	Ratings [][]float64 `json:"ratings"`

	// UserFeatures is the nUsers x rank latent factor matrix.
	UserFeatures [][]float64 `json:"user_features"`

	// CourseFeatures is the nCourses x rank latent factor matrix.
	CourseFeatures [][]float64 `json:"course_features"`

	// UserSimilarity is the symmetric user-user cosine matrix.
	UserSimilarity [][]float64 `json:"user_similarity"`

	// CourseSimilarity is the symmetric course-course cosine matrix.
	CourseSimilarity [][]float64 `json:"course_similarity"`

	// Features is the content feature layout fixed at training time.
	Features FeatureSpace `json:"features"`

	// CourseVectors holds the content feature vector of every course known
	// at training time.
	CourseVectors map[string][]float64 `json:"course_vectors"`

	// UserProfiles holds the weighted content profile of every user with at
	// least one rated enrollment.
	UserProfiles map[string][]float64 `json:"user_profiles"`

	// Enrolled maps user id to the sorted ids of courses they are enrolled
	// in, used to exclude them from recommendations.
	Enrolled map[string][]string `json:"enrolled"`

	// Recommendations is the per-user precomputed Top-N cache.
	Recommendations map[string][]ScoredCourse `json:"recommendations"`

	// Metadata describes the training run that produced this snapshot.
	Metadata TrainingMetadata `json:"metadata"`
}

// Complete reports whether the snapshot carries everything serving needs:
// non-empty index maps and all matrices present.
func (s *Snapshot) Complete() bool {
	if s == nil {
		return false
	}
	if len(s.UserIndex) == 0 || len(s.CourseIndex) == 0 {
		return false
	}
	if len(s.UserIndex) != len(s.UserIDs) || len(s.CourseIndex) != len(s.CourseIDs) {
		return false
	}
	return len(s.Ratings) > 0 &&
		len(s.UserFeatures) > 0 &&
		len(s.CourseFeatures) > 0 &&
		len(s.UserSimilarity) > 0 &&
		len(s.CourseSimilarity) > 0
}

// IsEnrolled reports whether the user was enrolled in the course at training
// time.
func (s *Snapshot) IsEnrolled(userID, courseID string) bool {
	for _, id := range s.Enrolled[userID] {
		if id == courseID {
			return true
		}
	}
	return false
}
