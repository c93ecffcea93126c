// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"sort"
)

// numericFeatureCount is the number of non-one-hot dimensions in a course
// feature vector: price, is-free, average rating, review count, section
// count, lecture count.
const numericFeatureCount = 6

// FeatureSpace fixes the content feature layout for one training run: the
// distinct categories, levels and languages observed in the catalog plus the
// scale maxima used to normalize numeric fields. It is part of the snapshot
// so that vectors for fresh courses can be built on the fly at serving time.
type FeatureSpace struct {
	Categories []string `json:"categories"`
	Levels     []string `json:"levels"`
	Languages  []string `json:"languages"`

	MaxPrice        float64 `json:"max_price"`
	MaxReviewCount  float64 `json:"max_review_count"`
	MaxSectionCount float64 `json:"max_section_count"`
	MaxLectureCount float64 `json:"max_lecture_count"`
}

// buildFeatureSpace derives the feature layout from the course catalog.
func buildFeatureSpace(courses []Course) FeatureSpace {
	categories := make(map[string]struct{})
	levels := make(map[string]struct{})
	languages := make(map[string]struct{})

	fs := FeatureSpace{
		MaxPrice:        1,
		MaxReviewCount:  1,
		MaxSectionCount: 1,
		MaxLectureCount: 1,
	}

	for i := range courses {
		c := &courses[i]
		if c.Category != "" {
			categories[c.Category] = struct{}{}
		}
		if c.Level != "" {
			levels[c.Level] = struct{}{}
		}
		if c.Language != "" {
			languages[c.Language] = struct{}{}
		}
		if c.Pricing.Price > fs.MaxPrice {
			fs.MaxPrice = c.Pricing.Price
		}
		if n := float64(len(c.Reviews)); n > fs.MaxReviewCount {
			fs.MaxReviewCount = n
		}
		if n := float64(len(c.Sections)); n > fs.MaxSectionCount {
			fs.MaxSectionCount = n
		}
		if n := float64(c.LectureCount()); n > fs.MaxLectureCount {
			fs.MaxLectureCount = n
		}
	}

	fs.Categories = sortedKeys(categories)
	fs.Levels = sortedKeys(levels)
	fs.Languages = sortedKeys(languages)
	return fs
}

// Dim returns the dimensionality of vectors in this feature space.
func (f *FeatureSpace) Dim() int {
	return len(f.Categories) + len(f.Levels) + len(f.Languages) + numericFeatureCount
}

// Vectorize builds the content feature vector for a course: one-hot blocks
// over category, level and language followed by normalized numeric fields.
// Values unseen at training time leave their one-hot block all zero.
func (f *FeatureSpace) Vectorize(c *Course) []float64 {
	vec := make([]float64, f.Dim())

	offset := 0
	setOneHot(vec, offset, f.Categories, c.Category)
	offset += len(f.Categories)
	setOneHot(vec, offset, f.Levels, c.Level)
	offset += len(f.Levels)
	setOneHot(vec, offset, f.Languages, c.Language)
	offset += len(f.Languages)

	vec[offset] = c.Pricing.Price / f.MaxPrice
	if c.Pricing.IsFree {
		vec[offset+1] = 1
	}
	vec[offset+2] = c.AverageRating() / RatingMax
	vec[offset+3] = float64(len(c.Reviews)) / f.MaxReviewCount
	vec[offset+4] = float64(len(c.Sections)) / f.MaxSectionCount
	vec[offset+5] = float64(c.LectureCount()) / f.MaxLectureCount

	return vec
}

func setOneHot(vec []float64, offset int, vocab []string, value string) {
	for i, v := range vocab {
		if v == value {
			vec[offset+i] = 1
			return
		}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildCourseVectors vectorizes every course in the catalog.
func buildCourseVectors(fs *FeatureSpace, courses []Course) map[string][]float64 {
	vectors := make(map[string][]float64, len(courses))
	for i := range courses {
		vectors[courses[i].ID] = fs.Vectorize(&courses[i])
	}
	return vectors
}

// buildUserProfiles computes each user's content profile as the
// rating-weighted average of their enrolled courses' feature vectors, with
// the implicit rating from the matrix as the weight. Users with zero total
// weight get no profile entry.
func buildUserProfiles(rm *ratingMatrix, courseVectors map[string][]float64, dim int) map[string][]float64 {
	profiles := make(map[string][]float64)

	for ui, userID := range rm.userIDs {
		profile := make([]float64, dim)
		var total float64

		for ci, courseID := range rm.courseIDs {
			weight := rm.matrix.At(ui, ci)
			if weight == 0 {
				continue
			}
			vec, ok := courseVectors[courseID]
			if !ok {
				continue
			}
			for d := range vec {
				profile[d] += vec[d] * weight
			}
			total += weight
		}

		if total == 0 {
			continue
		}
		for d := range profile {
			profile[d] /= total
		}
		profiles[userID] = profile
	}

	return profiles
}
