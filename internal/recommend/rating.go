// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"math"
	"time"
)

// Rating bounds for synthesized implicit preferences.
const (
	RatingMin = 0.5
	RatingMax = 5.0
)

// neutralScore is the fallback prediction when neither collaborative nor
// content signals are available.
const neutralScore = 2.5

// progressExponent shapes the progress term to favor high completion.
const progressExponent = 0.7

// fastFinishWindow is the completion window that earns the fast-finish bonus.
const fastFinishWindow = 30 * 24 * time.Hour

// SynthesizeRating converts one enrollment record and an optional explicit
// review rating into an implicit preference score in [RatingMin, RatingMax].
//
// The score is a weighted sum of behavioral signals (enrollment, non-linear
// progress, completion, quiz performance, fast completion, explicit review)
// multiplied by a recency factor that blends 80% flat with 20% time-decayed.
// Pure and deterministic given its inputs.
func SynthesizeRating(e Enrollment, review *float64, w RatingWeights, now time.Time) float64 {
	score := w.Enrollment

	progress := clamp(e.Progress, 0, 100) / 100
	score += math.Pow(progress, progressExponent) * w.Progress

	if e.Completed {
		score += w.Completion
		if e.HasPassedQuiz {
			score += clamp(e.QuizScore, 0, 100) / 100 * w.Quiz
		}
		if e.CompletedAt != nil && e.CompletedAt.Sub(e.StartedAt) <= fastFinishWindow {
			score += w.FastFinish
		}
	}

	if review != nil {
		score += clamp(*review, 0, RatingMax) / RatingMax * w.Review
	}

	days := now.Sub(e.StartedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	decay := math.Max(0.1, 1-days/365)
	score *= 0.8 + 0.2*decay

	return clamp(score, RatingMin, RatingMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
