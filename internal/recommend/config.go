// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config contains all tunables for the recommendation engine.
type Config struct {
	// Rating contains the implicit-rating synthesis weights.
	Rating RatingWeights `json:"rating"`

	// Factorization contains SVD parameters.
	Factorization FactorizationConfig `json:"factorization"`

	// Blend controls the collaborative/content mix of the hybrid predictor.
	Blend BlendConfig `json:"blend"`

	// Bonus contains the profile-match bonuses applied during ranking.
	Bonus BonusConfig `json:"bonus"`

	// Training contains precompute and orchestration parameters.
	Training TrainingConfig `json:"training"`

	// Staleness contains the retraining decision thresholds.
	Staleness StalenessConfig `json:"staleness"`
}

// RatingWeights are the additive weights of the implicit-rating synthesizer.
type RatingWeights struct {
	// Enrollment is the base weight granted for enrolling at all.
	Enrollment float64 `json:"enrollment" validate:"gte=0"`

	// Progress scales the non-linear progress term.
	Progress float64 `json:"progress" validate:"gte=0"`

	// Completion is the flat bonus for finishing the course.
	Completion float64 `json:"completion" validate:"gte=0"`

	// Quiz scales the quiz-score term for passed quizzes.
	Quiz float64 `json:"quiz" validate:"gte=0"`

	// FastFinish is the flat bonus for completing within 30 days of starting.
	FastFinish float64 `json:"fast_finish" validate:"gte=0"`

	// Review scales the explicit-review term.
	Review float64 `json:"review" validate:"gte=0"`
}

// FactorizationConfig contains SVD parameters.
type FactorizationConfig struct {
	// Rank is the target number of latent factors. The effective rank is
	// min(Rank, positive singular values of the rating matrix).
	Rank int `json:"rank" validate:"gt=0"`
}

// BlendConfig controls the hybrid prediction mix. The two weights must sum
// to 1.
type BlendConfig struct {
	Collaborative float64 `json:"collaborative" validate:"gte=0,lte=1"`
	Content       float64 `json:"content" validate:"gte=0,lte=1"`
}

// BonusConfig contains the ranking bonuses applied on top of the predicted
// rating during recommendation generation.
type BonusConfig struct {
	// CategoryMatch is added when a course category matches the user's
	// field of study.
	CategoryMatch float64 `json:"category_match" validate:"gte=0"`

	// LevelMatch is added when the course level is compatible with the
	// user's education level.
	LevelMatch float64 `json:"level_match" validate:"gte=0"`
}

// TrainingConfig contains orchestration parameters.
type TrainingConfig struct {
	// TopN is the length of each user's precomputed recommendation list.
	TopN int `json:"top_n" validate:"gt=0"`

	// PrecomputeWorkers bounds the worker pool for the per-user Top-N pass.
	PrecomputeWorkers int `json:"precompute_workers" validate:"gt=0"`

	// Timeout caps one full training run.
	Timeout time.Duration `json:"timeout"`
}

// StalenessConfig contains the retraining decision thresholds.
type StalenessConfig struct {
	// NewDataThreshold is the count delta (users, courses or enrollments)
	// considered "significant new data".
	NewDataThreshold int `json:"new_data_threshold" validate:"gt=0"`

	// StaleAfterDays marks the model stale after this many days.
	StaleAfterDays int `json:"stale_after_days" validate:"gt=0"`

	// CriticalAfterDays marks the model critically stale.
	CriticalAfterDays int `json:"critical_after_days" validate:"gt=0"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Rating: RatingWeights{
			Enrollment: 1.0,
			Progress:   1.5,
			Completion: 1.2,
			Quiz:       0.6,
			FastFinish: 0.3,
			Review:     1.0,
		},
		Factorization: FactorizationConfig{
			Rank: 50,
		},
		Blend: BlendConfig{
			Collaborative: 0.7,
			Content:       0.3,
		},
		Bonus: BonusConfig{
			CategoryMatch: 0.5,
			LevelMatch:    0.3,
		},
		Training: TrainingConfig{
			TopN:              10,
			PrecomputeWorkers: 4,
			Timeout:           10 * time.Minute,
		},
		Staleness: StalenessConfig{
			NewDataThreshold:  10,
			StaleAfterDays:    7,
			CriticalAfterDays: 30,
		},
	}
}

var validate = validator.New()

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if sum := c.Blend.Collaborative + c.Blend.Content; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("invalid config: blend weights sum to %.3f, want 1.0", sum)
	}

	if c.Training.Timeout <= 0 {
		return fmt.Errorf("invalid config: training timeout %s must be positive", c.Training.Timeout)
	}

	if c.Staleness.CriticalAfterDays < c.Staleness.StaleAfterDays {
		return fmt.Errorf("invalid config: critical_after_days %d < stale_after_days %d",
			c.Staleness.CriticalAfterDays, c.Staleness.StaleAfterDays)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
