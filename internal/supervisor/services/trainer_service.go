// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursewise/coursewise/internal/metrics"
	"github.com/coursewise/coursewise/internal/recommend"
)

// statusTimeout bounds one staleness check against the catalog.
const statusTimeout = 30 * time.Second

// TrainingEngine is the slice of the recommendation engine the trainer
// loop needs.
type TrainingEngine interface {
	Train(ctx context.Context) error
	GetTrainingStatus(ctx context.Context) (recommend.TrainingStatus, error)
	ModelMetadata() *recommend.TrainingMetadata
}

// TrainerConfig holds configuration for the training loop.
type TrainerConfig struct {
	// TrainOnStartup triggers an unconditional training pass when the
	// service starts.
	TrainOnStartup bool

	// CheckInterval is how often to evaluate model staleness.
	CheckInterval time.Duration

	// TrainTimeout bounds a single training run.
	TrainTimeout time.Duration
}

// TrainerService drives the model training lifecycle under suture
// supervision. On every tick it asks the engine for its staleness
// assessment and retrains only when the engine recommends it, so an
// up-to-date model costs three count queries per interval, not a full
// factorization.
type TrainerService struct {
	engine TrainingEngine
	config TrainerConfig
	logger zerolog.Logger
	name   string
}

// NewTrainerService creates a new training loop service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainerService(engine TrainingEngine, cfg TrainerConfig, logger zerolog.Logger) *TrainerService {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Hour
	}
	if cfg.TrainTimeout <= 0 {
		cfg.TrainTimeout = 30 * time.Minute
	}
	return &TrainerService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "trainer").Logger(),
		name:   "trainer-service",
	}
}

// Serve implements the suture.Service interface.
func (s *TrainerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("check_interval", s.config.CheckInterval).
		Msg("trainer service starting")

	if s.config.TrainOnStartup {
		s.train(ctx)
	}

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("trainer service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.checkAndTrain(ctx)
		}
	}
}

// checkAndTrain runs one staleness evaluation and retrains if the engine
// recommends it. Failures are logged, never fatal; the next tick retries.
func (s *TrainerService) checkAndTrain(ctx context.Context) {
	statusCtx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	status, err := s.engine.GetTrainingStatus(statusCtx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("staleness check failed")
		return
	}
	if !status.NeedsRetraining {
		s.logger.Debug().Msg("model up to date, skipping training")
		return
	}

	s.logger.Info().
		Str("action", status.RecommendedAction).
		Str("urgency", status.Urgency).
		Int("new_users", status.NewUsers).
		Int("new_courses", status.NewCourses).
		Int("new_enrollments", status.NewEnrollments).
		Int("days_since_training", status.DaysSinceLastTraining).
		Msg("model stale, retraining")

	s.train(ctx)
}

// train performs one training cycle and records its outcome.
func (s *TrainerService) train(ctx context.Context) {
	trainCtx, cancel := context.WithTimeout(ctx, s.config.TrainTimeout)
	defer cancel()

	start := time.Now()
	err := s.engine.Train(trainCtx)
	if errors.Is(err, recommend.ErrTrainingInProgress) {
		metrics.TrainingRuns.WithLabelValues("skipped").Inc()
		s.logger.Debug().Msg("training already in progress, skipping")
		return
	}

	var version int
	var density float64
	if meta := s.engine.ModelMetadata(); meta != nil {
		version = meta.Version
		density = meta.MatrixDensity
	}
	metrics.RecordTraining(time.Since(start), version, density, err)

	if err != nil {
		s.logger.Warn().Err(err).Msg("training failed (will retry on schedule)")
		return
	}
	s.logger.Info().
		Int("version", version).
		Dur("duration", time.Since(start)).
		Msg("training cycle complete")
}

// String returns the service name for logging.
func (s *TrainerService) String() string {
	return s.name
}
