// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

// Package main is the entry point for the Coursewise server.
//
// Coursewise is a self-hosted course recommendation engine. It synthesizes
// implicit ratings from enrollment behavior, factorizes the resulting rating
// matrix with truncated SVD, blends the collaborative scores with content
// profiles, and serves recommendations over a REST API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, and environment (koanf v2)
//  2. Catalog: DuckDB-backed course, user, and enrollment storage
//  3. Engine: the recommendation model, restored from the last snapshot
//  4. Supervisor tree: the training loop and HTTP server under suture
//
// # Configuration
//
// Configuration is loaded via koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (COURSEWISE_ prefix, e.g. COURSEWISE_SERVER_PORT)
//   - Config file (config.yaml, or the path in COURSEWISE_CONFIG)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Stops the training loop and closes the catalog
//
// # Example Usage
//
// In-memory demo mode:
//
//	export COURSEWISE_DATABASE_PATH=""
//	export COURSEWISE_DATABASE_SEED_DEMO_DATA=true
//	export COURSEWISE_ENGINE_TRAIN_ON_STARTUP=true
//	./coursewise
//
// Production:
//
//	export COURSEWISE_DATABASE_PATH=/data/coursewise.duckdb
//	export COURSEWISE_ENGINE_MODEL_PATH=/data/model/snapshot.json
//	./coursewise
package main

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/coursewise/coursewise/internal/api"
	"github.com/coursewise/coursewise/internal/catalog"
	"github.com/coursewise/coursewise/internal/config"
	"github.com/coursewise/coursewise/internal/logging"
	"github.com/coursewise/coursewise/internal/recommend"
	"github.com/coursewise/coursewise/internal/supervisor"
	"github.com/coursewise/coursewise/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logger := logging.Logger()
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	log := logging.Logger()

	log.Info().
		Str("db_path", cfg.Database.Path).
		Str("model_path", cfg.Engine.ModelPath).
		Int("port", cfg.Server.Port).
		Msg("starting coursewise")

	db, err := catalog.Open(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open catalog database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("error closing catalog database")
		}
	}()

	if cfg.Database.SeedDemoData {
		log.Info().Msg("demo data seeding enabled")
		if err := db.SeedDemo(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
	}

	store := recommend.NewStore(cfg.Engine.ModelPath, log)
	engine, err := recommend.NewEngine(cfg.EngineConfig(), db, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create recommendation engine")
	}

	// Restore the last snapshot so the API serves immediately after a
	// restart. A missing artifact just means we start cold.
	if err := engine.LoadSnapshot(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info().Msg("no model snapshot found, starting untrained")
		} else {
			log.Warn().Err(err).Msg("failed to restore model snapshot, starting untrained")
		}
	}

	handler := api.NewHandler(engine, db, cfg.API, log)
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           api.NewRouter(handler, cfg.API),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	// Bridge zerolog to slog for sutureslog compatibility.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddEngineService(services.NewTrainerService(engine, services.TrainerConfig{
		TrainOnStartup: cfg.Engine.TrainOnStartup,
		CheckInterval:  cfg.Engine.CheckInterval,
		TrainTimeout:   cfg.Engine.TrainTimeout,
	}, log))
	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	log.Info().Str("addr", server.Addr).Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		log.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("supervisor tree error")
		}
	}

	// Drain the error channel; it closes when the supervisor has stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		log.Warn().Str("service", svc.Name).Msg("service failed to stop within timeout")
	}

	log.Info().Msg("application stopped gracefully")
}
