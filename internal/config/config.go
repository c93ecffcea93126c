// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

// Package config loads the layered application configuration: built-in
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/coursewise/coursewise/internal/recommend"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Engine   EngineConfig   `koanf:"engine"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file; empty means in-memory.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads limits DuckDB worker threads; 0 uses all cores.
	Threads int `koanf:"threads"`

	// SeedDemoData loads a small demo catalog on startup.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// EngineConfig holds the recommendation engine settings surfaced in the
// application configuration. Remaining engine tunables keep their defaults.
type EngineConfig struct {
	// ModelPath is the snapshot artifact location.
	ModelPath string `koanf:"model_path"`

	// TrainOnStartup triggers a training run when the service starts.
	TrainOnStartup bool `koanf:"train_on_startup"`

	// CheckInterval is how often the background service re-evaluates
	// training staleness.
	CheckInterval time.Duration `koanf:"check_interval"`

	// Rank is the target number of latent factors.
	Rank int `koanf:"rank"`

	// TopN is the precomputed recommendation list length.
	TopN int `koanf:"top_n"`

	// PrecomputeWorkers bounds the training-time worker pool.
	PrecomputeWorkers int `koanf:"precompute_workers"`

	// TrainTimeout caps one training run.
	TrainTimeout time.Duration `koanf:"train_timeout"`

	// BlendCollaborative and BlendContent set the hybrid predictor mix.
	BlendCollaborative float64 `koanf:"blend_collaborative"`
	BlendContent       float64 `koanf:"blend_content"`

	// Staleness thresholds.
	NewDataThreshold  int `koanf:"new_data_threshold"`
	StaleAfterDays    int `koanf:"stale_after_days"`
	CriticalAfterDays int `koanf:"critical_after_days"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	// DefaultLimit is the result count when a request omits ?limit.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the ?limit query parameter.
	MaxLimit int `koanf:"max_limit"`

	// RateLimitRequests allows this many requests per RateLimitWindow
	// per client IP. Zero disables rate limiting.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	// CORSAllowedOrigins enables CORS for the listed origins. Empty
	// disables CORS entirely.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before file and
// environment layers.
func defaultConfig() *Config {
	engine := recommend.DefaultConfig()

	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8380,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/coursewise.duckdb",
			MaxMemory: "2GB",
		},
		Engine: EngineConfig{
			ModelPath:          "/data/model/snapshot.json",
			TrainOnStartup:     false,
			CheckInterval:      time.Hour,
			Rank:               engine.Factorization.Rank,
			TopN:               engine.Training.TopN,
			PrecomputeWorkers:  engine.Training.PrecomputeWorkers,
			TrainTimeout:       engine.Training.Timeout,
			BlendCollaborative: engine.Blend.Collaborative,
			BlendContent:       engine.Blend.Content,
			NewDataThreshold:   engine.Staleness.NewDataThreshold,
			StaleAfterDays:     engine.Staleness.StaleAfterDays,
			CriticalAfterDays:  engine.Staleness.CriticalAfterDays,
		},
		API: APIConfig{
			DefaultLimit:      10,
			MaxLimit:          50,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// EngineConfig converts the application-level engine settings into the full
// engine configuration, keeping defaults for everything not surfaced here.
func (c *Config) EngineConfig() *recommend.Config {
	cfg := recommend.DefaultConfig()
	cfg.Factorization.Rank = c.Engine.Rank
	cfg.Training.TopN = c.Engine.TopN
	cfg.Training.PrecomputeWorkers = c.Engine.PrecomputeWorkers
	cfg.Training.Timeout = c.Engine.TrainTimeout
	cfg.Blend.Collaborative = c.Engine.BlendCollaborative
	cfg.Blend.Content = c.Engine.BlendContent
	cfg.Staleness.NewDataThreshold = c.Engine.NewDataThreshold
	cfg.Staleness.StaleAfterDays = c.Engine.StaleAfterDays
	cfg.Staleness.CriticalAfterDays = c.Engine.CriticalAfterDays
	return cfg
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Engine.ModelPath == "" {
		return fmt.Errorf("engine model_path must be set")
	}
	if c.Engine.CheckInterval <= 0 {
		return fmt.Errorf("engine check_interval must be positive, got %s", c.Engine.CheckInterval)
	}
	if c.API.DefaultLimit < 1 || c.API.MaxLimit < c.API.DefaultLimit {
		return fmt.Errorf("invalid api limits: default %d, max %d", c.API.DefaultLimit, c.API.MaxLimit)
	}

	// The engine validates the rest of its own settings.
	if err := c.EngineConfig().Validate(); err != nil {
		return err
	}

	return nil
}
