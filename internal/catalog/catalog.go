// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

// Package catalog is the DuckDB-backed data layer: students, courses,
// reviews and enrollments. It implements recommend.DataProvider.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/coursewise/coursewise/internal/config"
)

// queryTimeout caps individual catalog queries.
const queryTimeout = 30 * time.Second

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// Open creates the database connection and initializes the schema. An empty
// path opens an in-memory database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg *config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, threads)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{
		conn:   conn,
		logger: logger.With().Str("component", "catalog").Logger(),
	}

	if err := db.initSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db.logger.Info().Str("path", path).Int("threads", threads).Msg("catalog database ready")
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// initSchema creates all tables if they do not exist.
func (db *DB) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR PRIMARY KEY,
			study_field VARCHAR NOT NULL DEFAULT '',
			education_level VARCHAR NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS courses (
			id VARCHAR PRIMARY KEY,
			category VARCHAR NOT NULL DEFAULT '',
			level VARCHAR NOT NULL DEFAULT '',
			language VARCHAR NOT NULL DEFAULT '',
			price DOUBLE NOT NULL DEFAULT 0,
			is_free BOOLEAN NOT NULL DEFAULT false,
			published BOOLEAN NOT NULL DEFAULT false
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			id VARCHAR PRIMARY KEY,
			course_id VARCHAR NOT NULL,
			position INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS lectures (
			id VARCHAR PRIMARY KEY,
			section_id VARCHAR NOT NULL,
			duration_minutes DOUBLE NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS course_reviews (
			course_id VARCHAR NOT NULL,
			rating DOUBLE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_reviews (
			user_id VARCHAR NOT NULL,
			course_id VARCHAR NOT NULL,
			rating DOUBLE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			participant_id VARCHAR NOT NULL,
			course_id VARCHAR NOT NULL,
			progress DOUBLE NOT NULL DEFAULT 0,
			completed BOOLEAN NOT NULL DEFAULT false,
			completed_at TIMESTAMP,
			started_at TIMESTAMP NOT NULL,
			has_passed_quiz BOOLEAN NOT NULL DEFAULT false,
			quiz_score DOUBLE NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
