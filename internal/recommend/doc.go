// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

// Package recommend implements the hybrid course-recommendation engine.
//
// The engine learns latent user/course factors from behavioral signals
// (enrollment progress, completion, quiz performance, recency), blends them
// with content similarity over course metadata, and serves per-user
// recommendations with a staleness-aware retraining lifecycle.
//
// # Training Pipeline
//
// A training run is all-or-nothing:
//
//	enrollments -> implicit ratings -> dense user x course matrix
//	            -> truncated SVD -> latent factors -> similarity matrices
//	catalog     -> content feature vectors -> weighted user profiles
//	both tracks -> hybrid predictor -> per-user Top-N precompute
//	            -> persisted snapshot -> atomic publish
//
// Any abort (no enrollments, degenerate factorization, persistence failure)
// leaves the previously published snapshot untouched, both in memory and on
// disk.
//
// # Concurrency
//
// The trained model is an immutable Snapshot behind an atomic pointer.
// Serving reads never block and always observe a complete (possibly older)
// snapshot. Training is serialized with a single-flight lock; a concurrent
// TrainModel call fails fast with ErrTrainingInProgress.
//
// # Dependencies
//
// This package has no dependencies on other internal packages. The
// DataProvider interface decouples it from the catalog implementation.
package recommend
