// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

/*
Package supervisor provides process supervision for Coursewise using suture v4.

It implements a small hierarchical supervisor tree that manages the lifecycle
of the long-running parts of the application, with Erlang/OTP-style automatic
restart, failure isolation, and graceful shutdown.

# Overview

The tree organizes services into two layers:

	RootSupervisor ("coursewise")
	├── EngineSupervisor ("engine-layer")
	│   └── TrainerService (periodic staleness check + retraining)
	└── APISupervisor ("api-layer")
	    └── HTTPService

A crash in the training loop never takes down the HTTP API, which keeps
serving the last published model snapshot, and vice versa.

# Usage

	tree, err := supervisor.NewTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddEngineService(trainerSvc)
	tree.AddAPIService(httpSvc)
	return tree.Serve(ctx)

Supervisor lifecycle events are forwarded to the application's zerolog
logger through a slog bridge, so restarts and backoffs show up in the
structured log stream alongside everything else.
*/
package supervisor
