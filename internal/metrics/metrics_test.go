// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTraining(t *testing.T) {
	before := testutil.ToFloat64(TrainingRuns.WithLabelValues("success"))

	RecordTraining(2*time.Second, 7, 0.42, nil)

	if got := testutil.ToFloat64(TrainingRuns.WithLabelValues("success")); got != before+1 {
		t.Errorf("success counter = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(ModelVersion); got != 7 {
		t.Errorf("model version gauge = %v, want 7", got)
	}
	if got := testutil.ToFloat64(MatrixDensity); got != 0.42 {
		t.Errorf("density gauge = %v, want 0.42", got)
	}
}

func TestRecordTrainingFailure(t *testing.T) {
	beforeFail := testutil.ToFloat64(TrainingRuns.WithLabelValues("failure"))
	ModelVersion.Set(3)

	RecordTraining(time.Second, 9, 0.9, errors.New("no data"))

	if got := testutil.ToFloat64(TrainingRuns.WithLabelValues("failure")); got != beforeFail+1 {
		t.Errorf("failure counter = %v, want %v", got, beforeFail+1)
	}
	// A failed run must not advance the published version gauge.
	if got := testutil.ToFloat64(ModelVersion); got != 3 {
		t.Errorf("model version gauge = %v, want unchanged 3", got)
	}
}

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "enrollments"))

	RecordDBQuery("select", "enrollments", 5*time.Millisecond, nil)
	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "enrollments")); got != before {
		t.Errorf("error counter advanced on success: %v", got)
	}

	RecordDBQuery("select", "enrollments", 5*time.Millisecond, errors.New("closed"))
	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "enrollments")); got != before+1 {
		t.Errorf("error counter = %v, want %v", got, before+1)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/recommendations", "200"))

	RecordAPIRequest("GET", "/api/v1/recommendations", "200", 12*time.Millisecond)

	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/recommendations", "200")); got != before+1 {
		t.Errorf("request counter = %v, want %v", got, before+1)
	}
}
