// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeProvider is an in-memory DataProvider for engine tests.
type fakeProvider struct {
	users       []User
	courses     []Course
	enrollments []Enrollment

	listErr error
}

func (f *fakeProvider) ListEnrollments(context.Context) ([]Enrollment, error) {
	return f.enrollments, f.listErr
}

func (f *fakeProvider) ListActiveStudents(context.Context) ([]User, error) {
	return f.users, f.listErr
}

func (f *fakeProvider) ListPublishedCourses(context.Context) ([]Course, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	published := make([]Course, 0, len(f.courses))
	for _, c := range f.courses {
		if c.Published {
			published = append(published, c)
		}
	}
	return published, nil
}

func (f *fakeProvider) GetCourse(_ context.Context, id string) (*Course, error) {
	for i := range f.courses {
		if f.courses[i].ID == id {
			c := f.courses[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeProvider) GetUser(_ context.Context, id string) (*User, error) {
	for i := range f.users {
		if f.users[i].ID == id {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func testProvider() *fakeProvider {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	done := now.AddDate(0, -1, 0)

	return &fakeProvider{
		users: []User{
			{ID: "u1", StudyField: "programming", EducationLevel: "bachelor"},
			{ID: "u2"},
			{ID: "u3", Reviews: []Review{{CourseID: "c2", Rating: 5}}},
		},
		courses: []Course{
			{ID: "c1", Category: "programming", Level: "beginner", Language: "en", Published: true},
			{ID: "c2", Category: "programming", Level: "intermediate", Language: "en", Published: true,
				Pricing: Pricing{Price: 30}},
			{ID: "c3", Category: "design", Level: "beginner", Language: "de", Published: true,
				Pricing: Pricing{IsFree: true}},
			{ID: "c4", Category: "business", Level: "advanced", Language: "en", Published: true},
		},
		enrollments: []Enrollment{
			{ParticipantID: "u1", CourseID: "c1", Progress: 100, Completed: true, CompletedAt: &done,
				StartedAt: now.AddDate(0, -2, 0), HasPassedQuiz: true, QuizScore: 92},
			{ParticipantID: "u1", CourseID: "c2", Progress: 40, StartedAt: now.AddDate(0, -1, 0)},
			{ParticipantID: "u2", CourseID: "c1", Progress: 70, StartedAt: now.AddDate(0, -1, 0)},
			{ParticipantID: "u2", CourseID: "c3", Progress: 90, Completed: true, StartedAt: now.AddDate(0, -3, 0)},
			{ParticipantID: "u3", CourseID: "c2", Progress: 100, Completed: true, StartedAt: now.AddDate(0, -1, 0)},
		},
	}
}

func newTestEngine(t *testing.T, provider DataProvider) *Engine {
	t.Helper()

	store := NewStore(filepath.Join(t.TempDir(), "snapshot.json"), zerolog.Nop())
	eng, err := NewEngine(DefaultConfig(), provider, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return eng
}

func TestEngineTrainAndServe(t *testing.T) {
	ctx := context.Background()
	provider := testProvider()
	eng := newTestEngine(t, provider)

	if eng.IsModelTrained() {
		t.Fatal("engine trained before Train()")
	}
	if got := eng.PredictRating(ctx, "u1", "c1"); got != neutralScore {
		t.Errorf("untrained prediction = %.3f, want %.1f", got, neutralScore)
	}

	if !eng.TrainModel(ctx) {
		t.Fatal("TrainModel() = false")
	}
	if !eng.IsModelTrained() {
		t.Fatal("engine not trained after successful Train()")
	}

	snap := eng.snapshot.Load()
	if snap.Metadata.Version != 1 {
		t.Errorf("first training version = %d, want 1", snap.Metadata.Version)
	}
	if snap.Metadata.EnrollmentCount != len(provider.enrollments) {
		t.Errorf("enrollment count = %d, want %d", snap.Metadata.EnrollmentCount, len(provider.enrollments))
	}

	// Predictions stay in bounds for every combination, known or not.
	for _, uid := range []string{"u1", "u2", "u3", "ghost"} {
		for _, cid := range []string{"c1", "c2", "c3", "c4", "ghost"} {
			if got := eng.PredictRating(ctx, uid, cid); got < PredictionMin || got > PredictionMax {
				t.Errorf("PredictRating(%s, %s) = %.3f out of bounds", uid, cid, got)
			}
		}
	}
}

func TestEngineRecommendationsExcludeEnrolled(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, testProvider())

	if !eng.TrainModel(ctx) {
		t.Fatal("TrainModel() = false")
	}

	recs, err := eng.GetRecommendationsForUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetRecommendationsForUser() error = %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("no recommendations for u1")
	}

	enrolled := map[string]bool{"c1": true, "c2": true}
	for _, r := range recs {
		if enrolled[r.ID] {
			t.Errorf("recommended already-enrolled course %s", r.ID)
		}
	}

	// Deterministic across calls.
	again, err := eng.GetRecommendationsForUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetRecommendationsForUser() error = %v", err)
	}
	if len(again) != len(recs) {
		t.Fatalf("result length changed: %d vs %d", len(again), len(recs))
	}
	for i := range recs {
		if again[i].ID != recs[i].ID {
			t.Errorf("position %d changed: %s vs %s", i, again[i].ID, recs[i].ID)
		}
	}
}

func TestEngineRecommendationsUnknownUser(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, testProvider())

	if !eng.TrainModel(ctx) {
		t.Fatal("TrainModel() = false")
	}

	// Unknown users fall through to the on-demand path over the full catalog.
	recs, err := eng.GetRecommendationsForUser(ctx, "stranger", 3)
	if err != nil {
		t.Fatalf("GetRecommendationsForUser() error = %v", err)
	}
	if len(recs) == 0 {
		t.Error("no recommendations for unknown user")
	}
	if len(recs) > 3 {
		t.Errorf("got %d recommendations, limit was 3", len(recs))
	}
}

func TestEngineRecommendationsBeforeTraining(t *testing.T) {
	eng := newTestEngine(t, testProvider())

	recs, err := eng.GetRecommendationsForUser(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("GetRecommendationsForUser() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("untrained engine returned %d recommendations, want 0", len(recs))
	}
}

func TestEngineSimilarCourses(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, testProvider())

	if !eng.TrainModel(ctx) {
		t.Fatal("TrainModel() = false")
	}

	similar, err := eng.GetSimilarCourses(ctx, "c1", 2)
	if err != nil {
		t.Fatalf("GetSimilarCourses() error = %v", err)
	}
	if len(similar) == 0 || len(similar) > 2 {
		t.Fatalf("got %d similar courses, want 1-2", len(similar))
	}
	for _, s := range similar {
		if s.ID == "c1" {
			t.Error("course listed as similar to itself")
		}
	}

	unknown, err := eng.GetSimilarCourses(ctx, "ghost", 5)
	if err != nil {
		t.Fatalf("GetSimilarCourses(ghost) error = %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown course returned %d results, want 0", len(unknown))
	}
}

func TestEngineTrainNoEnrollments(t *testing.T) {
	provider := testProvider()
	provider.enrollments = nil
	eng := newTestEngine(t, provider)

	err := eng.Train(context.Background())
	if !errors.Is(err, ErrNoEnrollments) {
		t.Fatalf("Train() error = %v, want ErrNoEnrollments", err)
	}
	if eng.IsModelTrained() {
		t.Error("engine reports trained after aborted run")
	}
	if eng.TrainModel(context.Background()) {
		t.Error("TrainModel() = true with no enrollments")
	}
}

func TestEngineTrainSingleFlight(t *testing.T) {
	eng := newTestEngine(t, testProvider())

	eng.trainMu.Lock()
	defer eng.trainMu.Unlock()

	if err := eng.Train(context.Background()); !errors.Is(err, ErrTrainingInProgress) {
		t.Errorf("Train() error = %v, want ErrTrainingInProgress", err)
	}
}

func TestEngineTrainProviderFailure(t *testing.T) {
	provider := testProvider()
	provider.listErr = errors.New("catalog down")
	eng := newTestEngine(t, provider)

	if err := eng.Train(context.Background()); err == nil {
		t.Fatal("Train() succeeded with failing provider")
	}
	if eng.IsModelTrained() {
		t.Error("failed training published a snapshot")
	}
}

func TestEngineSnapshotPersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	provider := testProvider()

	path := filepath.Join(t.TempDir(), "snapshot.json")
	store := NewStore(path, zerolog.Nop())

	eng, err := NewEngine(DefaultConfig(), provider, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if !eng.TrainModel(ctx) {
		t.Fatal("TrainModel() = false")
	}

	// Fresh engine over the same artifact: serving resumes without training.
	restarted, err := NewEngine(DefaultConfig(), provider, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if err := restarted.LoadSnapshot(); err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if !restarted.IsModelTrained() {
		t.Fatal("restarted engine not trained after LoadSnapshot()")
	}

	recs, err := restarted.GetRecommendationsForUser(ctx, "u1", 5)
	if err != nil {
		t.Fatalf("GetRecommendationsForUser() error = %v", err)
	}
	if len(recs) == 0 {
		t.Error("restarted engine returned no recommendations")
	}
}

func TestEngineTrainingVersionIncrements(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, testProvider())

	for want := 1; want <= 3; want++ {
		if !eng.TrainModel(ctx) {
			t.Fatalf("training run %d failed", want)
		}
		if got := eng.snapshot.Load().Metadata.Version; got != want {
			t.Fatalf("version after run %d = %d", want, got)
		}
	}
}

func TestEngineTrainingStatus(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, testProvider())

	st, err := eng.GetTrainingStatus(ctx)
	if err != nil {
		t.Fatalf("GetTrainingStatus() error = %v", err)
	}
	if st.RecommendedAction != ActionTrain || st.Urgency != UrgencyCritical {
		t.Errorf("untrained status = %s/%s, want %s/%s", st.RecommendedAction, st.Urgency, ActionTrain, UrgencyCritical)
	}

	if !eng.TrainModel(ctx) {
		t.Fatal("TrainModel() = false")
	}

	st, err = eng.GetTrainingStatus(ctx)
	if err != nil {
		t.Fatalf("GetTrainingStatus() error = %v", err)
	}
	if st.RecommendedAction != ActionUpToDate {
		t.Errorf("freshly trained status = %s, want %s", st.RecommendedAction, ActionUpToDate)
	}
	if st.NeedsRetraining {
		t.Error("freshly trained model flagged for retraining")
	}
}

func TestEngineUnpublishedCoursesFiltered(t *testing.T) {
	ctx := context.Background()
	provider := testProvider()
	eng := newTestEngine(t, provider)

	if !eng.TrainModel(ctx) {
		t.Fatal("TrainModel() = false")
	}

	// Unpublish c4 after training: cached entries must be filtered at
	// serving time.
	for i := range provider.courses {
		if provider.courses[i].ID == "c4" {
			provider.courses[i].Published = false
		}
	}

	recs, err := eng.GetRecommendationsForUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetRecommendationsForUser() error = %v", err)
	}
	for _, r := range recs {
		if r.ID == "c4" {
			t.Error("unpublished course served from the cache")
		}
	}
}
