// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/coursewise/coursewise/internal/config"
	"github.com/coursewise/coursewise/internal/recommend"
)

type stubProvider struct {
	users       []recommend.User
	courses     []recommend.Course
	enrollments []recommend.Enrollment
}

func (s *stubProvider) ListEnrollments(context.Context) ([]recommend.Enrollment, error) {
	return s.enrollments, nil
}

func (s *stubProvider) ListActiveStudents(context.Context) ([]recommend.User, error) {
	return s.users, nil
}

func (s *stubProvider) ListPublishedCourses(context.Context) ([]recommend.Course, error) {
	return s.courses, nil
}

func (s *stubProvider) GetCourse(_ context.Context, id string) (*recommend.Course, error) {
	for i := range s.courses {
		if s.courses[i].ID == id {
			c := s.courses[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (s *stubProvider) GetUser(_ context.Context, id string) (*recommend.User, error) {
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

type stubHealth struct{ err error }

func (s stubHealth) Ping(context.Context) error { return s.err }

func apiConfig() config.APIConfig {
	return config.APIConfig{DefaultLimit: 10, MaxLimit: 50}
}

func newTestServer(t *testing.T, train bool) (http.Handler, *recommend.Engine) {
	t.Helper()

	now := time.Now()
	provider := &stubProvider{
		users: []recommend.User{{ID: "u1"}, {ID: "u2"}},
		courses: []recommend.Course{
			{ID: "c1", Category: "programming", Level: "beginner", Language: "en", Published: true},
			{ID: "c2", Category: "design", Level: "beginner", Language: "en", Published: true},
			{ID: "c3", Category: "business", Level: "advanced", Language: "en", Published: true},
		},
		enrollments: []recommend.Enrollment{
			{ParticipantID: "u1", CourseID: "c1", Progress: 100, Completed: true, StartedAt: now.AddDate(0, -1, 0)},
			{ParticipantID: "u2", CourseID: "c2", Progress: 50, StartedAt: now.AddDate(0, -1, 0)},
		},
	}

	store := recommend.NewStore(filepath.Join(t.TempDir(), "snapshot.json"), zerolog.Nop())
	engine, err := recommend.NewEngine(recommend.DefaultConfig(), provider, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if train && !engine.TrainModel(context.Background()) {
		t.Fatal("TrainModel() = false")
	}

	handler := NewHandler(engine, stubHealth{}, apiConfig(), zerolog.Nop())
	return NewRouter(handler, apiConfig()), engine
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestServer(t, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Status != "success" {
		t.Errorf("status field = %q", resp.Status)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestHealthDegradedWhenDatabaseDown(t *testing.T) {
	_, engine := newTestServer(t, false)

	handler := NewHandler(engine, stubHealth{err: context.DeadlineExceeded}, apiConfig(), zerolog.Nop())
	router := NewRouter(handler, apiConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestGetRecommendations(t *testing.T) {
	router, _ := newTestServer(t, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/user/u1?limit=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data is %T", resp.Data)
	}
	if data["user_id"] != "u1" {
		t.Errorf("user_id = %v", data["user_id"])
	}
	courses, ok := data["courses"].([]any)
	if !ok {
		t.Fatalf("courses is %T", data["courses"])
	}
	if len(courses) > 2 {
		t.Errorf("got %d courses, limit was 2", len(courses))
	}
}

func TestGetRecommendationsUntrained(t *testing.T) {
	router, _ := newTestServer(t, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/user/u1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	if count, _ := data["count"].(float64); count != 0 {
		t.Errorf("count = %v, want 0 before training", data["count"])
	}
}

func TestGetSimilarCourses(t *testing.T) {
	router, _ := newTestServer(t, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/courses/c1/similar", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	courses, _ := data["courses"].([]any)
	for _, c := range courses {
		if course, ok := c.(map[string]any); ok && course["id"] == "c1" {
			t.Error("course listed as similar to itself")
		}
	}
}

func TestGetSimilarCoursesUnknownID(t *testing.T) {
	router, _ := newTestServer(t, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/courses/ghost/similar", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with empty list", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	if count, _ := data["count"].(float64); count != 0 {
		t.Errorf("count = %v, want 0 for unknown course", data["count"])
	}
}

func TestGetPrediction(t *testing.T) {
	router, _ := newTestServer(t, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/predictions/user/u1/course/c2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	rating, ok := data["predicted_rating"].(float64)
	if !ok {
		t.Fatalf("predicted_rating is %T", data["predicted_rating"])
	}
	if rating < recommend.PredictionMin || rating > recommend.PredictionMax {
		t.Errorf("predicted rating %v out of bounds", rating)
	}
}

func TestGetModelStatus(t *testing.T) {
	router, _ := newTestServer(t, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/model/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data recommend.TrainingStatus `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.RecommendedAction != recommend.ActionTrain {
		t.Errorf("action = %q, want %q before training", resp.Data.RecommendedAction, recommend.ActionTrain)
	}
}

func TestTriggerTraining(t *testing.T) {
	router, engine := newTestServer(t, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/model/train", nil))

	if rec.Code != http.StatusOK && rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 200 or 202\nbody: %s", rec.Code, rec.Body.String())
	}

	// Training is tiny here; wait for it to land.
	deadline := time.Now().Add(5 * time.Second)
	for !engine.IsModelTrained() {
		if time.Now().After(deadline) {
			t.Fatal("model not trained after trigger")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCORSHeaders(t *testing.T) {
	_, engine := newTestServer(t, false)

	cfg := apiConfig()
	cfg.CORSAllowedOrigins = []string{"https://app.example.com"}
	router := NewRouter(NewHandler(engine, stubHealth{}, cfg, zerolog.Nop()), cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want configured origin", got)
	}
}

func TestCORSDisabledByDefault(t *testing.T) {
	router, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty when CORS is not configured", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := newTestServer(t, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/model/train", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405 for GET on train", rec.Code)
	}
}
