package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
)

func requestWithJobID(method, target, jobID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("job_id", jobID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestStatus_UnknownJob(t *testing.T) {
	app, _, _ := newTestApp(t)

	rr := httptest.NewRecorder()
	app.Status(rr, requestWithJobID("GET", "/status/nope", "nope"))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestStatus_ReturnsSnapshotFields(t *testing.T) {
	app, store, _ := newTestApp(t)
	ctx := context.Background()
	job := &domain.Job{ID: "j1", Status: domain.JobStatusQueued, Step: "Waiting for a worker", Options: domain.DefaultOptions()}
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}
	processing := domain.JobStatusProcessing
	progress := 50
	step := "Enhancing video (cinematic)"
	if _, err := store.Update(ctx, "j1", domain.JobUpdate{Status: &processing, Progress: &progress, Step: &step}); err != nil {
		t.Fatalf("update: %v", err)
	}

	rr := httptest.NewRecorder()
	app.Status(rr, requestWithJobID("GET", "/status/j1", "j1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["status"] != "processing" {
		t.Fatalf("status: %#v", payload["status"])
	}
	if payload["progress"] != float64(50) {
		t.Fatalf("progress: %#v", payload["progress"])
	}
	if payload["step"] != step {
		t.Fatalf("step: %#v", payload["step"])
	}
	if _, ok := payload["error"]; ok {
		t.Fatal("error field must be omitted while healthy")
	}
}

func TestStatus_SurfacesProcessingFailure(t *testing.T) {
	app, store, _ := newTestApp(t)
	ctx := context.Background()
	job := &domain.Job{ID: "j2", Status: domain.JobStatusQueued, Options: domain.DefaultOptions()}
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}
	failed := domain.JobStatusError
	msg := "stage video_enhance failed: synthetic"
	if _, err := store.Update(ctx, "j2", domain.JobUpdate{Status: &failed, ErrorMessage: &msg}); err != nil {
		t.Fatalf("update: %v", err)
	}

	rr := httptest.NewRecorder()
	app.Status(rr, requestWithJobID("GET", "/status/j2", "j2"))

	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["status"] != "error" {
		t.Fatalf("status: %#v", payload["status"])
	}
	if payload["error"] != msg {
		t.Fatalf("error: %#v", payload["error"])
	}
}
