package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/myrddinforetold-commits/sora-enhancer/internal/domain"
	"github.com/myrddinforetold-commits/sora-enhancer/internal/jobstore"
)

// unreachableStore answers every lookup like a database with a dead
// connection.
type unreachableStore struct {
	*jobstore.Memory
}

func (s *unreachableStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	return nil, errors.New("connection refused")
}

func TestHealth_ReportsOK(t *testing.T) {
	app, _, _ := newTestApp(t)
	rr := httptest.NewRecorder()
	app.Health(rr, httptest.NewRequest("GET", "/v1/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
}

func TestHealth_ReportsStoreOutage(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Store = &unreachableStore{Memory: jobstore.NewMemory()}

	rr := httptest.NewRecorder()
	app.Health(rr, httptest.NewRequest("GET", "/v1/healthz", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
}
