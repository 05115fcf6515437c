package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	e := newEcho()
	c, rec := jsonContext(e, http.MethodGet, "/health", "")

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthDependencies_Ready(t *testing.T) {
	e := newEcho()
	store := &stubStore{blob: []byte("m"), gen: 2}
	h := NewHealthDependenciesHandler(map[string]DependencyCheck{
		"mongodb": func(context.Context) error { return nil },
	}, store)

	c, rec := jsonContext(e, http.MethodGet, "/health/ready", "")
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "ok" || resp.Dependencies["mongodb"].Status != "ok" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp.Artifact == nil || !resp.Artifact.Present || resp.Artifact.Generation != 2 {
		t.Fatalf("unexpected artifact status: %+v", resp.Artifact)
	}
}

func TestHealthDependencies_Degraded(t *testing.T) {
	e := newEcho()
	h := NewHealthDependenciesHandler(map[string]DependencyCheck{
		"mongodb": func(context.Context) error { return nil },
		"redis":   func(context.Context) error { return errors.New("connection refused") },
	}, &stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	if err := h.Readiness(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["redis"].Error == "" || resp.Artifact.Present {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
