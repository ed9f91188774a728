package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/health", "")

	if err := NewHealthHandler(nil).Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks map[string]Check
		want   int
		status string
	}{
		{"all ok", map[string]Check{"store": ok, "redis": ok}, http.StatusOK, "ok"},
		{"redis down", map[string]Check{"store": ok, "redis": down}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/health/ready", "")
			if err := NewHealthHandler(tt.checks).Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			resp := decode(t, rec)
			if resp["status"] != tt.status {
				t.Fatalf("expected status %q, got %v", tt.status, resp["status"])
			}
			deps, _ := resp["dependencies"].(map[string]any)
			if len(deps) != len(tt.checks) {
				t.Fatalf("expected %d dependencies, got %v", len(tt.checks), deps)
			}
		})
	}
}
