package services_test

import (
	"context"
	"testing"

	"gamearr/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithGameID(ctx, 42)
	ctx = services.WithReleaseID(ctx, 7)
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.GameIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected game id: %v %v", id, ok)
	}
	if id, ok := services.ReleaseIDFromContext(ctx); !ok || id != 7 {
		t.Fatalf("unexpected release id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankRequestIDPreservesContext(t *testing.T) {
	ctx := services.WithRequestID(context.Background(), "")
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id")
	}
	if _, ok := services.GameIDFromContext(ctx); ok {
		t.Fatal("expected no game id")
	}
}
