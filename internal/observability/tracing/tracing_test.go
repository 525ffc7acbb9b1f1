package tracing

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	t.Parallel()

	shutdown, err := Init(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)), "  ", "hotel", "test")
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected no-op shutdown, got %v", err)
	}
}
