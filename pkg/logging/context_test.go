package logging

import (
	"context"
	"testing"
)

func TestTraceIDContext(t *testing.T) {
	ctx := context.Background()
	if got := TraceIDFromContext(ctx); got != "" {
		t.Errorf("expected empty trace ID, got %q", got)
	}

	ctx = ContextWithTraceID(ctx, "trace-001")
	if got := TraceIDFromContext(ctx); got != "trace-001" {
		t.Errorf("got %q, want trace-001", got)
	}
}
