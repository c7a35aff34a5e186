package logging

import (
	"context"
	"log/slog"

	context_ "github.com/mkrupp/followgraph/internal/infra/context"
)

// TracingHandler wraps another slog.Handler and adds the trace id found in
// the record's context as "trace.id".
type TracingHandler struct {
	next Handler
}

var _ Handler = (*TracingHandler)(nil)

// NewTracingHandler creates a new TracingHandler wrapping next.
func NewTracingHandler(next Handler) *TracingHandler {
	return &TracingHandler{next: next}
}

// Handle implements slog.Handler.
func (h *TracingHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		r.AddAttrs(slog.Group("trace", slog.String("id", traceID)))
	}

	//nolint:wrapcheck
	return h.next.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewTracingHandler(h.next.WithAttrs(attrs))
}

// WithGroup implements slog.Handler.WithGroup.
func (h *TracingHandler) WithGroup(name string) Handler {
	return NewTracingHandler(h.next.WithGroup(name))
}

// Enabled implements slog.Handler.Enabled.
func (h *TracingHandler) Enabled(ctx context.Context, level Level) bool {
	return h.next.Enabled(ctx, level)
}
