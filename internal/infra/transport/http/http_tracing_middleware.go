package http

import (
	"net/http"

	"github.com/google/uuid"

	context_ "github.com/mkrupp/followgraph/internal/infra/context"
)

// TraceIDHeader carries the trace id of a request, both inbound and outbound.
const TraceIDHeader = "X-Request-ID"

// TracingMiddleware stores a trace id in the request context and echoes it
// in the response. An incoming X-Request-ID header is reused, otherwise a
// UUIDv7 is generated.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := getTraceID(r)
		if traceID != "" {
			w.Header().Set(TraceIDHeader, traceID)
		}

		next.ServeHTTP(w, r.WithContext(context_.WithTraceID(r.Context(), traceID)))
	})
}

func getTraceID(r *http.Request) string {
	if traceID := r.Header.Get(TraceIDHeader); traceID != "" {
		return traceID
	}

	id, err := uuid.NewV7()
	if err != nil {
		return ""
	}

	return id.String()
}
