package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	traceHeader   = "X-Trace-ID"
	requestHeader = "X-Request-ID"
)

// TraceMiddleware ensures each request has a trace identifier propagated via
// context and headers. An incoming X-Request-ID is reused when no trace id is sent.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = r.Header.Get(requestHeader)
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set(traceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(contextWithTraceID(r.Context(), traceID)))
	})
}

func contextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceContextKey, traceID)
}
