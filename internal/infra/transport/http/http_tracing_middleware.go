package http

import (
	"net/http"

	"github.com/google/uuid"

	context_ "github.com/mkrupp/simpletodo/internal/infra/context"
	"github.com/mkrupp/simpletodo/internal/util/encoding"
)

const TraceIDHeader = "X-Request-ID"

// TracingMiddleware reuses the caller's X-Request-ID or mints a UUIDv7 trace
// ID, stores it in the request context and echoes it in the response.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := getTraceID(r)

		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(context_.WithTraceID(r.Context(), traceID)))
	})
}

func getTraceID(r *http.Request) string {
	if traceID := r.Header.Get(TraceIDHeader); traceID != "" {
		return traceID
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return encoding.EncodeCrockfordB32LC(id[:])
}
