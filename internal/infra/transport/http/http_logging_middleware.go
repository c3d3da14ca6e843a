package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mkrupp/simpletodo/internal/infra/logging"
)

// LoggingMiddleware logs one entry per request once the response is written.
// 5xx responses log at ERROR and 4xx at WARN. Everything else logs at INFO.
// The entry carries the matched chi route pattern so item ids do not
// fragment log aggregation.
func LoggingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	//nolint:varnamelen
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		log.Log(r.Context(), levelForStatus(status), "request served", slog.Group("http",
			"method", r.Method,
			"route", routePattern(r),
			"uri", r.RequestURI,
			"remote", r.RemoteAddr,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		))
	})
}

func levelForStatus(status int) logging.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return logging.LevelError
	case status >= http.StatusBadRequest:
		return logging.LevelWarn
	default:
		return logging.LevelInfo
	}
}

// routePattern is only complete after routing, i.e. after next returned.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return "unmatched"
}
