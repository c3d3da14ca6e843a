package http

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mkrupp/simpletodo/internal/infra/logging"
)

// RescueingMiddleware recovers from panics in HTTP handlers, logs the stack
// and answers with a 500 problem body.
func RescueingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}

			//nolint:errorlint,err113
			if p == http.ErrAbortHandler {
				panic(p)
			}

			log.ErrorContext(r.Context(), "request panic", slog.Group("http",
				"uri", r.RequestURI,
				"method", r.Method,
			), slog.Group("error",
				"panic", p,
				"stack", string(debug.Stack()),
			))

			WriteProblem(w, r, errPanic)
		}()

		next.ServeHTTP(w, r)
	})
}
