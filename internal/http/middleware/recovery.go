package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/skilltree/skilltheme/internal/observability"
)

// Recovery turns a handler panic into a 500 problem response. Aborted
// handlers are re-panicked so net/http drops the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared as panic value
					panic(rec)
				}

				requestID := observability.RequestIDFromContext(r.Context())
				logger.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", requestID),
				)
				writeProblem(w, http.StatusInternalServerError, requestID)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writeProblem writes an RFC 9457 body shaped like the API's own errors.
func writeProblem(w http.ResponseWriter, status int, requestID string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Title     string `json:"title"`
		Status    int    `json:"status"`
		RequestID string `json:"request_id,omitempty"`
	}{http.StatusText(status), status, requestID})
}
