package middleware

import (
	"net/http"
	"time"

	"github.com/zatekoja/apprating/internal/infrastructure/observability"
)

// LoggingMiddleware logs one line per request with its route and status
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := rw.route
		if route == "" {
			route = routeOf(r)
		}

		logger := observability.LoggerFromContext(r.Context())
		event := logger.Info()
		switch {
		case rw.statusCode >= http.StatusInternalServerError:
			event = logger.Error()
		case rw.statusCode >= http.StatusBadRequest:
			event = logger.Warn()
		}

		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", rw.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

// routeOf returns the matched mux pattern, falling back to the raw path
func routeOf(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.URL.Path
}

// responseWriter wraps http.ResponseWriter to capture status code and the
// route reported by inner middleware
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	wrote      bool
	route      string
}

// routeRecorder is implemented by writers that want the matched route
type routeRecorder interface {
	setRoute(route string)
}

func (rw *responseWriter) setRoute(route string) {
	rw.route = route
	if rr, ok := rw.ResponseWriter.(routeRecorder); ok {
		rr.setRoute(route)
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.wrote {
		rw.statusCode = statusCode
		rw.wrote = true
	}
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wrote = true
	return rw.ResponseWriter.Write(b)
}

// Flush keeps server-sent event streams working through the wrapper
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
