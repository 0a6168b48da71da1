// Package middleware holds the HTTP middleware that sits in front of the
// handlers: access logging, CORS and bearer-token authentication.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/student-roster/internal/logging"
)

// Logger writes one access-log line per request: method, path, status,
// duration and the authenticated owner when there is one. Place it after
// chi's RequestID so the line carries request_id.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		// Auth runs further down the chain; it reports the owner back
		// through this slot.
		slot := &ownerSlot{}
		next.ServeHTTP(ww, r.WithContext(withOwnerSlot(r.Context(), slot)))

		attrs := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.status),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("ip", r.RemoteAddr),
		}
		if slot.owner != "" {
			attrs = append(attrs, slog.String("owner", slot.owner))
		}

		log := logging.FromContext(r.Context())
		if ww.status >= http.StatusInternalServerError {
			log.Error("request", attrs...)
			return
		}
		log.Info("request", attrs...)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
