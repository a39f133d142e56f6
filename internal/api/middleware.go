package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var (
	errNoWalletStore = errors.New("wallet store not configured")
	errNoWatcher     = errors.New("watcher not configured")
)

// requestIDHeader carries the request ID to the client and the logs
const requestIDHeader = "X-Request-ID"

// requestIDMiddleware assigns every request a UUID, honoring one the
// client already sent.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs one line per request with method, path, status
// and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.WithFields(map[string]interface{}{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    recorder.status,
			"duration":  time.Since(start).String(),
			"requestId": recorder.Header().Get(requestIDHeader),
		}).Info("request handled")
	})
}
