package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/iwvelando/capital-budget/internal/telemetry"
	"go.uber.org/zap"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-ID"

func wrapMiddleware(logger *zap.Logger, recorder *telemetry.Recorder, next http.Handler) http.Handler {
	logged := withRequestLogging(logger, recorder, next)
	compressed := handlers.CompressHandler(logged)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger)),
		handlers.PrintRecoveryStack(false),
	)(compressed)
}

// withRequestLogging assigns a request id, logs each request and records its
// latency.
func withRequestLogging(logger *zap.Logger, recorder *telemetry.Recorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		logger.Debug("http request",
			zap.String("op", "server.request"),
			zap.String("requestId", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Duration("duration", duration),
		)
		recorder.ObserveRequest(routeLabel(r.URL.Path), rw.status, duration)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader stores the status code so the middleware can log it.
func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// routeLabel keeps the path label of request metrics bounded.
func routeLabel(path string) string {
	switch path {
	case "/api/calculate", "/api/evaluate", "/api/export", "/api/version", "/healthz", "/metrics":
		return path
	}
	if strings.HasPrefix(path, "/api/") {
		return "/api/other"
	}
	return "static"
}
