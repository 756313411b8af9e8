package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/spendwise/internal/metrics"
)

type infoKey struct{}

// requestInfo is filled in by inner handlers so the outer middleware can
// report who made the request.
type requestInfo struct {
	userID string
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(infoKey{}).(*requestInfo)
	return info
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Observe logs every request and records it in m. mux must be the
// *http.ServeMux that routes the request so the matched pattern can be
// used as the route label.
func Observe(logger *slog.Logger, m *metrics.Metrics, mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &requestInfo{}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		r = r.WithContext(context.WithValue(r.Context(), infoKey{}, info))
		mux.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(r.Method, route, rec.status, elapsed)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
			"user_id", info.userID,
		}
		switch {
		case rec.status >= http.StatusInternalServerError:
			logger.Error("Request failed", attrs...)
		case rec.status >= http.StatusBadRequest:
			logger.Warn("Request rejected", attrs...)
		default:
			logger.Info("Request completed", attrs...)
		}
	})
}
