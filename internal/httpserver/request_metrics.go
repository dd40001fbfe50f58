package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fdg312/coach-hub/internal/telemetry/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics counts requests by method and status and observes their
// duration. A nil manager disables it.
func RequestMetrics(m *metrics.Manager, next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
		m.GaugeRequests.Inc()
		defer func(begin time.Time) {
			m.GaugeRequests.Dec()
			m.HistogramRequestDuration.WithLabelValues(req.Method).Observe(time.Since(begin).Seconds())
		}(time.Now())

		resp := &responseWriter{ResponseWriter: respWriter, statusCode: http.StatusOK}

		next.ServeHTTP(resp, req)

		m.CounterRequests.With(
			prometheus.Labels{
				"method": req.Method,
				"status": strconv.Itoa(resp.statusCode),
			},
		).Inc()
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.statusCode = statusCode
}
