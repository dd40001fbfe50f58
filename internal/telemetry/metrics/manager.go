package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterRateLimitedRequests prometheus.Counter
	CounterSessionCommands     *prometheus.CounterVec
	CounterSubmits             *prometheus.CounterVec
	CounterEmails              *prometheus.CounterVec
	CounterVideoUploads        *prometheus.CounterVec

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
	HistogramSubmitDuration  *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("coachhub", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("coachhub", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterRateLimitedRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rate_limited_requests",
			Help:      "The total number of rate limited requests",
		}),
		CounterSessionCommands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "session_commands",
			Help:      "Edit commands applied to plan sessions",
		}, []string{"builder", "op", "result"}),
		CounterSubmits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "plan_submits",
			Help:      "Plan submits by builder and result",
		}, []string{"builder", "result"}),
		CounterEmails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "plan_emails",
			Help:      "Plan assignment emails by result",
		}, []string{"result"}),
		CounterVideoUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "video_uploads",
			Help:      "Exercise video uploads by result",
		}, []string{"result"}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Current number of requests served",
		}),
		HistogramRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		HistogramSubmitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "plan_submit_duration_seconds",
			Help:      "Time spent saving a submitted plan",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"builder"}),
	}
}

// The helpers below accept a nil manager so services can run without metrics.

func (m *Manager) SessionCommand(builder, op, result string) {
	if m == nil {
		return
	}
	m.CounterSessionCommands.WithLabelValues(builder, op, result).Inc()
}

func (m *Manager) Submit(builder, result string, seconds float64) {
	if m == nil {
		return
	}
	m.CounterSubmits.WithLabelValues(builder, result).Inc()
	m.HistogramSubmitDuration.WithLabelValues(builder).Observe(seconds)
}

func (m *Manager) Email(result string) {
	if m == nil {
		return
	}
	m.CounterEmails.WithLabelValues(result).Inc()
}

func (m *Manager) VideoUpload(result string) {
	if m == nil {
		return
	}
	m.CounterVideoUploads.WithLabelValues(result).Inc()
}

func (m *Manager) RateLimited() {
	if m == nil {
		return
	}
	m.CounterRateLimitedRequests.Inc()
}
