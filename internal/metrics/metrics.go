package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the engine exports. Each instance owns its
// own registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	AnswersEvaluated    *prometheus.CounterVec
	Adaptations         *prometheus.CounterVec
	GenerationFallbacks *prometheus.CounterVec
	CommitConflicts     prometheus.Counter
	XPAwarded           prometheus.Counter
	ActiveSessions      prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 20},
			},
			[]string{"method", "endpoint"},
		),
		AnswersEvaluated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_answers_evaluated_total",
				Help: "Answers scored, by exercise type and outcome",
			},
			[]string{"type", "outcome"},
		),
		Adaptations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_adaptations_total",
				Help: "Difficulty decisions, by direction",
			},
			[]string{"direction"},
		),
		GenerationFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_generation_fallbacks_total",
				Help: "Times template exercises replaced generated content, by reason",
			},
			[]string{"reason"},
		),
		CommitConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_mastery_commit_conflicts_total",
			Help: "Session commits rejected by a concurrent write",
		}),
		XPAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_xp_awarded_total",
			Help: "XP granted across all committed sessions",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_active_sessions",
			Help: "Sessions currently held in memory",
		}),
	}

	m.Registry.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.AnswersEvaluated,
		m.Adaptations,
		m.GenerationFallbacks,
		m.CommitConflicts,
		m.XPAwarded,
		m.ActiveSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency, labelled by route template
// so path ids do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tmpl
			}
		}

		m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// ── Engine helpers ──────────────────────────────────────

func (m *Metrics) ObserveAnswer(exerciseType string, correct bool) {
	outcome := "incorrect"
	if correct {
		outcome = "correct"
	}
	m.AnswersEvaluated.WithLabelValues(exerciseType, outcome).Inc()
}

func (m *Metrics) ObserveAdaptation(direction string) {
	m.Adaptations.WithLabelValues(direction).Inc()
}

func (m *Metrics) ObserveFallback(reason string) {
	m.GenerationFallbacks.WithLabelValues(reason).Inc()
}
