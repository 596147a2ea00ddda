package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes Prometheus collectors for the recommendation pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	apiDuration   *prometheus.HistogramVec
	apiInflight   prometheus.Gauge
	outcomes      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	grounding     *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	return NewMetricsWith(reg, reg)
}

func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Metrics, error) {
	m := &Metrics{
		gatherer: gatherer,
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "traitdial",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route and status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		apiInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "traitdial",
				Subsystem: "http",
				Name:      "requests_inflight",
				Help:      "HTTP requests currently being served.",
			},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "traitdial",
				Subsystem: "recommend",
				Name:      "outcomes_total",
				Help:      "Recommendation requests by outcome code.",
			},
			[]string{"outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "traitdial",
				Subsystem: "recommend",
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each pipeline stage.",
				Buckets:   []float64{0.005, 0.05, 0.25, 1, 2.5, 5, 10, 20, 40, 60},
			},
			[]string{"stage", "status"},
		),
		grounding: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "traitdial",
				Subsystem: "recommend",
				Name:      "grounding_total",
				Help:      "Document grounding attempts by result status.",
			},
			[]string{"status"},
		),
	}
	for _, c := range []prometheus.Collector{m.apiDuration, m.apiInflight, m.outcomes, m.stageDuration, m.grounding} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiDuration.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStage(stage, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage, status).Observe(dur.Seconds())
}

func (m *Metrics) IncGrounding(status string) {
	if m == nil {
		return
	}
	m.grounding.WithLabelValues(status).Inc()
}
