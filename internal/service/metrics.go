package service

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "prism"

// Metrics agrupa los colectores Prometheus del motor. Un *Metrics nil es valido y no registra nada.
type Metrics struct {
	scoreDuration  *prometheus.HistogramVec
	scoreTotal     *prometheus.CounterVec
	callRetries    *prometheus.CounterVec
	recomputeTotal *prometheus.CounterVec
	resultsFetch   *prometheus.CounterVec
	closeCalls     prometheus.Counter
}

// MustNewMetrics registra los colectores en reg; entra en panico ante un error
// de registro que no sea un colector ya existente.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		scoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "scoring",
			Name:      "session_duration_seconds",
			Help:      "Time spent loading, scoring and persisting one session.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		scoreTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "scoring",
			Name:      "sessions_total",
			Help:      "Sessions scored, by outcome and model version.",
		}, []string{"status", "version"}),
		callRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "scoring",
			Name:      "call_retries_total",
			Help:      "Collaborator calls that needed a retry.",
		}, []string{"call"}),
		recomputeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "recompute",
			Name:      "sessions_total",
			Help:      "Sessions processed by batch recompute, by result.",
		}, []string{"result"}),
		resultsFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "results",
			Name:      "fetch_total",
			Help:      "Result fetch attempts, by outcome.",
		}, []string{"outcome"}),
		closeCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "scoring",
			Name:      "close_calls_total",
			Help:      "Classifications whose top gap fell below the close-call threshold.",
		}),
	}

	m.scoreDuration = register(reg, m.scoreDuration)
	m.scoreTotal = register(reg, m.scoreTotal)
	m.callRetries = register(reg, m.callRetries)
	m.recomputeTotal = register(reg, m.recomputeTotal)
	m.resultsFetch = register(reg, m.resultsFetch)
	m.closeCalls = register(reg, m.closeCalls)
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) ObserveScore(status, version string, d time.Duration) {
	if m == nil {
		return
	}
	m.scoreDuration.WithLabelValues(status).Observe(d.Seconds())
	m.scoreTotal.WithLabelValues(status, version).Inc()
}

func (m *Metrics) IncCloseCall() {
	if m == nil {
		return
	}
	m.closeCalls.Inc()
}

func (m *Metrics) IncRetry(call string) {
	if m == nil {
		return
	}
	m.callRetries.WithLabelValues(call).Inc()
}

func (m *Metrics) IncRecompute(result string) {
	if m == nil {
		return
	}
	m.recomputeTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncResultsFetch(outcome string) {
	if m == nil {
		return
	}
	m.resultsFetch.WithLabelValues(outcome).Inc()
}
