package metrics

import (
	"net/http"
	"time"

	"github.com/Domenick1991/tablebot/internal/service/dialogue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tablebot"

// Collector records dialogue pipeline measurements on its own registry.
type Collector struct {
	registry *prometheus.Registry

	utterances     *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	escalations    *prometheus.CounterVec
	reservations   *prometheus.CounterVec
	oracleFailures prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		utterances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "utterances_total",
				Help:      "Handled guest utterances by outcome",
			},
			[]string{"outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "utterance_duration_seconds",
				Help:      "Time spent answering one utterance",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"outcome"},
		),
		escalations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "escalations_total",
				Help:      "Conversations handed to staff by reason",
			},
			[]string{"kind"},
		),
		reservations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reservation_attempts_total",
				Help:      "Reservation attempts by result",
			},
			[]string{"result"},
		),
		oracleFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oracle_failures_total",
				Help:      "Language model calls that failed or returned nothing",
			},
		),
	}

	c.registry.MustRegister(
		c.utterances,
		c.latency,
		c.escalations,
		c.reservations,
		c.oracleFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Utterance(outcome string, elapsed time.Duration) {
	c.utterances.WithLabelValues(outcome).Inc()
	c.latency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (c *Collector) Escalation(kind string) {
	c.escalations.WithLabelValues(kind).Inc()
}

func (c *Collector) Reservation(result string) {
	c.reservations.WithLabelValues(result).Inc()
}

func (c *Collector) OracleFailure() {
	c.oracleFailures.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

var _ dialogue.Recorder = (*Collector)(nil)
