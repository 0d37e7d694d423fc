// Package metrics exposes client-side view and live channel counters in
// Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesh-intelligence/basegrid/internal/live"
	"github.com/mesh-intelligence/basegrid/internal/view"
	"github.com/mesh-intelligence/basegrid/pkg/types"
)

const namespace = "basegrid"

var (
	_ view.Metrics = (*Collector)(nil)
	_ live.Metrics = (*Collector)(nil)
)

// Collector records outcomes on its own registry.
type Collector struct {
	registry *prometheus.Registry

	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	events        *prometheus.CounterVec
	messages      *prometheus.CounterVec
	reconnects    prometheus.Counter
	connected     prometheus.Gauge
}

// New creates a Collector and registers its metrics together with the Go
// runtime collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "fetches_total",
			Help:      "Record page fetches by outcome.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "fetch_duration_seconds",
			Help:      "Latency of record page fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "live_events_total",
			Help:      "Live events applied to views by type and outcome.",
		}, []string{"type", "outcome"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "messages_total",
			Help:      "Messages read from the live channel by outcome.",
		}, []string{"outcome"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "reconnects_total",
			Help:      "Reconnect attempts of the live channel.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "connected",
			Help:      "1 while the live channel is connected.",
		}),
	}
	c.registry.MustRegister(
		c.fetches,
		c.fetchDuration,
		c.events,
		c.messages,
		c.reconnects,
		c.connected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveFetch(outcome string, d time.Duration) {
	c.fetches.WithLabelValues(outcome).Inc()
	if outcome != view.FetchSuperseded {
		c.fetchDuration.Observe(d.Seconds())
	}
}

func (c *Collector) ObserveEvent(t types.EventType, outcome string) {
	c.events.WithLabelValues(string(t), outcome).Inc()
}

func (c *Collector) ObserveMessage(outcome string) {
	c.messages.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveReconnect() {
	c.reconnects.Inc()
}

func (c *Collector) ObserveState(s live.State) {
	if s == live.StateConnected {
		c.connected.Set(1)
		return
	}
	c.connected.Set(0)
}
