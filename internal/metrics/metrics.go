package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records compile outcomes. It implements ports.CompileObserver.
// It owns its registry so tests and embedders never touch the global one.
type Collector struct {
	registry    *prometheus.Registry
	compiles    *prometheus.CounterVec
	duration    prometheus.Histogram
	nodes       prometheus.Gauge
	connections prometheus.Gauge
}

// New creates a Collector with every metric registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		compiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dialoguetree_compiles_total",
				Help: "Total number of graph compiles by result",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dialoguetree_compile_duration_seconds",
				Help:    "Duration of graph validation and compilation",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dialoguetree_last_compile_nodes",
			Help: "Node count of the most recently compiled graph",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dialoguetree_last_compile_connections",
			Help: "Connection count of the most recently compiled graph",
		}),
	}
	c.registry.MustRegister(c.compiles, c.duration, c.nodes, c.connections)
	return c
}

// ObserveCompile records one compile.
func (c *Collector) ObserveCompile(nodes, connections int, elapsed time.Duration, err error) {
	c.duration.Observe(elapsed.Seconds())
	if err != nil {
		c.compiles.WithLabelValues("error").Inc()
		return
	}
	c.compiles.WithLabelValues("ok").Inc()
	c.nodes.Set(float64(nodes))
	c.connections.Set(float64(connections))
}

// Registry exposes the registry for gathering.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
