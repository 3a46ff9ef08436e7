package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors.
type Metrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	generations *prometheus.CounterVec
	genLatency  *prometheus.HistogramVec
	gatherer    prometheus.Gatherer
}

// New registers the collectors on reg; Handler serves everything reg gathers.
func New(namespace string, reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method/route/status",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Dispatched generations by model/perspective/outcome",
		}, []string{"model", "perspective", "outcome"}),
		genLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Backend generation latency by model",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"model"}),
		gatherer: reg,
	}
	reg.MustRegister(m.requests, m.latency, m.generations, m.genLatency)
	return m
}

// ObserveGeneration records one dispatch outcome ("ok" or "error").
func (m *Metrics) ObserveGeneration(model, perspective, outcome string, d time.Duration) {
	m.generations.WithLabelValues(model, perspective, outcome).Inc()
	if outcome == "ok" {
		m.genLatency.WithLabelValues(model).Observe(d.Seconds())
	}
}

// Middleware records every request after the handler chain ran.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		m.requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
