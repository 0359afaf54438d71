// Package metrics holds the prometheus collectors of the console.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"waste-console/internal/apperr"
)

const namespace = "waste_console"

type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	StoreCalls      *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec
	Exports         *prometheus.CounterVec
	ExportDuration  *prometheus.HistogramVec
	ExportJobs      prometheus.Gauge
}

func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status_code"})

	c.RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	c.StoreCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_calls_total",
		Help:      "Ticket store calls by outcome (ok, rejected, failed, cancelled).",
	}, []string{"method", "outcome"})

	c.StoreDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_call_duration_seconds",
		Help:      "Ticket store call duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	c.Exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exports_total",
		Help:      "Report exports by type, format and outcome.",
	}, []string{"report_type", "format", "outcome"})

	c.ExportDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "export_duration_seconds",
		Help:      "Report export rendering time in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"format"})

	c.ExportJobs = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "export_jobs_running",
		Help:      "Background export jobs currently running.",
	})

	c.registry.MustRegister(
		c.RequestsTotal, c.RequestDuration,
		c.StoreCalls, c.StoreDuration,
		c.Exports, c.ExportDuration, c.ExportJobs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveStoreCall implements store.Observer.
func (c *Collector) ObserveStoreCall(method string, d time.Duration, outcome string) {
	c.StoreCalls.WithLabelValues(method, outcome).Inc()
	c.StoreDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveExport records one finished export; the outcome is the error kind or "ok".
func (c *Collector) ObserveExport(reportType, format string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	c.Exports.WithLabelValues(reportType, format, outcome).Inc()
	c.ExportDuration.WithLabelValues(format).Observe(d.Seconds())
}

// Middleware counts requests by route pattern, so ids in paths do not explode labels.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			status = apperr.Status(err)
		}
		route := ctx.Route().Path
		c.RequestsTotal.WithLabelValues(ctx.Method(), route, strconv.Itoa(status)).Inc()
		c.RequestDuration.WithLabelValues(ctx.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the prometheus text format.
func (c *Collector) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}
