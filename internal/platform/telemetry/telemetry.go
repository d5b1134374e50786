// Package telemetry exposes Prometheus metrics for the gateway: HTTP
// server metrics, per-operation outcomes, authorization denials, audit
// writes and the audit outbox.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medassist"

// Audit write results.
const (
	AuditAppended = "appended"
	AuditQueued   = "queued"
	AuditFailed   = "failed"
)

// TelemetryConfig holds the constant labels attached to every metric.
type TelemetryConfig struct {
	ServiceName string
	Environment string
}

func (c *TelemetryConfig) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "medassist-server"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

// Provider owns a private registry so tests can create as many providers
// as they like. All methods are safe on a nil *Provider.
type Provider struct {
	cfg      TelemetryConfig
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	denials           *prometheus.CounterVec
	auditWrites       *prometheus.CounterVec
	outboxDepth       prometheus.Gauge
	outboxRelayed     prometheus.Counter
	outboxRetries     prometheus.Counter
}

// NewTelemetryProvider creates and registers every collector.
func NewTelemetryProvider(cfg TelemetryConfig) *Provider {
	cfg.applyDefaults()
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	labels := prometheus.Labels{"service": cfg.ServiceName, "env": cfg.Environment}
	f := promauto.With(reg)

	return &Provider{
		cfg:      cfg,
		registry: reg,
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency by method, route and status.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		activeRequests: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "http_active_requests",
			Help:        "In-flight HTTP requests.",
			ConstLabels: labels,
		}),
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "operations_total",
			Help:        "Gated operations by action and terminal outcome (success or error kind).",
			ConstLabels: labels,
		}, []string{"action", "outcome"}),
		operationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "operation_duration_seconds",
			Help:        "Gated operation latency from credential check to response.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"action"}),
		denials: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "access_denials_total",
			Help:        "Requests rejected before execution, by action and kind.",
			ConstLabels: labels,
		}, []string{"action", "kind"}),
		auditWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "audit_writes_total",
			Help:        "Audit entry writes by result (appended, queued, failed).",
			ConstLabels: labels,
		}, []string{"result"}),
		outboxDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "audit_outbox_depth",
			Help:        "Audit entries waiting in the outbox.",
			ConstLabels: labels,
		}),
		outboxRelayed: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "audit_outbox_relayed_total",
			Help:        "Queued audit entries appended by the relay.",
			ConstLabels: labels,
		}),
		outboxRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "audit_outbox_retries_total",
			Help:        "Relay attempts that failed and were rescheduled.",
			ConstLabels: labels,
		}),
	}
}

// Registry returns the provider's registry.
func (p *Provider) Registry() *prometheus.Registry {
	if p == nil {
		return nil
	}
	return p.registry
}

// ObserveOperation records the terminal outcome of a gated operation.
func (p *Provider) ObserveOperation(action, outcome string, d time.Duration) {
	if p == nil {
		return
	}
	p.operations.WithLabelValues(action, outcome).Inc()
	p.operationDuration.WithLabelValues(action).Observe(d.Seconds())
}

// ObserveDenial counts a request rejected before execution.
func (p *Provider) ObserveDenial(action, kind string) {
	if p == nil {
		return
	}
	p.denials.WithLabelValues(action, kind).Inc()
}

// ObserveAuditWrite counts an audit write by result.
func (p *Provider) ObserveAuditWrite(result string) {
	if p == nil {
		return
	}
	p.auditWrites.WithLabelValues(result).Inc()
}

// SetOutboxDepth records the current outbox length.
func (p *Provider) SetOutboxDepth(n int) {
	if p == nil {
		return
	}
	p.outboxDepth.Set(float64(n))
}

// ObserveRelay records one relay pass.
func (p *Provider) ObserveRelay(relayed, retried int) {
	if p == nil {
		return
	}
	p.outboxRelayed.Add(float64(relayed))
	p.outboxRetries.Add(float64(retried))
}

// MetricsMiddleware returns an Echo middleware that records HTTP server metrics.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p == nil {
				return next(c)
			}
			p.activeRequests.Inc()
			defer p.activeRequests.Dec()

			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			p.requestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// PrometheusHandler serves the registry in the Prometheus text format.
func (p *Provider) PrometheusHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
}
