package shop

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fivetwenty-io/dcapi/internal/constants"
)

// PrometheusConfig configures PrometheusMetrics.
type PrometheusConfig struct {
	// Namespace is the metric namespace. Default: "dcapi".
	Namespace string
	// Subsystem is the metric subsystem. Default: "client".
	Subsystem string
	// Buckets are the latency histogram buckets. Default: prometheus.DefBuckets.
	Buckets []float64
	// Registry receives the collectors. Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// PrometheusMetrics exports request counts and latencies per resource.
type PrometheusMetrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	quotaLeft prometheus.Gauge
}

// NewPrometheusMetrics creates and registers the collectors. Registering twice
// on the same registry reuses the existing collectors.
func NewPrometheusMetrics(config *PrometheusConfig) (*PrometheusMetrics, error) {
	cfg := PrometheusConfig{Namespace: "dcapi", Subsystem: "client", Buckets: prometheus.DefBuckets}
	if config != nil {
		if config.Namespace != "" {
			cfg.Namespace = config.Namespace
		}

		if config.Subsystem != "" {
			cfg.Subsystem = config.Subsystem
		}

		if len(config.Buckets) > 0 {
			cfg.Buckets = config.Buckets
		}

		cfg.Registry = config.Registry
	}

	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "requests_total",
		Help:      "Total number of shop API requests",
	}, []string{"method", "resource", "status"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "request_duration_seconds",
		Help:      "Duration of shop API requests in seconds",
		Buckets:   cfg.Buckets,
	}, []string{"method", "resource"})

	quotaLeft := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "api_calls_left",
		Help:      "API calls left in the shop quota bucket",
	})

	metrics := &PrometheusMetrics{}

	var err error

	metrics.requests, err = register(cfg.Registry, requests)
	if err != nil {
		return nil, err
	}

	metrics.latency, err = register(cfg.Registry, latency)
	if err != nil {
		return nil, err
	}

	metrics.quotaLeft, err = register(cfg.Registry, quotaLeft)
	if err != nil {
		return nil, err
	}

	return metrics, nil
}

func register[C prometheus.Collector](registry prometheus.Registerer, collector C) (C, error) {
	err := registry.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	return collector, fmt.Errorf("registering metrics collector: %w", err)
}

// Requests returns the request counter.
func (p *PrometheusMetrics) Requests() *prometheus.CounterVec {
	return p.requests
}

// Latency returns the latency histogram.
func (p *PrometheusMetrics) Latency() *prometheus.HistogramVec {
	return p.latency
}

// QuotaLeft returns the quota gauge.
func (p *PrometheusMetrics) QuotaLeft() prometheus.Gauge {
	return p.quotaLeft
}

// RequestInterceptor records the request start time.
func (p *PrometheusMetrics) RequestInterceptor() RequestInterceptor {
	return markStart
}

// ResponseInterceptor observes the finished request.
func (p *PrometheusMetrics) ResponseInterceptor() ResponseInterceptor {
	return func(ctx context.Context, req *HTTPRequest, resp *HTTPResponse) error {
		resource := ResourceFromPath(req.Path)

		status := "error"
		if resp.Error == nil {
			status = strconv.Itoa(resp.StatusCode)
		}

		p.requests.WithLabelValues(req.Method, resource, status).Inc()

		if latency := elapsed(req); latency > 0 {
			p.latency.WithLabelValues(req.Method, resource).Observe(latency.Seconds())
		}

		if quota, ok := QuotaFromHeaders(resp.Headers); ok {
			p.quotaLeft.Set(float64(quota.Calls))
		}

		return nil
	}
}

// Register adds both interceptors to chain.
func (p *PrometheusMetrics) Register(chain *InterceptorChain) {
	chain.AddRequestInterceptor(p.RequestInterceptor())
	chain.AddResponseInterceptor(p.ResponseInterceptor())
}

// ResourceFromPath extracts the resource name from a request path such as
// "/webapi/rest/products/12?limit=5".
func ResourceFromPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	path = strings.TrimPrefix(path, constants.APIBasePath)
	path = strings.Trim(path, "/")

	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}

	if path == "" {
		return "unknown"
	}

	return path
}
