// Package metrics collects client-side operation metrics with Prometheus.
// The collector owns its own registry so that embedding applications can
// expose it on whichever handler they already serve.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloudstow/cloudstow/pkg/errors"
)

// Config tunes the collector.
type Config struct {
	Enabled   bool              `yaml:"enabled"`
	Namespace string            `yaml:"namespace"`
	Labels    map[string]string `yaml:"labels"`
}

// Transfer directions for byte accounting.
const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// Collector records operation outcomes, durations, transferred bytes and
// classified errors. A disabled collector is a no-op and safe to call.
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	transferBytes     *prometheus.CounterVec
	errorCounter      *prometheus.CounterVec
	authCounter       *prometheus.CounterVec
}

// NewCollector creates a collector. A nil config enables the collector with
// the default namespace.
func NewCollector(config *Config) *Collector {
	if config == nil {
		config = &Config{
			Enabled:   true,
			Namespace: "cloudstow",
			Labels:    map[string]string{},
		}
	}

	c := &Collector{config: config}
	if !config.Enabled {
		return c
	}

	c.registry = prometheus.NewRegistry()

	c.operationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "operations_total",
		Help:        "Total storage operations by outcome",
		ConstLabels: prometheus.Labels(config.Labels),
	}, []string{"operation", "outcome"})

	c.operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   config.Namespace,
		Name:        "operation_duration_seconds",
		Help:        "Storage operation duration in seconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: prometheus.Labels(config.Labels),
	}, []string{"operation"})

	c.transferBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "transfer_bytes_total",
		Help:        "Bytes transferred by direction",
		ConstLabels: prometheus.Labels(config.Labels),
	}, []string{"direction"})

	c.errorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "errors_total",
		Help:        "Classified errors by code and category",
		ConstLabels: prometheus.Labels(config.Labels),
	}, []string{"code", "category"})

	c.authCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "authentications_total",
		Help:        "Authentication attempts by outcome",
		ConstLabels: prometheus.Labels(config.Labels),
	}, []string{"outcome"})

	c.registry.MustRegister(
		c.operationCounter,
		c.operationDuration,
		c.transferBytes,
		c.errorCounter,
		c.authCounter,
	)
	return c
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c != nil && c.config.Enabled
}

// Handler exposes the collector's registry for scraping. Returns nil when
// disabled.
func (c *Collector) Handler() http.Handler {
	if !c.Enabled() {
		return nil
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordOperation records one completed operation.
func (c *Collector) RecordOperation(operation string, duration time.Duration, err error) {
	if !c.Enabled() {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		code := errors.CodeOf(err)
		if code == "" {
			code = "UNCLASSIFIED"
		}
		c.errorCounter.WithLabelValues(string(code), string(errors.GetCategory(code))).Inc()
	}
	c.operationCounter.WithLabelValues(operation, outcome).Inc()
	c.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTransfer records transferred bytes in the given direction.
func (c *Collector) RecordTransfer(direction string, bytes int64) {
	if !c.Enabled() || bytes <= 0 {
		return
	}
	c.transferBytes.WithLabelValues(direction).Add(float64(bytes))
}

// RecordAuthentication records one authentication attempt.
func (c *Collector) RecordAuthentication(success bool) {
	if !c.Enabled() {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.authCounter.WithLabelValues(outcome).Inc()
}
