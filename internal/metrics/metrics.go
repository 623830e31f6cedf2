// Package metrics holds the Prometheus collectors for upstream calls and HTTP traffic.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upstream source labels.
const (
	SourceISS      = "iss"
	SourceWeather  = "weather"
	SourceSun      = "sun"
	SourceLocation = "location"
)

// Collector bundles the service metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	UpstreamRequests  *prometheus.CounterVec
	UpstreamDurations *prometheus.HistogramVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDurations     *prometheus.HistogramVec
	LocationUpdates   prometheus.Counter
}

// NewCollector registers the metrics against reg, defaulting to the global registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	upstream, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "issfinder_upstream_requests_total",
		Help: "Upstream lookups, labeled by source and outcome.",
	}, []string{"source", "outcome"}))
	if err != nil {
		return nil, err
	}
	upstreamDur, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "issfinder_upstream_duration_seconds",
		Help:    "Upstream lookup latency in seconds, cache hits included.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"source"}))
	if err != nil {
		return nil, err
	}
	httpReqs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "issfinder_http_requests_total",
		Help: "Handled HTTP requests, labeled by route and status code.",
	}, []string{"route", "code"}))
	if err != nil {
		return nil, err
	}
	httpDur, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "issfinder_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"}))
	if err != nil {
		return nil, err
	}
	updates, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "issfinder_location_updates_total",
		Help: "Visitor locations accepted by /update_location.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		UpstreamRequests:  upstream,
		UpstreamDurations: upstreamDur,
		HTTPRequests:      httpReqs,
		HTTPDurations:     httpDur,
		LocationUpdates:   updates,
	}, nil
}

// ObserveUpstream records one lookup against source that started at start.
func (c *Collector) ObserveUpstream(source string, start time.Time, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.UpstreamRequests.WithLabelValues(source, outcome).Inc()
	c.UpstreamDurations.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one handled request.
func (c *Collector) ObserveHTTP(route string, code int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	c.HTTPDurations.WithLabelValues(route).Observe(d.Seconds())
}

// IncLocationUpdates counts an accepted visitor location.
func (c *Collector) IncLocationUpdates() {
	if c == nil {
		return
	}
	c.LocationUpdates.Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// register adds col to reg, reusing an identical collector that is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return col, nil
}
