package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// ClientCollector bundles Prometheus metrics for the catalog and submission
// clients.
type ClientCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	Submissions       *prometheus.CounterVec
	SatelliteVariants prometheus.Gauge
}

// NewClientCollector registers client metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewClientCollector(reg prometheus.Registerer) (*ClientCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tradespace_http_requests_total",
		Help: "Outbound HTTP requests, labeled by target (catalog, submit), method and status code.",
	}, []string{"target", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "tradespace_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tradespace_http_request_duration_seconds",
		Help:    "Outbound HTTP request latency in seconds.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"target", "method"})
	durations, err = registerHistogramVec(reg, durations, "tradespace_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tradespace_submissions_total",
		Help: "Tradespace search submissions, labeled by mode (form, raw) and outcome (success, failure).",
	}, []string{"mode", "outcome"})
	submissions, err = registerCounterVec(reg, submissions, "tradespace_submissions_total")
	if err != nil {
		return nil, err
	}

	variants, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tradespace_satellite_variants",
		Help: "Number of satellite variants in the last assembled request.",
	}), "tradespace_satellite_variants")
	if err != nil {
		return nil, err
	}

	return &ClientCollector{
		gatherer:          gatherer,
		HTTPRequests:      requests,
		HTTPDurations:     durations,
		Submissions:       submissions,
		SatelliteVariants: variants,
	}, nil
}

// ObserveRequest records one outbound request. A zero status marks a
// transport failure.
func (c *ClientCollector) ObserveRequest(target, method string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	if c.HTTPRequests != nil {
		c.HTTPRequests.WithLabelValues(target, method, code).Inc()
	}
	if c.HTTPDurations != nil {
		c.HTTPDurations.WithLabelValues(target, method).Observe(elapsed.Seconds())
	}
}

// RecordSubmission counts a submission attempt.
func (c *ClientCollector) RecordSubmission(mode string, err error) {
	if c == nil || c.Submissions == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.Submissions.WithLabelValues(mode, outcome).Inc()
}

// SetVariants records the size of the last assembled design space.
func (c *ClientCollector) SetVariants(n int) {
	if c == nil || c.SatelliteVariants == nil {
		return
	}
	c.SatelliteVariants.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ClientCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Push sends the gathered metrics to a Prometheus push gateway under job.
func (c *ClientCollector) Push(ctx context.Context, gatewayURL, job string) error {
	if c == nil || gatewayURL == "" {
		return nil
	}
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if err := push.New(gatewayURL, job).Gatherer(gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

// InstrumentTransport wraps next so every request is counted under target.
func (c *ClientCollector) InstrumentTransport(target string, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if c == nil {
		return next
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)
		status := 0
		if err == nil && resp != nil {
			status = resp.StatusCode
		}
		c.ObserveRequest(target, req.Method, status, time.Since(start))
		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
