/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector represents a collector of metrics to analyze how the limiter is used.
type MetricsCollector interface {
	// IncPassesGranted increments the total number of granted passes.
	IncPassesGranted()

	// IncAcquireTimeouts increments the total number of Acquire calls that
	// gave up before a pass was granted.
	IncAcquireTimeouts()

	// ObserveAcquireWaitTime observes how long a caller was blocked in Acquire
	// before a pass was granted.
	ObserveAcquireWaitTime(waitTime time.Duration)
}

// NullMetricsCollector is a no-op implementation of MetricsCollector.
type NullMetricsCollector struct{}

// IncPassesGranted does nothing.
func (NullMetricsCollector) IncPassesGranted() {}

// IncAcquireTimeouts does nothing.
func (NullMetricsCollector) IncAcquireTimeouts() {}

// ObserveAcquireWaitTime does nothing.
func (NullMetricsCollector) ObserveAcquireWaitTime(waitTime time.Duration) {}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels

	// CurriedLabelNames is a list of label names that will be curried with the provided labels.
	// See PrometheusMetrics.MustCurryWith method for more details.
	// Keep in mind that if this list is not empty,
	// PrometheusMetrics.MustCurryWith method must be called further with the same labels.
	// Otherwise, the collector will panic.
	CurriedLabelNames []string
}

// PrometheusMetrics represents Prometheus metrics for a limiter.
type PrometheusMetrics struct {
	PassesGrantedTotal   *prometheus.CounterVec
	AcquireTimeoutsTotal *prometheus.CounterVec
	AcquireWaitTime      *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	passesGrantedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "rate_limit_passes_granted_total",
			Help:        "Number of granted rate limit passes.",
			ConstLabels: opts.ConstLabels,
		},
		opts.CurriedLabelNames,
	)

	acquireTimeoutsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "rate_limit_acquire_timeouts_total",
			Help:        "Number of pass acquisitions that gave up before a pass was granted.",
			ConstLabels: opts.ConstLabels,
		},
		opts.CurriedLabelNames,
	)

	acquireWaitTime := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "rate_limit_acquire_wait_duration_seconds",
			Help:        "Time callers were blocked waiting for a rate limit pass.",
			ConstLabels: opts.ConstLabels,
			Buckets:     []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		opts.CurriedLabelNames,
	)

	return &PrometheusMetrics{
		PassesGrantedTotal:   passesGrantedTotal,
		AcquireTimeoutsTotal: acquireTimeoutsTotal,
		AcquireWaitTime:      acquireWaitTime,
	}
}

// MustCurryWith curries the metrics collector with the provided labels.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{
		PassesGrantedTotal:   pm.PassesGrantedTotal.MustCurryWith(labels),
		AcquireTimeoutsTotal: pm.AcquireTimeoutsTotal.MustCurryWith(labels),
		AcquireWaitTime:      pm.AcquireWaitTime.MustCurryWith(labels).(*prometheus.HistogramVec),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(
		pm.PassesGrantedTotal,
		pm.AcquireTimeoutsTotal,
		pm.AcquireWaitTime,
	)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.PassesGrantedTotal)
	prometheus.Unregister(pm.AcquireTimeoutsTotal)
	prometheus.Unregister(pm.AcquireWaitTime)
}

// IncPassesGranted increments the total number of granted passes.
func (pm *PrometheusMetrics) IncPassesGranted() {
	pm.PassesGrantedTotal.With(nil).Inc()
}

// IncAcquireTimeouts increments the total number of failed pass acquisitions.
func (pm *PrometheusMetrics) IncAcquireTimeouts() {
	pm.AcquireTimeoutsTotal.With(nil).Inc()
}

// ObserveAcquireWaitTime observes the time a caller was blocked in Acquire.
func (pm *PrometheusMetrics) ObserveAcquireWaitTime(waitTime time.Duration) {
	pm.AcquireWaitTime.With(nil).Observe(waitTime.Seconds())
}

// InstrumentedLimiter wraps another Limiter and reports grants, timeouts,
// and wait durations to the passed MetricsCollector.
type InstrumentedLimiter struct {
	base Limiter
	mc   MetricsCollector
}

// NewInstrumentedLimiter creates a new Limiter collecting metrics around base.
// If mc is nil, NullMetricsCollector is used.
func NewInstrumentedLimiter(base Limiter, mc MetricsCollector) *InstrumentedLimiter {
	if mc == nil {
		mc = NullMetricsCollector{}
	}
	return &InstrumentedLimiter{base: base, mc: mc}
}

// Acquire blocks until a pass is granted or ctx is done.
func (l *InstrumentedLimiter) Acquire(ctx context.Context) error {
	start := time.Now()
	err := l.base.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrAcquireTimeout) {
			l.mc.IncAcquireTimeouts()
		}
		return err
	}
	l.mc.IncPassesGranted()
	l.mc.ObserveAcquireWaitTime(time.Since(start))
	return nil
}

// TryAcquire makes a single non-blocking attempt to get a pass.
func (l *InstrumentedLimiter) TryAcquire() (ok bool, retryAfter time.Duration) {
	ok, retryAfter = l.base.TryAcquire()
	if ok {
		l.mc.IncPassesGranted()
	}
	return ok, retryAfter
}
