package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DAOResultOK       = "ok"
	DAOResultError    = "error"
	DAOResultCanceled = "canceled"
)

// DAOMetrics times data-access calls. Callers wrap the call site explicitly:
//
//	defer m.Observe(ctx, "get_yearly_billing_data", time.Now(), &err)
type DAOMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

var (
	daoMetricsOnce sync.Once
	daoMetrics     *DAOMetrics
)

// DAOWithConfig returns the process-wide DAO metrics using config labels.
func DAOWithConfig(cfg Config) *DAOMetrics {
	daoMetricsOnce.Do(func() {
		daoMetrics = NewDAOMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return daoMetrics
}

// NewDAOMetrics builds and registers DAO instruments on registerer.
func NewDAOMetrics(registerer prometheus.Registerer, cfg Config) *DAOMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "courier"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "dao",
		Name:        "call_duration_seconds",
		Help:        "Latency of data-access calls by operation.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		ConstLabels: constLabels,
	}, []string{"operation"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "dao",
		Name:        "calls_total",
		Help:        "Data-access calls by operation and result.",
		ConstLabels: constLabels,
	}, []string{"operation", "result"})

	registerer.MustRegister(duration, calls)

	return &DAOMetrics{duration: duration, calls: calls}
}

// Observe records the elapsed time since start. errp may be nil.
func (m *DAOMetrics) Observe(ctx context.Context, operation string, start time.Time, errp *error) {
	if m == nil {
		return
	}
	operation = strings.TrimSpace(operation)
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	result := DAOResultOK
	if errp != nil && *errp != nil {
		result = DAOResultError
		if errors.Is(*errp, context.Canceled) || errors.Is(*errp, context.DeadlineExceeded) {
			result = DAOResultCanceled
		}
	}
	m.calls.WithLabelValues(operation, result).Inc()
}
