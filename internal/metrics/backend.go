package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/vecsearch/internal/domain"
)

// Backend Prometheus metrics, recorded by the server around every storage call.
var (
	BackendOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecsearch",
			Subsystem: "backend",
			Name:      "operations_total",
			Help:      "Total backend operations by type and status code",
		},
		[]string{"operation", "status"},
	)

	BackendOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecsearch",
			Subsystem: "backend",
			Name:      "operation_duration_seconds",
			Help:      "Backend operation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	RowsInsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vecsearch",
			Name:      "rows_inserted_total",
			Help:      "Total vectors accepted by insert",
		},
	)

	SearchQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vecsearch",
			Name:      "search_queries_total",
			Help:      "Total query vectors answered by search",
		},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestDuration,
		httpRequestsTotal,
		httpRequestsInFlight,
		httpResponseSize,
		BackendOperationsTotal,
		BackendOperationDuration,
		RowsInsertedTotal,
		SearchQueriesTotal,
	}
}

// Register adds every server metric to reg. Collectors that are already
// registered are skipped, so calling it twice is harmless.
func Register(reg prometheus.Registerer) error {
	var errs []error
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	return nil
}

// ObserveBackend records one backend call. The status label is the status
// code name, "SUCCESS" when err is nil.
func ObserveBackend(op string, start time.Time, err error) {
	code := domain.StatusSuccess
	if se := domain.AsStatus(err); se != nil {
		code = se.Code
	}
	BackendOperationsTotal.WithLabelValues(op, code.String()).Inc()
	BackendOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
