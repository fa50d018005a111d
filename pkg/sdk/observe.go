package sitekit

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domcompletion "github.com/kailas-cloud/sitekit/internal/domain/completion"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitekit",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type and status (ok, partial, a completion failure kind or a domain error).",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sitekit",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("sitekit: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("sitekit: register metric: %w", err)
	}
	return nil
}

// Operation statuses beyond the completion failure kinds.
const (
	statusOK              = "ok"
	statusPartial         = "partial"
	statusNotFound        = "not_found"
	statusInvalidItem     = "invalid_item"
	statusBatchTooLarge   = "batch_too_large"
	statusUnknownCategory = "unknown_category"
	statusError           = "error"
)

// statusOf labels an operation error. Completion failures keep their kind
// (secret, transport, decode, upstream, no_choices).
func statusOf(err error) string {
	if err == nil {
		return statusOK
	}
	var ce *domcompletion.Error
	switch {
	case errors.As(err, &ce):
		return string(ce.Kind)
	case errors.Is(err, ErrSecretNotFound):
		return string(domcompletion.KindSecret)
	case errors.Is(err, ErrNotFound):
		return statusNotFound
	case errors.Is(err, ErrInvalidItem):
		return statusInvalidItem
	case errors.Is(err, ErrBatchTooLarge):
		return statusBatchTooLarge
	case errors.Is(err, ErrUnknownCategory):
		return statusUnknownCategory
	default:
		return statusError
	}
}

// observer records SDK operations as metrics and slog lines.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// observe records op with the status derived from err.
func (o *observer) observe(op string, start time.Time, err error) {
	o.record(op, start, statusOf(err), err)
}

func (o *observer) record(op string, start time.Time, status string, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}

	switch status {
	case statusOK:
		o.logger.Debug("sitekit operation", "op", op, "duration", dur)
	case statusPartial, statusNotFound, statusUnknownCategory, string(domcompletion.KindNoChoices):
		o.logger.Info("sitekit operation", "op", op, "status", status, "duration", dur, "error", err)
	default:
		o.logger.Warn("sitekit operation failed", "op", op, "status", status, "duration", dur, "error", err)
	}
}
