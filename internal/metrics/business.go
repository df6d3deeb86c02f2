package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric domains recorded by the use case decorators.
const (
	DomainWallets  = "wallets"
	DomainIssuance = "issuance"
	DomainSummary  = "summary"
)

// Operation outcomes.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// durationBuckets covers a single JSON-LD canonicalisation (milliseconds) up to
// a wallet creation that signs and stores several credentials (seconds).
var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// BusinessMetrics records wallet, issuance and summary operations.
type BusinessMetrics interface {
	// RecordOperation counts one operation of domain with the given status.
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration records how long one operation took, in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)
}

// StatusOf maps an operation error to its status label.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// Observe records both the count and the duration of an operation started at start.
func Observe(ctx context.Context, m BusinessMetrics, domain, operation string, start time.Time, err error) {
	status := StatusOf(err)
	m.RecordOperation(ctx, domain, operation, status)
	m.RecordDuration(ctx, domain, operation, time.Since(start), status)
}

type businessMetrics struct {
	operations metric.Int64Counter
	durations  metric.Float64Histogram
}

// NewBusinessMetrics registers the operation counter and duration histogram on
// meterProvider, prefixing both names with namespace.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Wallet, issuance and summary operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Wallet, issuance and summary operation latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &businessMetrics{operations: operations, durations: durations}, nil
}

func operationAttributes(domain, operation, status string) metric.MeasurementOption {
	return metric.WithAttributeSet(attribute.NewSet(
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operations.Add(ctx, 1, operationAttributes(domain, operation, status))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durations.Record(ctx, duration.Seconds(), operationAttributes(domain, operation, status))
}

// NoOpBusinessMetrics discards everything; used when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics returns a BusinessMetrics that records nothing.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return NoOpBusinessMetrics{}
}

func (NoOpBusinessMetrics) RecordOperation(context.Context, string, string, string) {}

func (NoOpBusinessMetrics) RecordDuration(context.Context, string, string, time.Duration, string) {}
