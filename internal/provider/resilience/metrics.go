package resilience

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/droproute/droproute/internal/provider/resilience"

// Request outcomes recorded on provider metrics.
const (
	outcomeOK          = "ok"
	outcomeServerError = "server_error"
	outcomeCircuitOpen = "circuit_open"
	outcomeError       = "error"
)

// requestMetrics records one measurement per provider call, after retries.
type requestMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

func newRequestMetrics() (*requestMetrics, error) {
	meter := otel.Meter(meterName)

	duration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &requestMetrics{duration: duration, total: total}, nil
}

// record uses a detached context so a canceled request still gets counted.
func (m *requestMetrics) record(provider, operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.String("outcome", outcome),
	)
	ctx := context.Background()
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	m.total.Add(ctx, 1, attrs)
}

func outcomeOf(err error, serverError bool) string {
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return outcomeCircuitOpen
	case serverError:
		return outcomeServerError
	case err != nil:
		return outcomeError
	default:
		return outcomeOK
	}
}
