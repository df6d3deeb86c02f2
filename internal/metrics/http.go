package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// unmatchedRoute labels requests that matched no registered route, so probing
// random wallet ids cannot grow label cardinality.
const unmatchedRoute = "unmatched"

type httpInstruments struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter, namespace string) (*httpInstruments, error) {
	requests, err := meter.Int64Counter(
		fmt.Sprintf("%s_http_requests_total", namespace),
		metric.WithDescription("HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		fmt.Sprintf("%s_http_request_duration_seconds", namespace),
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter(
		fmt.Sprintf("%s_http_requests_in_flight", namespace),
		metric.WithDescription("HTTP requests currently being served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	return &httpInstruments{requests: requests, latency: latency, inFlight: inFlight}, nil
}

// HTTPMetricsMiddleware counts requests and records their latency labelled by
// method, route pattern and status code. When the instruments cannot be
// created the middleware passes requests through untouched.
func HTTPMetricsMiddleware(meterProvider metric.MeterProvider, namespace string) gin.HandlerFunc {
	instruments, err := newHTTPInstruments(meterProvider.Meter(namespace), namespace)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		instruments.inFlight.Add(ctx, 1)

		c.Next()

		instruments.inFlight.Add(ctx, -1)
		attrs := metric.WithAttributeSet(attribute.NewSet(
			attribute.String("method", c.Request.Method),
			attribute.String("route", routeLabel(c.FullPath())),
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		))
		instruments.requests.Add(ctx, 1, attrs)
		instruments.latency.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

func routeLabel(fullPath string) string {
	if fullPath == "" {
		return unmatchedRoute
	}
	return fullPath
}
