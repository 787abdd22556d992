package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// ShutdownFunc releases telemetry resources.
type ShutdownFunc func(ctx context.Context) error

// Setup initializes OpenTelemetry with a Prometheus exporter.
// Returns a shutdown function that must be called on exit.
func Setup(ctx context.Context, serviceName string) (ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Metrics holds the OTel instruments recorded by the HTTP layer.
type Metrics struct {
	httpRequestsTotal       otelmetric.Int64Counter
	httpRequestDuration     otelmetric.Float64Histogram
	failuresTotal           otelmetric.Int64Counter
	tokensIssuedTotal       otelmetric.Int64Counter
	authValidationsTotal    otelmetric.Int64Counter
	rateLimitDecisionsTotal otelmetric.Int64Counter
}

// NewMetrics creates and registers all instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("webcore")
	m := &Metrics{}
	var err error

	latencyBuckets := otelmetric.WithExplicitBucketBoundaries(
		0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
	)

	if m.httpRequestsTotal, err = meter.Int64Counter("webcore_http_requests_total",
		otelmetric.WithDescription("Total HTTP requests")); err != nil {
		return nil, fmt.Errorf("creating http_requests_total: %w", err)
	}
	if m.httpRequestDuration, err = meter.Float64Histogram("webcore_http_request_duration_seconds",
		otelmetric.WithDescription("HTTP request duration"), latencyBuckets); err != nil {
		return nil, fmt.Errorf("creating http_request_duration: %w", err)
	}
	if m.failuresTotal, err = meter.Int64Counter("webcore_failures_total",
		otelmetric.WithDescription("Failures translated into error responses")); err != nil {
		return nil, fmt.Errorf("creating failures_total: %w", err)
	}
	if m.tokensIssuedTotal, err = meter.Int64Counter("webcore_tokens_issued_total",
		otelmetric.WithDescription("Total access tokens issued")); err != nil {
		return nil, fmt.Errorf("creating tokens_issued_total: %w", err)
	}
	if m.authValidationsTotal, err = meter.Int64Counter("webcore_auth_validations_total",
		otelmetric.WithDescription("Total auth validations")); err != nil {
		return nil, fmt.Errorf("creating auth_validations_total: %w", err)
	}
	if m.rateLimitDecisionsTotal, err = meter.Int64Counter("webcore_ratelimit_decisions_total",
		otelmetric.WithDescription("Total rate limit decisions")); err != nil {
		return nil, fmt.Errorf("creating ratelimit_decisions_total: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request metric.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, durationSec float64) {
	attrs := otelmetric.WithAttributes(
		methodAttr(method),
		routeAttr(route),
		statusAttr(status),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, durationSec, attrs)
}

// RecordFailure records one translated failure.
func (m *Metrics) RecordFailure(ctx context.Context, kind string, status, errorCode int) {
	m.failuresTotal.Add(ctx, 1, otelmetric.WithAttributes(
		kindAttr(kind),
		statusAttr(status),
		errorCodeAttr(errorCode),
	))
}

// RecordTokenIssued records a token issuance. subject is "none", "int" or "uuid".
func (m *Metrics) RecordTokenIssued(ctx context.Context, subject string) {
	m.tokensIssuedTotal.Add(ctx, 1, otelmetric.WithAttributes(subjectAttr(subject)))
}

// RecordAuthValidation records an auth validation result.
func (m *Metrics) RecordAuthValidation(ctx context.Context, result string) {
	m.authValidationsTotal.Add(ctx, 1, otelmetric.WithAttributes(resultAttr(result)))
}

// RecordRateLimitDecision records a rate limit decision.
func (m *Metrics) RecordRateLimitDecision(ctx context.Context, result string) {
	m.rateLimitDecisionsTotal.Add(ctx, 1, otelmetric.WithAttributes(resultAttr(result)))
}
