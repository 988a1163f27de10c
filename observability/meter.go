package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/executionbackup/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// ProxyMetrics holds the proxy's metric instruments. A nil *ProxyMetrics
// is valid and records nothing.
type ProxyMetrics struct {
	requestTotal     metric.Int64Counter
	requestDuration  metric.Float64Histogram
	upstreamDuration metric.Float64Histogram
	fcuOutcome       metric.Int64Counter
	nodeCount        metric.Int64Gauge
}

// NewProxyMetrics creates the proxy instruments on the given meter.
func NewProxyMetrics(meter metric.Meter) (*ProxyMetrics, error) {
	requestTotal, err := meter.Int64Counter("proxy.request.total",
		metric.WithDescription("Total JSON-RPC requests routed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating proxy.request.total counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("proxy.request.duration",
		metric.WithDescription("Duration of routed requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating proxy.request.duration histogram: %w", err)
	}

	upstreamDuration, err := meter.Float64Histogram("proxy.upstream.duration",
		metric.WithDescription("Health probe round trip per node in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating proxy.upstream.duration histogram: %w", err)
	}

	fcuOutcome, err := meter.Int64Counter("proxy.fcu.outcome",
		metric.WithDescription("Consensus outcomes of fcU and newPayload aggregation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating proxy.fcu.outcome counter: %w", err)
	}

	nodeCount, err := meter.Int64Gauge("proxy.nodes",
		metric.WithDescription("Nodes per pool state after the last recheck"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating proxy.nodes gauge: %w", err)
	}

	return &ProxyMetrics{
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		upstreamDuration: upstreamDuration,
		fcuOutcome:       fcuOutcome,
		nodeCount:        nodeCount,
	}, nil
}

// RecordRequest counts one routed request and its duration.
func (m *ProxyMetrics) RecordRequest(ctx context.Context, route, method string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("rpc.method", method),
	)
	m.requestTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordProbe records a node health probe round trip.
func (m *ProxyMetrics) RecordProbe(ctx context.Context, nodeURL string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("node.url", nodeURL),
	))
}

// RecordFcuOutcome counts one consensus aggregation outcome.
func (m *ProxyMetrics) RecordFcuOutcome(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.fcuOutcome.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordNodeCounts records the pool sizes after a recheck.
func (m *ProxyMetrics) RecordNodeCounts(ctx context.Context, alive, syncing, dead int) {
	if m == nil {
		return
	}
	m.nodeCount.Record(ctx, int64(alive), metric.WithAttributes(attribute.String("state", "alive")))
	m.nodeCount.Record(ctx, int64(syncing), metric.WithAttributes(attribute.String("state", "syncing")))
	m.nodeCount.Record(ctx, int64(dead), metric.WithAttributes(attribute.String("state", "dead")))
}
