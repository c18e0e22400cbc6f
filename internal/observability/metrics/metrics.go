package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	billingReports  metric.Int64Counter
	billingRows     metric.Int64Counter
	providerSwitch  metric.Int64Counter
	versionConflict metric.Int64Counter
	rateCacheLookup metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "courier"
	}
	meter := provider.Meter(name)

	billingReports, err := meter.Int64Counter("courier_billing_reports_total")
	if err != nil {
		return nil, err
	}
	billingRows, err := meter.Int64Counter("courier_billing_report_rows_total")
	if err != nil {
		return nil, err
	}
	providerSwitch, err := meter.Int64Counter("courier_provider_switches_total")
	if err != nil {
		return nil, err
	}
	versionConflict, err := meter.Int64Counter("courier_provider_version_conflicts_total")
	if err != nil {
		return nil, err
	}
	rateCacheLookup, err := meter.Int64Counter("courier_rate_cache_lookups_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		billingReports:  billingReports,
		billingRows:     billingRows,
		providerSwitch:  providerSwitch,
		versionConflict: versionConflict,
		rateCacheLookup: rateCacheLookup,
	}, nil
}

// NewNoop returns instruments bound to a noop provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordBillingReport counts generated reports and the rows they returned.
func (m *Metrics) RecordBillingReport(ctx context.Context, report string, rows int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("report", strings.TrimSpace(report)))
	m.billingReports.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.billingRows.Add(ctx, int64(rows), metric.WithAttributes(attrs...))
}

// RecordProviderSwitch counts a change of the current provider for a channel.
func (m *Metrics) RecordProviderSwitch(ctx context.Context, notificationType, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("notification_type", strings.TrimSpace(notificationType)),
		attribute.String("provider", strings.TrimSpace(to)),
		attribute.String("previous_provider", strings.TrimSpace(from)),
	)
	m.providerSwitch.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordVersionConflict counts optimistic concurrency losses.
func (m *Metrics) RecordVersionConflict(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("provider", strings.TrimSpace(provider)))
	m.versionConflict.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateCacheLookup counts rate table cache hits and misses.
func (m *Metrics) RecordRateCacheLookup(ctx context.Context, notificationType string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	attrs := FilterAttributes(
		attribute.String("notification_type", strings.TrimSpace(notificationType)),
		attribute.String("result", result),
	)
	m.rateCacheLookup.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"report":            {},
	"notification_type": {},
	"provider":          {},
	"previous_provider": {},
	"result":            {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
// Service and user identifiers never make it onto a series.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
