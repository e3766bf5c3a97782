// Package telemetry wires OpenTelemetry tracing and metrics into redline.
//
// Telemetry is off unless telemetry.enabled is set (RL_TELEMETRY_ENABLED or
// RL_OTEL_ENABLED). When on, every storage call gets a span and is counted
// under rl.storage.*. Spans are only written to the stdout exporter; metrics
// go to the stdout exporter, an OTLP/HTTP endpoint, or both.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/steveyegge/redline/internal/storage"
)

// Settings selects what Init turns on.
type Settings struct {
	Enabled bool
	// Stdout writes spans and metrics to Output in readable form.
	Stdout bool
	// Endpoint is an OTLP/HTTP metrics endpoint: a full URL, or host:port
	// spoken to over plain HTTP.
	Endpoint string
	// Output receives the stdout exporters; nil means stderr so command
	// output stays clean.
	Output io.Writer
}

// Provider owns the tracer and meter providers built by Init. A Provider
// for disabled settings does nothing, and so does a nil *Provider.
type Provider struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// Init builds providers for s and installs them as the OTel globals.
func Init(ctx context.Context, s Settings, serviceName, version string) (*Provider, error) {
	if !s.Enabled {
		return &Provider{}, nil
	}
	if s.Output == nil {
		s.Output = os.Stderr
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	metricOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if s.Stdout {
		spans, err := stdouttrace.New(stdouttrace.WithWriter(s.Output), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdout span exporter: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(spans))

		metrics, err := stdoutmetric.New(stdoutmetric.WithWriter(s.Output))
		if err != nil {
			return nil, fmt.Errorf("stdout metric exporter: %w", err)
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metrics, sdkmetric.WithInterval(15*time.Second))))
	}

	if s.Endpoint != "" {
		exp, err := otlpMetricExporter(ctx, s.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(30*time.Second))))
	}

	p := &Provider{
		tp: sdktrace.NewTracerProvider(traceOpts...),
		mp: sdkmetric.NewMeterProvider(metricOpts...),
	}
	otel.SetTracerProvider(p.tp)
	otel.SetMeterProvider(p.mp)
	return p, nil
}

func otlpMetricExporter(ctx context.Context, endpoint string) (sdkmetric.Exporter, error) {
	if strings.Contains(endpoint, "://") {
		return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(endpoint))
	}
	return otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(endpoint),
		otlpmetrichttp.WithInsecure(),
	)
}

// Enabled reports whether p records anything.
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// WrapStorage instruments store, or returns it unchanged when p is
// disabled.
func (p *Provider) WrapStorage(store storage.Storage) storage.Storage {
	if !p.Enabled() {
		return store
	}
	return newInstrumented(store, p.mp.Meter(storageScopeName), p.tp.Tracer(storageScopeName))
}

// Shutdown flushes pending spans and metrics. Call it once, before exit.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	err := errors.Join(p.tp.Shutdown(ctx), p.mp.Shutdown(ctx))
	p.tp, p.mp = nil, nil
	return err
}
