package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/mpapenbr/racecoach/log"
	"github.com/mpapenbr/racecoach/version"
)

// TelemetryStdout as endpoint writes the metrics to stdout
const TelemetryStdout = "stdout"

type Telemetry struct {
	ctx      context.Context
	provider *sdkmetric.MeterProvider
}

// Shutdown flushes pending metrics
func (t *Telemetry) Shutdown() {
	ctx, cancel := context.WithTimeout(t.ctx, 5*time.Second)
	defer cancel()
	if err := t.provider.Shutdown(ctx); err != nil {
		log.Warn("could not shutdown meter provider", log.ErrorField(err))
	}
}

// SetupTelemetry installs a global meter provider which exports to
// TelemetryEndpoint.
func SetupTelemetry(ctx context.Context) (*Telemetry, error) {
	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", "rcoach"),
			attribute.String("service.version", version.Version),
		))
	if err != nil && !errors.Is(err, resource.ErrSchemaURLConflict) {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}
	exp, err := newExporter(ctx, TelemetryEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp,
			sdkmetric.WithInterval(10*time.Second))),
	)
	otel.SetMeterProvider(provider)
	return &Telemetry{ctx: ctx, provider: provider}, nil
}

func newExporter(ctx context.Context, endpoint string) (sdkmetric.Exporter, error) {
	if endpoint == TelemetryStdout {
		return stdoutmetric.New()
	}
	return otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
}
