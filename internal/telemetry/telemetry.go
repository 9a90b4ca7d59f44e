// Package telemetry configures the OpenTelemetry trace, metric, and log
// pipelines from process-wide configuration. Each signal is set up only when
// its OTLP endpoint is configured; traces can fall back to a pretty-printed
// stdout exporter for development.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Metrics are pushed to the collector on this interval.
const metricExportInterval = 30 * time.Second

// Config selects which signals to export and where.
type Config struct {
	ServiceName      string
	ServiceNamespace string
	ServiceVersion   string

	// OTLP gRPC endpoints (host:port). Empty skips the signal.
	TracesEndpoint  string
	MetricsEndpoint string
	LogsEndpoint    string

	// StdoutTraces enables the stdout span exporter when TracesEndpoint is
	// empty. Development only.
	StdoutTraces bool
}

// ShutdownFunc flushes and stops every provider Init configured.
type ShutdownFunc func(context.Context) error

// Init installs the global tracer, meter, and logger providers plus the W3C
// trace-context propagator, and returns a single shutdown function.
func Init(ctx context.Context, cfg Config, logger *slog.Logger) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceNamespace(cfg.ServiceNamespace),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	var shutdowns []ShutdownFunc

	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	tracing, err := setupTracing(ctx, cfg, res, logger)
	if err != nil {
		return nil, err
	}
	if tracing != nil {
		shutdowns = append(shutdowns, tracing)
	}

	metrics, err := setupMetrics(ctx, cfg, res, logger)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	if metrics != nil {
		shutdowns = append(shutdowns, metrics)
	}

	logs, err := setupLogs(ctx, cfg, res, logger)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	if logs != nil {
		shutdowns = append(shutdowns, logs)
	}

	logger.Info("OpenTelemetry initialized", slog.String("service", cfg.ServiceName))
	return shutdown, nil
}

func setupTracing(ctx context.Context, cfg Config, res *resource.Resource, logger *slog.Logger) (ShutdownFunc, error) {
	var exporter sdktrace.SpanExporter
	switch {
	case cfg.TracesEndpoint != "":
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.TracesEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, err
		}
		exporter = exp
		logger.Info("tracing configured", slog.String("endpoint", cfg.TracesEndpoint))
	case cfg.StdoutTraces:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		exporter = exp
		logger.Info("tracing configured with stdout exporter")
	default:
		logger.Info("traces endpoint not set, skipping trace setup")
		return nil, nil
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func setupMetrics(ctx context.Context, cfg Config, res *resource.Resource, logger *slog.Logger) (ShutdownFunc, error) {
	if cfg.MetricsEndpoint == "" {
		logger.Info("metrics endpoint not set, skipping metrics setup")
		return nil, nil
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.MetricsEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(metricExportInterval))),
	)
	otel.SetMeterProvider(mp)
	logger.Info("metrics configured", slog.String("endpoint", cfg.MetricsEndpoint))
	return mp.Shutdown, nil
}

func setupLogs(ctx context.Context, cfg Config, res *resource.Resource, logger *slog.Logger) (ShutdownFunc, error) {
	if cfg.LogsEndpoint == "" {
		logger.Info("logs endpoint not set, skipping logs setup")
		return nil, nil
	}

	exporter, err := otlploggrpc.New(ctx,
		otlploggrpc.WithEndpoint(cfg.LogsEndpoint),
		otlploggrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(lp)
	logger.Info("logs configured", slog.String("endpoint", cfg.LogsEndpoint))
	return lp.Shutdown, nil
}
