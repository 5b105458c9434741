package deps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coursetutor/backend/internal/config"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/fx"
)

// OTelSDK sets up the global tracer and logger providers. With the
// "none" exporter nothing is installed and the spans are dropped.
//
// When a log exporter is installed, the default slog logger is replaced
// by the otelslog bridge.
func OTelSDK(lifecycle fx.Lifecycle, cfg config.OTelConfig) error {
	if cfg.Exporter == config.OTelExporterNone {
		return nil
	}

	ctx := context.Background()

	spanExporter, logExporter, err := newOTelExporters(ctx, cfg.Exporter)
	if err != nil {
		return err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return fmt.Errorf("create otel resource: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(loggerProvider)
	slog.SetDefault(otelslog.NewLogger(cfg.ServiceName, otelslog.WithLoggerProvider(loggerProvider)))

	lifecycle.Append(fx.StopHook(func(ctx context.Context) error {
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			loggerProvider.Shutdown(ctx),
		)
	}))

	return nil
}

func newOTelExporters(ctx context.Context, exporter string) (sdktrace.SpanExporter, sdklog.Exporter, error) {
	var (
		spanExporter sdktrace.SpanExporter
		logExporter  sdklog.Exporter
		err          error
	)

	switch exporter {
	case config.OTelExporterStdout:
		if spanExporter, err = stdouttrace.New(); err != nil {
			return nil, nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		if logExporter, err = stdoutlog.New(); err != nil {
			return nil, nil, fmt.Errorf("create stdout log exporter: %w", err)
		}
	case config.OTelExporterOTLPHTTP:
		if spanExporter, err = otlptracehttp.New(ctx); err != nil {
			return nil, nil, fmt.Errorf("create otlp http trace exporter: %w", err)
		}
		if logExporter, err = otlploghttp.New(ctx); err != nil {
			return nil, nil, fmt.Errorf("create otlp http log exporter: %w", err)
		}
	case config.OTelExporterOTLPGRPC:
		if spanExporter, err = otlptracegrpc.New(ctx); err != nil {
			return nil, nil, fmt.Errorf("create otlp grpc trace exporter: %w", err)
		}
		if logExporter, err = otlploggrpc.New(ctx); err != nil {
			return nil, nil, fmt.Errorf("create otlp grpc log exporter: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported otel exporter %q", exporter)
	}

	return spanExporter, logExporter, nil
}
