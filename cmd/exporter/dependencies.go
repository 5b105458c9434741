package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coursetutor/backend/internal/config"
	"github.com/coursetutor/backend/internal/metrics"
	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/workers"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/fx"

	_ "github.com/coursetutor/backend/internal/deps/logger"
)

func ExporterConfig() (config.ExporterConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("error loading .env file", "error", err)
	}

	cfg, err := config.LoadExporterConfig()
	if err != nil {
		return config.ExporterConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return config.ExporterConfig{}, err
	}

	return cfg, nil
}

func OTelConfig(cfg config.ExporterConfig) config.OTelConfig {
	return cfg.OTel
}

// Store opens the database read by the collectors. The exporter does
// not migrate it.
func Store(lifecycle fx.Lifecycle, cfg config.ExporterConfig) (*store.Store, error) {
	s, err := store.Open(context.Background(), cfg.Database)
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.StopHook(s.Close))

	return s, nil
}

func PrometheusMetrics(s *store.Store) prometheus.Gatherer {
	registry := prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		metrics.NewCourseCollector(s),
		metrics.NewAttemptCollector(s),
		metrics.NewEnrollmentCollector(s),
		metrics.NewEventCollector(s),
	)

	return registry
}

func PrometheusHTTPHandler(cfg config.ExporterConfig, gatherer prometheus.Gatherer, lifecycle fx.Lifecycle) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", otelhttp.NewHandler(promhttp.HandlerFor(
		gatherer,
		promhttp.HandlerOpts{
			MaxRequestsInFlight:                 100,
			Timeout:                             10 * time.Second,
			EnableOpenMetrics:                   true,
			EnableOpenMetricsTextCreatedSamples: true,
		},
	), "metrics"))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			workers.Global.Go(func() {
				slog.Info("prometheus http handler starting", "address", srv.Addr)
				if err := srv.ListenAndServe(); err != nil {
					if errors.Is(err, http.ErrServerClosed) {
						return
					}

					slog.Error("error starting prometheus http handler", "error", err)
				}
			})

			return nil
		},
		OnStop: func(ctx context.Context) error {
			slog.Info("prometheus http handler shutting down")
			if err := srv.Shutdown(ctx); err != nil {
				slog.Error("error shutting down prometheus http handler", "error", err)
			}
			workers.Global.Wait()

			return nil
		},
	})
}
