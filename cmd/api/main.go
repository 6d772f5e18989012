package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghodss/yaml"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"

	dockwatch "github.com/dockwatch/dockwatch"
	"github.com/dockwatch/dockwatch/cmd/api/api"
	"github.com/dockwatch/dockwatch/cmd/api/config"
	"github.com/dockwatch/dockwatch/lib/logger"
	"github.com/dockwatch/dockwatch/lib/middleware"
	"github.com/dockwatch/dockwatch/lib/otel"
	"github.com/dockwatch/dockwatch/lib/stream"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application terminated", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logCfg := logger.NewConfig()
	log := logger.NewSubsystemLogger(logger.SubsystemAPI, logCfg, nil)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	meter, shutdownMetrics, err := setupMetrics(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup metrics: %w", err)
	}

	streamMetrics, err := otel.NewStreamMetrics(meter)
	if err != nil {
		return fmt.Errorf("create stream metrics: %w", err)
	}
	exportMetrics, err := otel.NewExportMetrics(meter)
	if err != nil {
		return fmt.Errorf("create export metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(meter)
	if err != nil {
		return fmt.Errorf("create http metrics: %w", err)
	}

	service := api.New(cfg, stream.New(streamMetrics), exportMetrics)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(otelchi.Middleware("dockwatch", otelchi.WithChiRoutes(r)))
	r.Use(httpMetrics.Middleware)
	r.Use(middleware.InjectLogger(log))
	r.Use(middleware.AccessLogger(log))
	if cfg.JwtSecret != "" {
		r.Use(middleware.VerifyJWT(cfg.JwtSecret))
	}

	r.Get("/spec.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.oai.openapi")
		w.Write(dockwatch.OpenAPIYAML)
	})
	r.Get("/spec.json", func(w http.ResponseWriter, r *http.Request) {
		jsonData, err := yaml.YAMLToJSON(dockwatch.OpenAPIYAML)
		if err != nil {
			http.Error(w, "Failed to convert YAML to JSON", http.StatusInternalServerError)
			log.ErrorContext(r.Context(), "Failed to convert YAML to JSON", "error", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(jsonData)
	})

	r.Mount("/", service.Routes())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		log.Info("starting API server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
			return err
		}
		return nil
	})

	grp.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown http server", "error", err)
			return err
		}
		if shutdownMetrics != nil {
			if err := shutdownMetrics(shutdownCtx); err != nil {
				log.Error("failed to shutdown metrics exporter", "error", err)
			}
		}

		log.Info("http server shutdown complete")
		return nil
	})

	return grp.Wait()
}

// setupMetrics builds an OTLP meter provider when an endpoint is configured,
// otherwise a noop meter so metric call sites stay unconditional.
func setupMetrics(ctx context.Context, cfg *config.Config) (metric.Meter, func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return noop.NewMeterProvider().Meter("dockwatch"), nil, nil
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	return provider.Meter("dockwatch"), provider.Shutdown, nil
}
