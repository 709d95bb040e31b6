package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// telemetry owns the meter provider and the optional /metrics listener.
type telemetry struct {
	provider *sdkmetric.MeterProvider
	server   *http.Server
}

// setupMetrics installs an OpenTelemetry meter provider backed by a
// Prometheus registry. Without addr the global no-op provider stays in place.
func setupMetrics(addr string) (*telemetry, error) {
	if addr == "" {
		return &telemetry{}, nil
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &telemetry{
		provider: provider,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (t *telemetry) meter() metric.Meter {
	if t.provider == nil {
		return otel.Meter(amap.MeterName)
	}
	return t.provider.Meter(amap.MeterName)
}

// serve runs the metrics listener until ctx ends.
func (t *telemetry) serve(ctx context.Context, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", t.server.Addr)
		errCh <- t.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(shutdownCtx)
	}
}

func (t *telemetry) shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
