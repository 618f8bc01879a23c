package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/vfsprovider/internal/demofs"
	"github.com/marmos91/vfsprovider/internal/logger"
	"github.com/marmos91/vfsprovider/internal/telemetry"
	"github.com/marmos91/vfsprovider/pkg/config"
	"github.com/marmos91/vfsprovider/pkg/metrics"
	"github.com/marmos91/vfsprovider/pkg/metrics/prometheus"
	"github.com/marmos91/vfsprovider/pkg/vfsprovider"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the coordinator against an in-memory demo provider",
	Long: `Run starts the request coordinator wired to a small in-memory
demo filesystem: it mounts a file system, walks its one directory,
opens and reads its one file, closes the handle, and unmounts. The
directory, open, read and close requests go through the coordinator
end to end; no GetMetadata or Abort request is issued.

This is a demonstration harness, not a production server: real
deployments wire vfsprovider.Provider to a native mount/unmount service
and a scripted event consumer instead.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	logger.Info("vfsproviderd starting", "configSource", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sampleRate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("telemetry disabled")
	}

	providerMetrics := setupMetrics(cfg)

	loop := vfsprovider.NewSerialTaskLoop(cfg.Coordinator.QueueSize)
	defer loop.Stop()

	service := demofs.New()
	provider := vfsprovider.NewProvider(service, loop, providerMetrics)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	demoDone := make(chan error, 1)
	go func() {
		demoDone <- runDemoSequence(provider)
	}()

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
		provider.Destroy()
		return nil
	case err := <-demoDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("demo sequence failed", "error", err)
			return err
		}
		logger.Info("demo sequence completed successfully")
		return nil
	}
}

// setupMetrics initializes the process-wide Prometheus registry and
// serves it over HTTP when metrics are enabled, returning nil (zero
// overhead) otherwise.
func setupMetrics(cfg *config.Config) metrics.ProviderMetrics {
	if !cfg.Metrics.Enabled {
		logger.Info("metrics collection disabled")
		return nil
	}

	metrics.InitRegistry()
	providerMetrics := prometheus.NewProviderMetrics()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	logger.Info("metrics enabled", "port", cfg.Metrics.Port)

	return providerMetrics
}
