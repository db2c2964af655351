package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	internalhttp "github.com/jmylchreest/supervideo/internal/http"
	"github.com/jmylchreest/supervideo/internal/http/handlers"
	"github.com/jmylchreest/supervideo/internal/observability"
	"github.com/jmylchreest/supervideo/internal/scheduler"
	"github.com/jmylchreest/supervideo/internal/version"
	"github.com/jmylchreest/supervideo/pkg/httpclient"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the supervideo server",
	Long: `Start the supervideo HTTP server and API.

The server provides:
- URL classification and player embed endpoints
- View record and playback progress endpoints
- HLS manifest probing
- Health checks at /health, /livez and /readyz
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("database", "supervideo.db", "Database DSN")
	serveCmd.Flags().Bool("strict", false, "Only accept URLs matched by a media rule")

	mustBindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	mustBindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	mustBindPFlag("database.dsn", serveCmd.Flags().Lookup("database"))
	mustBindPFlag("classifier.strict", serveCmd.Flags().Lookup("strict"))
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := slog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			observability.WithError(logger, err).Warn("closing database")
		}
	}()

	retention, err := scheduler.NewScheduler(app.views).
		WithLogger(observability.WithComponent(logger, "scheduler")).
		WithConfig(scheduler.SchedulerConfig{
			Schedule: cfg.Retention.Schedule,
			MaxAge:   cfg.Retention.MaxAge.Duration(),
		})
	if err != nil {
		return fmt.Errorf("configuring retention: %w", err)
	}
	if err := retention.Start(ctx); err != nil {
		if !errors.Is(err, scheduler.ErrDisabled) {
			return fmt.Errorf("starting retention: %w", err)
		}
		logger.Info("view retention disabled")
	}
	defer retention.Stop()

	httpclient.DefaultManager.WithLogger(logger)

	server := internalhttp.NewServer(internalhttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     internalhttp.DefaultServerConfig().IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
	}, logger, version.Version)

	server.Register(
		handlers.NewHealthHandler(version.Version).
			WithDB(app.db).
			WithRetention(retention).
			WithCircuitBreakerManager(httpclient.DefaultManager),
		handlers.NewMediaHandler(app.embeds),
		handlers.NewViewHandler(app.views),
		handlers.NewProbeHandler(app.probes),
	)
	if err := server.MountStatic(); err != nil {
		return err
	}

	logger.Info("starting supervideo server",
		slog.String("address", cfg.Server.Address()),
		slog.String("version", version.Version),
		slog.String("database_driver", app.db.Driver()),
		slog.Bool("strict", cfg.Classifier.Strict),
		slog.Bool("probe_enabled", cfg.Probe.Enabled),
	)

	return server.ListenAndServe(ctx)
}
