package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/config"
	"github.com/jmylchreest/supervideo/internal/database"
	"github.com/jmylchreest/supervideo/internal/embed"
	"github.com/jmylchreest/supervideo/internal/http/handlers"
	"github.com/jmylchreest/supervideo/internal/observability"
	"github.com/jmylchreest/supervideo/internal/render"
	"github.com/jmylchreest/supervideo/internal/repository"
	"github.com/jmylchreest/supervideo/internal/service"
	"github.com/jmylchreest/supervideo/internal/urlutil"
	"github.com/jmylchreest/supervideo/internal/version"
	"github.com/jmylchreest/supervideo/pkg/httpclient"
)

// probeBreakerName is the circuit breaker shared by manifest fetches.
const probeBreakerName = "hls-probe"

// loaderURL is the player loader emitted ahead of queued script calls.
const loaderURL = handlers.StaticPrefix + "player.js"

// application holds the services shared by the serve, embed and views
// commands.
type application struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *database.DB
	views  *service.ViewService
	embeds *service.EmbedService
	probes *service.ProbeService
}

// newApplication opens and migrates the database and builds every service.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := database.New(cfg.Database, logger, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	views := service.NewViewService(repository.NewViewRepository(db.DB)).
		WithLogger(observability.WithComponent(logger, "views"))

	embeds, err := newEmbedService(cfg, views, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &application{
		cfg:    cfg,
		logger: logger,
		db:     db,
		views:  views,
		embeds: embeds,
		probes: newProbeService(cfg, logger),
	}, nil
}

// Close releases the database connection.
func (a *application) Close() error {
	return a.db.Close()
}

func newClassifier(cfg *config.Config) *classifier.Classifier {
	return classifier.New(classifier.WithStrict(cfg.Classifier.Strict))
}

func newEmbedService(cfg *config.Config, views service.ViewStore, logger *slog.Logger) (*service.EmbedService, error) {
	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	renderer = renderer.WithLogger(observability.WithComponent(logger, "render"))
	if cfg.Templates.Dir != "" {
		renderer = renderer.WithOverrides(afero.NewOsFs(), cfg.Templates.Dir)
	}

	return service.NewEmbedService(newClassifier(cfg), embed.NewSelector(cfg), renderer, views).
		WithLogger(observability.WithComponent(logger, "embed")).
		WithLoaderURL(loaderURL), nil
}

func newProbeService(cfg *config.Config, logger *slog.Logger) *service.ProbeService {
	logger = observability.WithComponent(logger, "probe")
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.Probe.Timeout
	httpCfg.RetryAttempts = cfg.Probe.RetryAttempts
	httpCfg.MaxResponseSize = cfg.Probe.MaxManifestSize.Int64()
	httpCfg.UserAgent = cfg.Probe.UserAgent
	if httpCfg.UserAgent == "" {
		httpCfg.UserAgent = version.UserAgent()
	}
	httpCfg.Logger = logger

	fetcher := urlutil.NewResourceFetcher(httpCfg, probeBreakerName)
	return service.NewProbeService(fetcher).
		WithLogger(logger).
		WithTimeout(cfg.Probe.Timeout).
		WithMaxManifestSize(cfg.Probe.MaxManifestSize.Int64()).
		WithEnabled(cfg.Probe.Enabled)
}
