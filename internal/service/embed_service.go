package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/embed"
	"github.com/jmylchreest/supervideo/internal/models"
	"github.com/jmylchreest/supervideo/internal/render"
	"github.com/jmylchreest/supervideo/internal/urlutil"
)

// EmbedResult is everything a host page needs to show one player.
type EmbedResult struct {
	Classification classifier.Result `json:"classification"`
	Spec           embed.Spec        `json:"spec"`
	View           *models.View      `json:"view"`
	HTML           string            `json:"html"`
	Scripts        string            `json:"scripts"`
}

// EmbedService classifies a URL, resolves its view record and renders the
// player markup.
type EmbedService struct {
	classifier *classifier.Classifier
	selector   *embed.Selector
	renderer   render.TemplateRenderer
	views      ViewStore
	loaderURL  string
	logger     *slog.Logger
}

// NewEmbedService creates a new embed service.
func NewEmbedService(c *classifier.Classifier, sel *embed.Selector, r render.TemplateRenderer, views ViewStore) *EmbedService {
	return &EmbedService{
		classifier: c,
		selector:   sel,
		renderer:   r,
		views:      views,
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *EmbedService) WithLogger(logger *slog.Logger) *EmbedService {
	s.logger = logger
	return s
}

// WithLoaderURL sets the script emitted ahead of queued player calls.
func (s *EmbedService) WithLoaderURL(u string) *EmbedService {
	s.loaderURL = u
	return s
}

// Classify classifies a single URL.
func (s *EmbedService) Classify(rawURL string) classifier.Result {
	return s.classifier.Classify(rawURL)
}

// ClassifyAll classifies urls in order.
func (s *EmbedService) ClassifyAll(urls []string) []classifier.Result {
	return s.classifier.ClassifyAll(urls)
}

// SupportedURLs returns the urls some rule claims, in input order.
func (s *EmbedService) SupportedURLs(urls []string) []string {
	return s.classifier.SupportedURLs(urls)
}

// Capabilities describes this handler to a host.
func (s *EmbedService) Capabilities() embed.Capabilities {
	return embed.DescribeCapabilities(s.classifier)
}

// Embed renders the player for rawURL with a fresh script collector.
func (s *EmbedService) Embed(ctx context.Context, rawURL string) (*EmbedResult, error) {
	loader := render.NewCollector(s.loaderURL)
	result, err := s.EmbedWith(ctx, rawURL, loader)
	if err != nil {
		return nil, err
	}

	scripts, err := loader.Scripts()
	if err != nil {
		return nil, fmt.Errorf("rendering scripts: %w", err)
	}
	result.Scripts = scripts
	return result, nil
}

// EmbedWith renders the player for rawURL and queues its script call on
// loader, so several players can share one page.
func (s *EmbedService) EmbedWith(ctx context.Context, rawURL string, loader render.ScriptLoader) (*EmbedResult, error) {
	res := s.classifier.Classify(rawURL)
	if !res.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, urlutil.RedactQuery(rawURL))
	}
	// Players fetch over http(s); path rules alone also claim other schemes.
	if err := urlutil.ValidateMediaURL(res.URL); err != nil {
		return nil, fmt.Errorf("%w: %s is not an http(s) URL", ErrUnsupportedURL, urlutil.RedactQuery(rawURL))
	}

	view, err := s.views.GetOrCreate(ctx, res.URL, res.Kind)
	if err != nil {
		return nil, err
	}

	spec := s.selector.Select(res, embed.ViewState{
		ID:          view.ID.String(),
		CurrentTime: view.CurrentTime,
		Mapa:        []byte(view.Mapa),
	})

	html, err := render.RenderSpec(s.renderer, loader, spec)
	if err != nil {
		return nil, fmt.Errorf("rendering embed: %w", err)
	}

	s.logger.DebugContext(ctx, "embed rendered",
		slog.String("url", res.URL),
		slog.String("kind", res.Kind.String()),
		slog.String("rule", res.Rule),
		slog.String("view_id", view.ID.String()),
	)

	return &EmbedResult{
		Classification: res,
		Spec:           spec,
		View:           view,
		HTML:           html,
	}, nil
}
