package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/models"
	"github.com/jmylchreest/supervideo/internal/repository"
)

// ViewStore resolves the persistent view record for an embedded URL.
type ViewStore interface {
	GetOrCreate(ctx context.Context, url string, kind classifier.MediaKind) (*models.View, error)
}

// ViewService provides business logic for view records.
type ViewService struct {
	repo   repository.ViewRepository
	logger *slog.Logger
}

// NewViewService creates a new view service.
func NewViewService(repo repository.ViewRepository) *ViewService {
	return &ViewService{
		repo:   repo,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *ViewService) WithLogger(logger *slog.Logger) *ViewService {
	s.logger = logger
	return s
}

// GetOrCreate returns the view for url and counts the hit.
func (s *ViewService) GetOrCreate(ctx context.Context, url string, kind classifier.MediaKind) (*models.View, error) {
	view, err := s.repo.GetOrCreate(ctx, url, kind)
	if err != nil {
		return nil, fmt.Errorf("resolving view: %w", err)
	}
	if err := s.repo.Touch(ctx, view.ID); err != nil {
		return nil, fmt.Errorf("touching view: %w", err)
	}
	view.Touch()
	return view, nil
}

// GetByID retrieves a view by its ULID string.
func (s *ViewService) GetByID(ctx context.Context, id string) (*models.View, error) {
	ulid, err := models.ParseULID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	view, err := s.repo.GetByID(ctx, ulid)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, ErrViewNotFound
	}
	return view, nil
}

// GetByURL retrieves the view for url.
func (s *ViewService) GetByURL(ctx context.Context, url string) (*models.View, error) {
	view, err := s.repo.GetByURL(ctx, url)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, ErrViewNotFound
	}
	return view, nil
}

// List returns a page of views, most recently seen first.
func (s *ViewService) List(ctx context.Context, opts repository.ViewListOptions) ([]*models.View, int64, error) {
	return s.repo.List(ctx, opts)
}

// RecordProgress stores a playback position, duration and view map. Times
// are in seconds; duration 0 means unknown.
func (s *ViewService) RecordProgress(ctx context.Context, id string, currentTime, duration int, mapa string) (*models.View, error) {
	if currentTime < 0 || duration < 0 {
		return nil, fmt.Errorf("%w: negative time", ErrInvalidProgress)
	}
	if duration > 0 && currentTime > duration {
		return nil, fmt.Errorf("%w: position %d past duration %d", ErrInvalidProgress, currentTime, duration)
	}

	view, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view.SetProgress(currentTime, duration)
	view.Mapa = mapa
	if err := s.repo.UpdateProgress(ctx, view); err != nil {
		return nil, fmt.Errorf("updating progress: %w", err)
	}

	s.logger.DebugContext(ctx, "view progress recorded",
		slog.String("view_id", view.ID.String()),
		slog.Int("current_time", view.CurrentTime),
		slog.Int("percent", view.Percent),
	)
	return view, nil
}

// Delete removes a view.
func (s *ViewService) Delete(ctx context.Context, id string) error {
	ulid, err := models.ParseULID(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	return s.repo.Delete(ctx, ulid)
}

// Prune deletes views not seen within maxAge and returns how many went.
func (s *ViewService) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, fmt.Errorf("max age must be positive, got %s", maxAge)
	}
	cutoff := time.Now().Add(-maxAge)
	n, err := s.repo.DeleteSeenBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning views: %w", err)
	}

	s.logger.InfoContext(ctx, "views pruned",
		slog.Int64("deleted", n),
		slog.Time("cutoff", cutoff),
	)
	return n, nil
}

// Stats returns aggregate view statistics.
func (s *ViewService) Stats(ctx context.Context) (*repository.ViewStats, error) {
	return s.repo.GetStats(ctx)
}

var _ ViewStore = (*ViewService)(nil)
