// Package repository defines data access interfaces for supervideo entities.
// All database access goes through these interfaces.
package repository

import (
	"context"
	"time"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/models"
)

// DefaultListLimit is applied when a list request carries no limit.
const DefaultListLimit = 50

// MaxListLimit caps a single page.
const MaxListLimit = 500

// ViewListOptions filters and pages a view listing.
type ViewListOptions struct {
	// Kind restricts the listing to one media kind when set.
	Kind   classifier.MediaKind
	Limit  int
	Offset int
}

// Normalize applies the default and maximum page size.
func (o ViewListOptions) Normalize() ViewListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	o.Limit = min(o.Limit, MaxListLimit)
	o.Offset = max(o.Offset, 0)
	return o
}

// ViewRepository defines operations for view persistence.
type ViewRepository interface {
	// GetOrCreate returns the view for url, inserting it with kind when absent.
	GetOrCreate(ctx context.Context, url string, kind classifier.MediaKind) (*models.View, error)
	// GetByID retrieves a view by ID.
	GetByID(ctx context.Context, id models.ULID) (*models.View, error)
	// GetByURL retrieves a view by its URL.
	GetByURL(ctx context.Context, url string) (*models.View, error)
	// List returns a page of views, most recently seen first, and the total count.
	List(ctx context.Context, opts ViewListOptions) ([]*models.View, int64, error)
	// Touch increments the hit count and refreshes last_seen_at.
	Touch(ctx context.Context, id models.ULID) error
	// UpdateProgress stores position, duration, percent and view map.
	UpdateProgress(ctx context.Context, view *models.View) error
	// Delete hard-deletes a view by ID.
	Delete(ctx context.Context, id models.ULID) error
	// DeleteSeenBefore hard-deletes views last seen before cutoff.
	DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// GetStats returns aggregate view statistics.
	GetStats(ctx context.Context) (*ViewStats, error)
}

// ViewStats holds aggregate statistics about stored views.
type ViewStats struct {
	TotalViews     int64 `json:"total_views"`
	CompletedViews int64 `json:"completed_views"`
	TotalHits      int64 `json:"total_hits"`
}
