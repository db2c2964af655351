package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/models"
)

// viewRepository implements ViewRepository using GORM.
type viewRepository struct {
	db *gorm.DB
}

// NewViewRepository creates a new ViewRepository.
func NewViewRepository(db *gorm.DB) ViewRepository {
	return &viewRepository{db: db}
}

// GetOrCreate inserts with ON CONFLICT DO NOTHING on url_hash and then
// reads, so concurrent first views of a URL converge on one row.
func (r *viewRepository) GetOrCreate(ctx context.Context, url string, kind classifier.MediaKind) (*models.View, error) {
	view := models.NewView(url, kind)
	if err := view.Validate(); err != nil {
		return nil, fmt.Errorf("validating view: %w", err)
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url_hash"}},
		DoNothing: true,
	}).Create(view).Error
	if err != nil {
		return nil, fmt.Errorf("creating view: %w", err)
	}

	stored, err := r.getBy(ctx, "url_hash = ?", view.URLHash)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("view for %s vanished after insert", view.URLHash)
	}
	return stored, nil
}

// GetByID retrieves a view by ID.
func (r *viewRepository) GetByID(ctx context.Context, id models.ULID) (*models.View, error) {
	return r.getBy(ctx, "id = ?", id)
}

// GetByURL retrieves a view by URL via its hash.
func (r *viewRepository) GetByURL(ctx context.Context, url string) (*models.View, error) {
	return r.getBy(ctx, "url_hash = ?", models.HashURL(url))
}

func (r *viewRepository) getBy(ctx context.Context, query string, arg any) (*models.View, error) {
	var view models.View
	if err := r.db.WithContext(ctx).First(&view, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &view, nil
}

// List returns a page of views ordered by last_seen_at descending.
func (r *viewRepository) List(ctx context.Context, opts ViewListOptions) ([]*models.View, int64, error) {
	opts = opts.Normalize()

	q := r.db.WithContext(ctx).Model(&models.View{})
	if opts.Kind != "" {
		q = q.Where("kind = ?", opts.Kind)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting views: %w", err)
	}

	var views []*models.View
	if err := q.Order("last_seen_at DESC").Order("id DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&views).Error; err != nil {
		return nil, 0, fmt.Errorf("listing views: %w", err)
	}
	return views, total, nil
}

// Touch increments the hit count and refreshes last_seen_at.
func (r *viewRepository) Touch(ctx context.Context, id models.ULID) error {
	now := models.Now()
	// UpdateColumns skips hooks for this partial update.
	result := r.db.WithContext(ctx).Model(&models.View{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"hit_count":    gorm.Expr("hit_count + 1"),
			"last_seen_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrViewNotFound
	}
	return nil
}

// UpdateProgress stores the playback fields of view.
func (r *viewRepository) UpdateProgress(ctx context.Context, view *models.View) error {
	now := models.Now()
	result := r.db.WithContext(ctx).Model(&models.View{}).
		Where("id = ?", view.ID).
		UpdateColumns(map[string]any{
			"playback_position": view.CurrentTime,
			"duration":          view.Duration,
			"percent":           view.Percent,
			"mapa":              view.Mapa,
			"last_seen_at":      now,
			"updated_at":        now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrViewNotFound
	}
	view.LastSeenAt = now
	view.UpdatedAt = now
	return nil
}

// Delete hard-deletes a view by ID.
func (r *viewRepository) Delete(ctx context.Context, id models.ULID) error {
	result := r.db.WithContext(ctx).Delete(&models.View{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrViewNotFound
	}
	return nil
}

// DeleteSeenBefore hard-deletes views last seen before cutoff.
func (r *viewRepository) DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.View{}, "last_seen_at < ?", cutoff)
	return result.RowsAffected, result.Error
}

// GetStats returns aggregate view statistics.
func (r *viewRepository) GetStats(ctx context.Context) (*ViewStats, error) {
	var stats ViewStats
	err := r.db.WithContext(ctx).Model(&models.View{}).
		Select(`
			COUNT(*) as total_views,
			COALESCE(SUM(CASE WHEN percent >= 100 THEN 1 ELSE 0 END), 0) as completed_views,
			COALESCE(SUM(hit_count), 0) as total_hits
		`).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("getting view stats: %w", err)
	}
	return &stats, nil
}

// Ensure viewRepository implements ViewRepository.
var _ ViewRepository = (*viewRepository)(nil)
