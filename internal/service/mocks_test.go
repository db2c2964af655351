package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/models"
	"github.com/jmylchreest/supervideo/internal/repository"
)

// mockViewRepo is an in-memory implementation for testing.
type mockViewRepo struct {
	mu    sync.Mutex
	views map[string]*models.View
	err   error
}

func newMockViewRepo() *mockViewRepo {
	return &mockViewRepo{views: map[string]*models.View{}}
}

func (m *mockViewRepo) GetOrCreate(_ context.Context, url string, kind classifier.MediaKind) (*models.View, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := models.HashURL(url)
	if v, ok := m.views[hash]; ok {
		cp := *v
		return &cp, nil
	}
	v := models.NewView(url, kind)
	if err := v.Validate(); err != nil {
		return nil, err
	}
	v.ID = models.NewULID()
	m.views[hash] = v
	cp := *v
	return &cp, nil
}

func (m *mockViewRepo) find(id models.ULID) *models.View {
	for _, v := range m.views {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func (m *mockViewRepo) GetByID(_ context.Context, id models.ULID) (*models.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v := m.find(id); v != nil {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (m *mockViewRepo) GetByURL(_ context.Context, url string) (*models.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.views[models.HashURL(url)]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (m *mockViewRepo) List(_ context.Context, opts repository.ViewListOptions) ([]*models.View, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	opts = opts.Normalize()

	var all []*models.View
	for _, v := range m.views {
		if opts.Kind == "" || v.Kind == opts.Kind {
			all = append(all, v)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LastSeenAt.After(all[j].LastSeenAt) })

	total := int64(len(all))
	if opts.Offset >= len(all) {
		return []*models.View{}, total, nil
	}
	end := min(opts.Offset+opts.Limit, len(all))
	return all[opts.Offset:end], total, nil
}

func (m *mockViewRepo) Touch(_ context.Context, id models.ULID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.find(id)
	if v == nil {
		return models.ErrViewNotFound
	}
	v.Touch()
	return nil
}

func (m *mockViewRepo) UpdateProgress(_ context.Context, view *models.View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.find(view.ID)
	if v == nil {
		return models.ErrViewNotFound
	}
	v.CurrentTime, v.Duration, v.Percent, v.Mapa = view.CurrentTime, view.Duration, view.Percent, view.Mapa
	return nil
}

func (m *mockViewRepo) Delete(_ context.Context, id models.ULID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.find(id)
	if v == nil {
		return models.ErrViewNotFound
	}
	delete(m.views, v.URLHash)
	return nil
}

func (m *mockViewRepo) DeleteSeenBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, v := range m.views {
		if v.LastSeenAt.Before(cutoff) {
			delete(m.views, hash)
			n++
		}
	}
	return n, nil
}

func (m *mockViewRepo) GetStats(_ context.Context) (*repository.ViewStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &repository.ViewStats{TotalViews: int64(len(m.views))}
	for _, v := range m.views {
		stats.TotalHits += v.HitCount
		if v.IsComplete() {
			stats.CompletedViews++
		}
	}
	return stats, nil
}

var _ repository.ViewRepository = (*mockViewRepo)(nil)
