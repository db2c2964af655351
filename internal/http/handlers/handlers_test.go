package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/config"
	"github.com/jmylchreest/supervideo/internal/database"
	"github.com/jmylchreest/supervideo/internal/embed"
	"github.com/jmylchreest/supervideo/internal/render"
	"github.com/jmylchreest/supervideo/internal/repository"
	"github.com/jmylchreest/supervideo/internal/scheduler"
	"github.com/jmylchreest/supervideo/internal/service"
)

type testEnv struct {
	router *chi.Mux
	api    huma.API
	db     *database.DB
	views  *service.ViewService
	embeds *service.EmbedService
}

func newTestEnv(t *testing.T, opts ...classifier.Option) *testEnv {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"}, nil, &database.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	renderer, err := render.NewRenderer()
	require.NoError(t, err)

	views := service.NewViewService(repository.NewViewRepository(db.DB))
	sel := embed.NewSelector(embed.StaticConfig{Controls: "play,progress", Speed: "1,2"})
	embeds := service.NewEmbedService(classifier.New(opts...), sel, renderer, views).
		WithLoaderURL("/static/player.js")

	router := chi.NewRouter()
	api := humachi.New(router, huma.DefaultConfig("Test API", "1.0.0"))

	return &testEnv{router: router, api: api, db: db, views: views, embeds: embeds}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t)

	t.Run("livez", func(t *testing.T) {
		router := chi.NewRouter()
		NewHealthHandler("1.0.0").Register(humachi.New(router, huma.DefaultConfig("Test API", "1.0.0")))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	})

	t.Run("readyz without database", func(t *testing.T) {
		out, err := NewHealthHandler("1.0.0").GetReadyz(context.Background(), &ReadyzInput{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, out.Status)
		assert.Equal(t, "not_ready", out.Body.Status)
		assert.Equal(t, "not_configured", out.Body.Components["database"])
	})

	t.Run("readyz with database", func(t *testing.T) {
		NewHealthHandler("1.0.0").WithDB(env.db).Register(env.api)

		rec := env.do(t, http.MethodGet, "/readyz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"ready"`)

		rec = env.do(t, http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		health := decode[HealthResponse](t, rec)
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "1.0.0", health.Version)
		assert.Equal(t, "sqlite", health.Components.Database.Driver)
		assert.Equal(t, "disabled", health.Components.Retention.Status)
		assert.NotZero(t, health.CPUInfo.Cores)
	})
}

type stubPruner struct{ removed int64 }

func (s stubPruner) Prune(context.Context, time.Duration) (int64, error) { return s.removed, nil }

func TestHealthHandler_Retention(t *testing.T) {
	sched, err := scheduler.NewScheduler(stubPruner{removed: 4}).
		WithConfig(scheduler.SchedulerConfig{Schedule: "@daily", MaxAge: time.Hour})
	require.NoError(t, err)
	require.NoError(t, sched.Start(context.Background()))
	t.Cleanup(sched.Stop)
	sched.RunNow(context.Background())

	out, err := NewHealthHandler("1.0.0").WithRetention(sched).GetHealth(context.Background(), &HealthInput{})
	require.NoError(t, err)

	retention := out.Body.Components.Retention
	assert.Equal(t, "ok", retention.Status)
	assert.NotNil(t, retention.NextRun)
	assert.NotNil(t, retention.LastRun)
	assert.Equal(t, int64(4), retention.LastRemoved)
}

func TestMediaHandler_Capabilities(t *testing.T) {
	env := newTestEnv(t)
	NewMediaHandler(env.embeds).Register(env.api)

	rec := env.do(t, http.MethodGet, "/api/v1/capabilities", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	caps := decode[embed.Capabilities](t, rec)
	assert.Equal(t, 2002, caps.Rank)
	assert.Empty(t, caps.Markers)
	assert.Contains(t, caps.Kinds, classifier.KindGenericResource)
	assert.NotContains(t, caps.Kinds, classifier.KindUnsupported)
}

func TestMediaHandler_Classify(t *testing.T) {
	env := newTestEnv(t)
	NewMediaHandler(env.embeds).Register(env.api)

	t.Run("single", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/classify?url=https%3A%2F%2Fvimeo.com%2F76979871%2Fabc123", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		res := decode[ClassificationResponse](t, rec)
		assert.Equal(t, classifier.KindVimeo, res.Kind)
		assert.Equal(t, "76979871", res.VideoID)
		assert.Equal(t, "abc123", res.AccessHash)
		assert.True(t, res.Supported)
	})

	t.Run("batch", func(t *testing.T) {
		urls := []string{
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			"ftp://example.com/file.pdf",
			"https://cdn.example.com/live/index.m3u8",
			" https://cdn.example.com/live/index.m3u8",
		}
		rec := env.do(t, http.MethodPost, "/api/v1/classify", map[string]any{"urls": urls})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		out := decode[struct {
			Results   []ClassificationResponse `json:"results"`
			Supported []string                 `json:"supported"`
		}](t, rec)
		require.Len(t, out.Results, 4)
		assert.Equal(t, classifier.KindYouTube, out.Results[0].Kind)
		assert.Equal(t, classifier.KindUnsupported, out.Results[1].Kind)
		assert.Equal(t, classifier.KindHLSStream, out.Results[2].Kind)
		assert.True(t, out.Results[2].HLS)
		assert.Equal(t, classifier.KindUnsupported, out.Results[3].Kind)
		assert.Equal(t, []string{urls[0], urls[2]}, out.Supported)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/classify", map[string]any{"urls": []string{}})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestMediaHandler_Embed(t *testing.T) {
	env := newTestEnv(t)
	NewMediaHandler(env.embeds).Register(env.api)

	t.Run("youtube", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/embed", map[string]string{"url": "https://youtu.be/dQw4w9WgXcQ"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		out := decode[EmbedResponse](t, rec)
		assert.Equal(t, classifier.KindYouTube, out.Kind)
		assert.True(t, strings.HasPrefix(out.ElementID, embed.ElementIDPrefix))
		assert.Contains(t, out.HTML, "https://www.youtube.com/iframe_api")
		assert.Contains(t, out.Scripts, "/static/player.js")
		assert.Equal(t, embed.ModuleYouTube, out.Script.Module)
		assert.Equal(t, out.View.ID, out.Script.Args[0])
		assert.Equal(t, int64(1), out.View.HitCount)
	})

	t.Run("vimeo player url", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/embed", map[string]string{"url": "https://vimeo.com/76979871/abc123"})
		require.Equal(t, http.StatusOK, rec.Code)

		out := decode[EmbedResponse](t, rec)
		assert.Equal(t, embed.VimeoPlayerURL("76979871", "abc123"), out.PlayerURL)
	})

	t.Run("repeat embed counts hits", func(t *testing.T) {
		body := map[string]string{"url": "https://example.com/media/lecture.mp4"}
		env.do(t, http.MethodPost, "/api/v1/embed", body)
		rec := env.do(t, http.MethodPost, "/api/v1/embed", body)
		require.Equal(t, http.StatusOK, rec.Code)

		out := decode[EmbedResponse](t, rec)
		assert.Equal(t, int64(2), out.View.HitCount)
	})

	t.Run("unsupported", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/embed", map[string]string{"url": "ftp://example.com/file.mp4"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "url is not supported")
	})

	t.Run("empty url", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/embed", map[string]string{"url": ""})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestViewHandler(t *testing.T) {
	env := newTestEnv(t)
	NewViewHandler(env.views).Register(env.api)
	ctx := context.Background()

	first, err := env.views.GetOrCreate(ctx, "https://example.com/a.mp4", classifier.KindMp4)
	require.NoError(t, err)
	_, err = env.views.GetOrCreate(ctx, "https://youtu.be/dQw4w9WgXcQ", classifier.KindYouTube)
	require.NoError(t, err)

	t.Run("list", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/views", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		out := decode[struct {
			Views []ViewResponse `json:"views"`
			Total int64          `json:"total"`
		}](t, rec)
		assert.Equal(t, int64(2), out.Total)
		assert.Len(t, out.Views, 2)
	})

	t.Run("list by kind", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/views?kind=youtube", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total":1`)
	})

	t.Run("list by url", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/views?url=https%3A%2F%2Fexample.com%2Fa.mp4", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), first.ID.String())

		rec = env.do(t, http.MethodGet, "/api/v1/views?url=https%3A%2F%2Fexample.com%2Fnone.mp4", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total":0`)
	})

	t.Run("get", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/views/"+first.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		out := decode[ViewResponse](t, rec)
		assert.Equal(t, "https://example.com/a.mp4", out.URL)
		assert.Equal(t, classifier.KindMp4, out.Kind)
	})

	t.Run("get unknown and malformed ids", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/views/01HZZZZZZZZZZZZZZZZZZZZZZZ", nil).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/views/not-a-ulid", nil).Code)
	})

	t.Run("record progress", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/views/%s/progress", first.ID)
		rec := env.do(t, http.MethodPut, path, map[string]any{"current_time": 90, "duration": 100, "mapa": "WzEsMSwwXQ=="})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		out := decode[ViewResponse](t, rec)
		assert.Equal(t, 90, out.CurrentTime)
		assert.Equal(t, 90, out.Percent)
		assert.Equal(t, "WzEsMSwwXQ==", out.Mapa)

		rec = env.do(t, http.MethodPut, path, map[string]any{"current_time": 120, "duration": 100})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = env.do(t, http.MethodPut, path, map[string]any{"current_time": -1})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("stats", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/views/stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total_views":2`)
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/v1/views/"+first.ID.String(), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = env.do(t, http.MethodDelete, "/api/v1/views/"+first.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

type stubProber struct {
	result *service.ProbeResult
	err    error
}

func (s stubProber) Probe(context.Context, string) (*service.ProbeResult, error) {
	return s.result, s.err
}

func TestProbeHandler(t *testing.T) {
	tests := []struct {
		name   string
		prober stubProber
		status int
	}{
		{"ok", stubProber{result: &service.ProbeResult{PlaylistType: service.PlaylistMedia, SegmentCount: 3}}, http.StatusOK},
		{"not hls", stubProber{err: fmt.Errorf("%w: https://x/a.mp4", service.ErrNotHLS)}, http.StatusUnprocessableEntity},
		{"disabled", stubProber{err: service.ErrProbeDisabled}, http.StatusServiceUnavailable},
		{"timeout", stubProber{err: fmt.Errorf("fetching manifest: %w", context.DeadlineExceeded)}, http.StatusGatewayTimeout},
		{"upstream", stubProber{err: errors.New("fetching manifest: unexpected status code: 404")}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			api := humachi.New(router, huma.DefaultConfig("Test API", "1.0.0"))
			NewProbeHandler(tt.prober).Register(api)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/probe", strings.NewReader(`{"url":"https://cdn.example.com/master.m3u8"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"playlist_type":"media"`)
				assert.Contains(t, rec.Body.String(), `"segment_count":3`)
			}
		})
	}
}

func TestStaticHandler(t *testing.T) {
	h, err := NewStaticHandler()
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Handle(StaticPrefix+"*", h)

	t.Run("player loader", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/player.js", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
		assert.Contains(t, rec.Body.String(), "supervideoQueue")
	})

	t.Run("directory and missing files", func(t *testing.T) {
		for _, p := range []string{"/static/", "/static/missing.js", "/static/../go.mod"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
			assert.Equal(t, http.StatusNotFound, rec.Code, p)
		}
	})
}
