package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/supervideo/internal/urlutil"
	"github.com/jmylchreest/supervideo/pkg/httpclient"
)

const testMultivariant = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=640x360,CODECS="avc1.4d401e,mp4a.40.2"
low/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=5120000,RESOLUTION=1920x1080,CODECS="avc1.640028,mp4a.40.2"
high/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2560000,RESOLUTION=1280x720,CODECS="avc1.4d401f,mp4a.40.2"
mid/index.m3u8
`

const testMediaVOD = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:10,
seg0.ts
#EXTINF:10,
seg1.ts
#EXTINF:5,
seg2.ts
#EXT-X-ENDLIST
`

const testMediaLive = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXT-X-MEDIA-SEQUENCE:100
#EXTINF:6,
seg100.ts
#EXTINF:6,
seg101.ts
`

type stubFetcher struct {
	body string
	err  error
	got  string
}

func (f *stubFetcher) Fetch(_ context.Context, u string) (io.ReadCloser, error) {
	f.got = u
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func TestProbeService_Multivariant(t *testing.T) {
	fetcher := &stubFetcher{body: testMultivariant}
	svc := NewProbeService(fetcher)

	res, err := svc.Probe(context.Background(), "https://cdn.example.com/live/master.m3u8")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/live/master.m3u8", fetcher.got)
	assert.Equal(t, PlaylistMultivariant, res.PlaylistType)
	require.Len(t, res.Variants, 3)
	assert.Equal(t, 5120000, res.Variants[0].Bandwidth)
	assert.Equal(t, "1920x1080", res.Variants[0].Resolution)
	assert.Equal(t, "https://cdn.example.com/live/high/index.m3u8", res.Variants[0].URI)
	assert.Equal(t, "https://cdn.example.com/live/low/index.m3u8", res.Variants[2].URI)
	assert.Equal(t, 2560000, res.Variants[1].Bandwidth)
	assert.Equal(t, 1280000, res.Variants[2].Bandwidth)
	assert.Equal(t, []string{"avc1.4d401e", "mp4a.40.2"}, res.Variants[2].Codecs)
	assert.Equal(t, len(testMultivariant), res.ManifestBytes)
}

func TestProbeService_Media(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		live     bool
		segments int
		total    time.Duration
		target   int
	}{
		{"vod", testMediaVOD, false, 3, 25 * time.Second, 10},
		{"live", testMediaLive, true, 2, 12 * time.Second, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewProbeService(&stubFetcher{body: tt.body})

			res, err := svc.Probe(context.Background(), "https://cdn.example.com/index.m3u8")
			require.NoError(t, err)
			assert.Equal(t, PlaylistMedia, res.PlaylistType)
			assert.Equal(t, tt.live, res.Live)
			assert.Equal(t, tt.segments, res.SegmentCount)
			assert.Equal(t, tt.total, res.TotalDuration)
			assert.Equal(t, tt.target, res.TargetDuration)
			assert.False(t, res.Encrypted)
			assert.False(t, res.FMP4)
		})
	}
}

func TestProbeService_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewProbeService(&stubFetcher{}).Probe(ctx, "https://cdn.example.com/a.mp4")
	assert.ErrorIs(t, err, ErrNotHLS)
	assert.True(t, IsProbeInputError(err))

	_, err = NewProbeService(&stubFetcher{}).WithEnabled(false).Probe(ctx, "https://cdn.example.com/a.m3u8")
	assert.ErrorIs(t, err, ErrProbeDisabled)

	upstream := errors.New("connection refused")
	_, err = NewProbeService(&stubFetcher{err: upstream}).Probe(ctx, "https://cdn.example.com/a.m3u8")
	assert.ErrorIs(t, err, upstream)
	assert.False(t, IsProbeInputError(err))

	_, err = NewProbeService(&stubFetcher{body: "not a playlist"}).Probe(ctx, "https://cdn.example.com/a.m3u8")
	require.Error(t, err)

	_, err = NewProbeService(&stubFetcher{body: testMultivariant}).
		WithMaxManifestSize(16).
		Probe(ctx, "https://cdn.example.com/a.m3u8")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestProbeService_AbsoluteVariantURIs(t *testing.T) {
	const body = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
https://edge.example.net/a/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=400000,RESOLUTION=320x180
../fallback/index.m3u8
`
	res, err := NewProbeService(&stubFetcher{body: body}).
		Probe(context.Background(), "https://cdn.example.com/live/master.m3u8?token=1")
	require.NoError(t, err)
	require.Len(t, res.Variants, 2)
	assert.Equal(t, "https://edge.example.net/a/index.m3u8", res.Variants[0].URI)
	assert.Equal(t, "https://cdn.example.com/fallback/index.m3u8", res.Variants[1].URI)
}

func TestProbeService_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vod/index.m3u8":
			w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
			_, _ = io.WriteString(w, testMediaVOD)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := httpclient.DefaultConfig()
	cfg.RetryAttempts = 0
	fetcher := urlutil.NewResourceFetcherWithClient(httpclient.New(cfg))
	svc := NewProbeService(fetcher).WithTimeout(5 * time.Second)

	res, err := svc.Probe(context.Background(), srv.URL+"/vod/index.m3u8")
	require.NoError(t, err)
	assert.Equal(t, 3, res.SegmentCount)
	assert.False(t, res.Live)

	_, err = svc.Probe(context.Background(), srv.URL+"/missing.m3u8")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
