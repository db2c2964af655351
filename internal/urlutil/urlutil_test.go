package urlutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/supervideo/pkg/httpclient"
)

func TestGetScheme(t *testing.T) {
	assert.Equal(t, "https", GetScheme("HTTPS://example.com"))
	assert.Equal(t, "file", GetScheme("file:///tmp/x"))
	assert.Equal(t, "", GetScheme("no-scheme"))
	assert.Equal(t, "", GetScheme("http://[::1"))
}

func TestValidateMediaURL(t *testing.T) {
	assert.NoError(t, ValidateMediaURL("https://youtu.be/dQw4w9WgXcQ"))
	assert.NoError(t, ValidateMediaURL("http://example.com/a.mp4"))

	assert.Error(t, ValidateMediaURL(""))
	assert.Error(t, ValidateMediaURL("   "))
	assert.Error(t, ValidateMediaURL("example.com/a.mp4"))
	assert.Error(t, ValidateMediaURL("ftp://example.com/a.mp4"))
	assert.Error(t, ValidateMediaURL("https:///a.mp4"))
}

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no query", "https://example.com/a.m3u8", "https://example.com/a.m3u8"},
		{"nothing sensitive", "https://example.com/a.m3u8?quality=hd", "https://example.com/a.m3u8?quality=hd"},
		{"token", "https://example.com/a.m3u8?token=secret", "https://example.com/a.m3u8?token=REDACTED"},
		{"mixed case", "https://example.com/a.mp4?X-Amz-Signature=abc&x=1", "https://example.com/a.mp4?X-Amz-Signature=REDACTED&x=1"},
		{"unparseable", "http://[::1/a?token=secret", "http://[::1/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RedactQuery(tt.input))
		})
	}
}

func TestResolveReference(t *testing.T) {
	got, err := ResolveReference("https://cdn.example.com/live/master.m3u8", "720p/index.m3u8")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/live/720p/index.m3u8", got)

	got, err = ResolveReference("https://cdn.example.com/live/master.m3u8", "https://other.example.com/x.m3u8")
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/x.m3u8", got)
}

func TestResourceFetcher_FetchHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.m3u8" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("#EXTM3U\n"))
	}))
	defer server.Close()

	cfg := httpclient.DefaultConfig()
	cfg.RetryAttempts = 0
	fetcher := NewResourceFetcherWithClient(httpclient.New(cfg))

	rc, err := fetcher.Fetch(context.Background(), server.URL+"/index.m3u8")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "#EXTM3U\n", string(data))

	_, err = fetcher.Fetch(context.Background(), server.URL+"/missing.m3u8")
	assert.ErrorContains(t, err, "404")
}

func TestResourceFetcher_UnsupportedScheme(t *testing.T) {
	fetcher := NewResourceFetcherWithClient(httpclient.NewWithDefaults())
	for _, u := range []string{"ftp://example.com/a.m3u8", "file:///tmp/a.m3u8"} {
		_, err := fetcher.Fetch(context.Background(), u)
		assert.ErrorContains(t, err, "unsupported URL scheme", u)
	}
}
