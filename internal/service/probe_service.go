package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/urlutil"
)

// Playlist types reported by a probe.
const (
	PlaylistMultivariant = "multivariant"
	PlaylistMedia        = "media"
)

// DefaultMaxManifestSize bounds a fetched manifest when none is configured.
const DefaultMaxManifestSize = 4 << 20

// ManifestFetcher retrieves manifest bytes.
type ManifestFetcher interface {
	Fetch(ctx context.Context, u string) (io.ReadCloser, error)
}

// ProbeVariant is one rendition of a multivariant playlist.
type ProbeVariant struct {
	Bandwidth        int      `json:"bandwidth"`
	AverageBandwidth int      `json:"average_bandwidth,omitempty"`
	Resolution       string   `json:"resolution,omitempty"`
	FrameRate        float64  `json:"frame_rate,omitempty"`
	Codecs           []string `json:"codecs,omitempty"`
	URI              string   `json:"uri"`
}

// ProbeResult summarises an HLS manifest.
type ProbeResult struct {
	URL          string `json:"url"`
	PlaylistType string `json:"playlist_type"`
	// Variants are sorted by bandwidth, highest first.
	Variants       []ProbeVariant `json:"variants,omitempty"`
	TargetDuration int            `json:"target_duration,omitempty"`
	SegmentCount   int            `json:"segment_count,omitempty"`
	TotalDuration  time.Duration  `json:"total_duration,omitempty"`
	Live           bool           `json:"live"`
	Encrypted      bool           `json:"encrypted"`
	FMP4           bool           `json:"fmp4"`
	ManifestBytes  int            `json:"manifest_bytes"`
	Elapsed        time.Duration  `json:"elapsed"`
}

// ProbeService fetches and parses HLS manifests.
type ProbeService struct {
	fetcher ManifestFetcher
	timeout time.Duration
	maxSize int64
	enabled bool
	logger  *slog.Logger
}

// NewProbeService creates a probe service reading manifests through fetcher.
func NewProbeService(fetcher ManifestFetcher) *ProbeService {
	return &ProbeService{
		fetcher: fetcher,
		timeout: 15 * time.Second,
		maxSize: DefaultMaxManifestSize,
		enabled: true,
		logger:  slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *ProbeService) WithLogger(logger *slog.Logger) *ProbeService {
	s.logger = logger
	return s
}

// WithTimeout bounds each probe. Zero disables the bound.
func (s *ProbeService) WithTimeout(d time.Duration) *ProbeService {
	s.timeout = d
	return s
}

// WithMaxManifestSize bounds the manifest body.
func (s *ProbeService) WithMaxManifestSize(n int64) *ProbeService {
	if n > 0 {
		s.maxSize = n
	}
	return s
}

// WithEnabled switches probing on or off.
func (s *ProbeService) WithEnabled(enabled bool) *ProbeService {
	s.enabled = enabled
	return s
}

// Enabled reports whether probing is switched on.
func (s *ProbeService) Enabled() bool {
	return s.enabled
}

// Probe fetches rawURL and reports its playlist structure.
func (s *ProbeService) Probe(ctx context.Context, rawURL string) (*ProbeResult, error) {
	if !s.enabled {
		return nil, ErrProbeDisabled
	}
	if !classifier.IsHLS(rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrNotHLS, urlutil.RedactQuery(rawURL))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	data, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	pl, err := playlist.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parsing playlist: %w", err)
	}

	result := &ProbeResult{
		URL:           rawURL,
		ManifestBytes: len(data),
	}

	switch p := pl.(type) {
	case *playlist.Multivariant:
		describeMultivariant(result, p, rawURL)
	case *playlist.Media:
		describeMedia(result, p)
	default:
		return nil, fmt.Errorf("unknown playlist type %T", pl)
	}
	result.Elapsed = time.Since(start)

	s.logger.DebugContext(ctx, "hls manifest probed",
		slog.String("url", rawURL),
		slog.String("playlist_type", result.PlaylistType),
		slog.Int("variants", len(result.Variants)),
		slog.Int("segments", result.SegmentCount),
		slog.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (s *ProbeService) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("manifest exceeds %d bytes", s.maxSize)
	}
	return data, nil
}

// describeMultivariant lists the variants with their URIs resolved against
// the manifest URL.
func describeMultivariant(result *ProbeResult, mv *playlist.Multivariant, manifestURL string) {
	result.PlaylistType = PlaylistMultivariant
	result.Live = false

	variants := make([]ProbeVariant, 0, len(mv.Variants))
	for _, v := range mv.Variants {
		if v == nil {
			continue
		}
		pv := ProbeVariant{
			Bandwidth:  v.Bandwidth,
			Resolution: v.Resolution,
			Codecs:     v.Codecs,
			URI:        v.URI,
		}
		if resolved, err := urlutil.ResolveReference(manifestURL, v.URI); err == nil {
			pv.URI = resolved
		}
		if v.AverageBandwidth != nil {
			pv.AverageBandwidth = *v.AverageBandwidth
		}
		if v.FrameRate != nil {
			pv.FrameRate = *v.FrameRate
		}
		variants = append(variants, pv)
	}
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Bandwidth > variants[j].Bandwidth
	})
	result.Variants = variants
}

func describeMedia(result *ProbeResult, media *playlist.Media) {
	result.PlaylistType = PlaylistMedia
	result.TargetDuration = media.TargetDuration
	result.Live = !media.Endlist
	result.FMP4 = media.Map != nil

	for _, seg := range media.Segments {
		if seg == nil {
			continue
		}
		result.SegmentCount++
		result.TotalDuration += seg.Duration
		if seg.Key != nil {
			result.Encrypted = true
		}
	}
}

// IsProbeInputError reports whether err was caused by the caller's URL
// rather than the upstream server.
func IsProbeInputError(err error) bool {
	return errors.Is(err, ErrNotHLS) || errors.Is(err, ErrProbeDisabled)
}
