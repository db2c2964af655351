// Package testutil provides test utilities including sample media URL
// generation.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/models"
)

// Fictional hosts used for file and stream URLs. None of them contain a
// platform name, so generated URLs only match the rule they were built for.
var Hosts = []string{
	"cdn.example.com",
	"media.example.org",
	"files.example.net",
	"stream.example.io",
}

// Titles are fictional programme titles turned into URL slugs.
// NEVER use real show names, movie titles, or trademarked content.
var Titles = []string{
	"Morning Report",
	"Evening Edition",
	"Nature World",
	"History Uncovered",
	"Science Today",
	"Cooking Challenge",
	"Garden Time",
	"Travel Journeys",
	"City Hospital",
	"Match Day",
	"Music Mix",
	"Story Corner",
}

const (
	youTubeIDChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	youTubeIDLen   = 11
	hashChars      = "abcdef0123456789"
)

// SampleMedia is a generated URL together with what classifying it must
// yield.
type SampleMedia struct {
	URL        string
	Kind       classifier.MediaKind
	VideoID    string
	AccessHash string
}

// ToView converts the sample to an unsaved view record.
func (s SampleMedia) ToView() *models.View {
	return models.NewView(s.URL, s.Kind)
}

// SampleDataGenerator generates sample media URLs.
type SampleDataGenerator struct {
	rng *rand.Rand
}

// NewSampleDataGenerator creates a new sample data generator.
func NewSampleDataGenerator() *SampleDataGenerator {
	return NewSampleDataGeneratorWithSeed(time.Now().UnixNano())
}

// NewSampleDataGeneratorWithSeed creates a generator with a fixed seed for
// reproducible output.
func NewSampleDataGeneratorWithSeed(seed int64) *SampleDataGenerator {
	return &SampleDataGenerator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // test data
	}
}

// RandomHost returns a random fictional host.
func (g *SampleDataGenerator) RandomHost() string {
	return Hosts[g.rng.Intn(len(Hosts))]
}

// RandomSlug returns a URL slug built from a random title, e.g.
// "nature-world-42".
func (g *SampleDataGenerator) RandomSlug() string {
	title := Titles[g.rng.Intn(len(Titles))]
	return fmt.Sprintf("%s-%d", strings.ToLower(strings.ReplaceAll(title, " ", "-")), g.rng.Intn(1000))
}

func (g *SampleDataGenerator) randomString(chars string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = chars[g.rng.Intn(len(chars))]
	}
	return string(b)
}

// YouTubeID returns a random 11 character video ID.
func (g *SampleDataGenerator) YouTubeID() string {
	return g.randomString(youTubeIDChars, youTubeIDLen)
}

// Generate returns one sample URL of the given kind. Unsupported yields a
// URL no rule or fallback accepts.
func (g *SampleDataGenerator) Generate(kind classifier.MediaKind) SampleMedia {
	s := SampleMedia{Kind: kind}
	host := g.RandomHost()
	slug := g.RandomSlug()

	switch kind {
	case classifier.KindSuperVideoHosted:
		s.URL = fmt.Sprintf("https://%s/_videos/%s.mp4", host, slug)
	case classifier.KindMp4:
		s.URL = fmt.Sprintf("https://%s/media/%s.mp4", host, slug)
	case classifier.KindMp3:
		s.URL = fmt.Sprintf("https://%s/audio/%s.mp3", host, slug)
	case classifier.KindWebm:
		s.URL = fmt.Sprintf("https://%s/media/%s.webm", host, slug)
	case classifier.KindYouTube:
		s.VideoID = g.YouTubeID()
		forms := []string{
			"https://www.youtube.com/watch?v=%s",
			"https://youtu.be/%s",
			"https://www.youtube.com/embed/%s",
			"https://youtube.com/shorts/%s",
		}
		s.URL = fmt.Sprintf(forms[g.rng.Intn(len(forms))], s.VideoID)
	case classifier.KindVimeo:
		s.VideoID = fmt.Sprintf("%d", 10000000+g.rng.Intn(90000000))
		s.URL = "https://vimeo.com/" + s.VideoID
		if g.rng.Intn(2) == 0 {
			s.AccessHash = g.randomString(hashChars, 10)
			s.URL += "/" + s.AccessHash
		}
	case classifier.KindHLSStream:
		s.URL = fmt.Sprintf("https://%s/live/%s/index.m3u8", host, slug)
	case classifier.KindGenericResource:
		s.URL = fmt.Sprintf("https://%s/watch/%s", host, slug)
	default:
		s.Kind = classifier.KindUnsupported
		s.URL = fmt.Sprintf("ftp://%s/%s", host, slug)
	}
	return s
}

// GenerateMixed returns count samples cycling through every kind.
func (g *SampleDataGenerator) GenerateMixed(count int) []SampleMedia {
	kinds := classifier.Kinds()
	samples := make([]SampleMedia, 0, count)
	for i := range count {
		samples = append(samples, g.Generate(kinds[i%len(kinds)]))
	}
	return samples
}

// GenerateViews returns count distinct, saveable view records. Their
// LastSeenAt values are spread backwards from now in steps of spacing.
func (g *SampleDataGenerator) GenerateViews(count int, spacing time.Duration) []*models.View {
	kinds := lo.Reject(classifier.Kinds(), func(k classifier.MediaKind, _ int) bool {
		return k == classifier.KindUnsupported
	})
	seen := make(map[string]bool, count)
	views := make([]*models.View, 0, count)
	now := time.Now()
	for len(views) < count {
		s := g.Generate(kinds[len(views)%len(kinds)])
		if seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		v := s.ToView()
		v.LastSeenAt = now.Add(-time.Duration(len(views)) * spacing)
		views = append(views, v)
	}
	return views
}
