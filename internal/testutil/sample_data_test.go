package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/supervideo/internal/classifier"
)

func TestNewSampleDataGenerator(t *testing.T) {
	gen := NewSampleDataGenerator()
	require.NotNil(t, gen)
	require.NotNil(t, gen.rng)
}

func TestNewSampleDataGeneratorWithSeed(t *testing.T) {
	gen1 := NewSampleDataGeneratorWithSeed(42)
	gen2 := NewSampleDataGeneratorWithSeed(42)

	assert.Equal(t, gen1.RandomSlug(), gen2.RandomSlug())
	assert.Equal(t, gen1.Generate(classifier.KindVimeo), gen2.Generate(classifier.KindVimeo))
}

func TestRandomHost(t *testing.T) {
	gen := NewSampleDataGenerator()
	for i := 0; i < 10; i++ {
		assert.Contains(t, Hosts, gen.RandomHost())
	}
}

func TestYouTubeID(t *testing.T) {
	gen := NewSampleDataGeneratorWithSeed(1)
	for i := 0; i < 20; i++ {
		id := gen.YouTubeID()
		assert.Len(t, id, youTubeIDLen)
		assert.Empty(t, strings.Trim(id, youTubeIDChars))
	}
}

func TestGenerate(t *testing.T) {
	gen := NewSampleDataGeneratorWithSeed(7)

	for _, kind := range classifier.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			s := gen.Generate(kind)
			assert.Equal(t, kind, s.Kind)
			assert.NotEmpty(t, s.URL)
			if kind.IsPlatform() {
				assert.NotEmpty(t, s.VideoID)
				assert.Contains(t, s.URL, s.VideoID)
			} else {
				assert.Empty(t, s.VideoID)
			}
		})
	}
}

func TestGenerateMixed(t *testing.T) {
	gen := NewSampleDataGeneratorWithSeed(3)
	samples := gen.GenerateMixed(18)
	require.Len(t, samples, 18)

	counts := make(map[classifier.MediaKind]int)
	for _, s := range samples {
		counts[s.Kind]++
	}
	assert.Len(t, counts, len(classifier.Kinds()))
}

func TestGenerateViews(t *testing.T) {
	gen := NewSampleDataGeneratorWithSeed(11)
	views := gen.GenerateViews(10, time.Hour)
	require.Len(t, views, 10)

	urls := make(map[string]bool)
	for i, v := range views {
		require.NoError(t, v.Validate())
		assert.False(t, urls[v.URL], "duplicate url %s", v.URL)
		urls[v.URL] = true
		if i > 0 {
			assert.True(t, v.LastSeenAt.Before(views[i-1].LastSeenAt))
		}
	}
}
