package classifier

import (
	"regexp"
	"strings"

	"github.com/jmylchreest/supervideo/internal/urlutil"
)

// Patterns matched against the full serialized URL.
var (
	youTubePattern = regexp.MustCompile(`(?i)youtu(\.be|be\.com)/(watch\?v=|embed/|live/|shorts/)?([a-z0-9_\-]{11})`)
	vimeoPattern   = regexp.MustCompile(`vimeo.com/(\d+)(/(\w+))?`)
	hlsPattern     = regexp.MustCompile(`(?i)^https?.*\.(m3u8)`)
	audioPattern   = regexp.MustCompile(`(?i)^https?.*\.(mp3|aac|m4a)`)
)

// Capture group indexes for the platform patterns.
const (
	YouTubeIDGroup   = 3
	VimeoIDGroup     = 1
	VimeoHashGroup   = 3
	hostedPathPrefix = "_videos"
)

// Candidate is a parsed URL presented to each rule.
type Candidate struct {
	Raw    string
	// Path is the escaped path as it appears in Raw.
	Path   string
	Scheme string
}

// Rule claims a URL for a MediaKind. Match returns the capture groups
// (possibly empty) and true when the rule applies.
type Rule struct {
	Name  string
	Kind  MediaKind
	Match func(c Candidate) ([]string, bool)
}

// DefaultRules returns the built-in rules in priority order. The generic
// resource fallback is not a rule; it is applied by the Classifier.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "supervideo-path", Kind: KindSuperVideoHosted, Match: matchHostedPath},
		{Name: "mp4-path", Kind: KindMp4, Match: matchPathExtension(".mp4")},
		{Name: "mp3-path", Kind: KindMp3, Match: matchPathExtension(".mp3")},
		{Name: "webm-path", Kind: KindWebm, Match: matchPathExtension(".webm")},
		{Name: "youtube", Kind: KindYouTube, Match: matchPattern(youTubePattern)},
		{Name: "vimeo", Kind: KindVimeo, Match: matchPattern(vimeoPattern)},
		{Name: "hls", Kind: KindHLSStream, Match: matchPattern(hlsPattern)},
	}
}

// matchHostedPath requires "_videos" to start right after the leading slash.
func matchHostedPath(c Candidate) ([]string, bool) {
	return nil, strings.Index(c.Path, hostedPathPrefix) == 1
}

// matchPathExtension looks at the first occurrence of ext only; an
// occurrence at offset 0 or 1 does not count even if a later one exists.
func matchPathExtension(ext string) func(Candidate) ([]string, bool) {
	return func(c Candidate) ([]string, bool) {
		return nil, strings.Index(c.Path, ext) > 1
	}
}

func matchPattern(re *regexp.Regexp) func(Candidate) ([]string, bool) {
	return func(c Candidate) ([]string, bool) {
		m := re.FindStringSubmatch(c.Raw)
		if m == nil {
			return nil, false
		}
		return m, true
	}
}

// matchGenericResource is the fallback for any absolute http(s) URL.
func matchGenericResource(c Candidate) bool {
	return c.Scheme == urlutil.SchemeHTTP || c.Scheme == urlutil.SchemeHTTPS
}

// IsHLS reports whether the URL looks like an HLS manifest.
func IsHLS(rawURL string) bool {
	return hlsPattern.MatchString(rawURL)
}

// IsAudio reports whether the URL points at an audio-only resource
// (mp3, aac or m4a). Used to choose between the audio and video players.
func IsAudio(rawURL string) bool {
	return audioPattern.MatchString(rawURL)
}
