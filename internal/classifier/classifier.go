// Package classifier decides whether a media URL is supported and which
// embed kind handles it.
//
// Classification is a pure function of the URL string. A Classifier holds
// only immutable state and is safe for concurrent use.
package classifier

import (
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// Result pairs a URL with the kind that claimed it. For YouTube and Vimeo
// Captures holds the regexp submatches, with index 0 being the full match.
type Result struct {
	URL      string    `json:"url"`
	Kind     MediaKind `json:"kind"`
	Rule     string    `json:"rule,omitempty"`
	Captures []string  `json:"captures,omitempty"`
}

// Supported reports whether the result was claimed by any rule.
func (r Result) Supported() bool {
	return r.Kind != KindUnsupported
}

// VideoID returns the platform video identifier for YouTube and Vimeo
// results, or "" for every other kind.
func (r Result) VideoID() string {
	switch r.Kind {
	case KindYouTube:
		return r.capture(YouTubeIDGroup)
	case KindVimeo:
		return r.capture(VimeoIDGroup)
	default:
		return ""
	}
}

// AccessHash returns the Vimeo private-link hash, if the URL carried one.
func (r Result) AccessHash() string {
	if r.Kind != KindVimeo {
		return ""
	}
	return r.capture(VimeoHashGroup)
}

func (r Result) capture(i int) string {
	if i < len(r.Captures) {
		return r.Captures[i]
	}
	return ""
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithStrict disables the generic http(s) fallback so only the explicit
// rules claim URLs.
func WithStrict(strict bool) Option {
	return func(c *Classifier) {
		c.strict = strict
	}
}

// WithRules replaces the rule table. Rules are evaluated in slice order.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) {
		c.rules = append([]Rule(nil), rules...)
	}
}

// Classifier evaluates an ordered rule table; the first matching rule wins.
type Classifier struct {
	rules  []Rule
	strict bool
}

// New creates a Classifier using DefaultRules unless overridden.
func New(opts ...Option) *Classifier {
	c := &Classifier{rules: DefaultRules()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Strict reports whether the generic resource fallback is disabled.
func (c *Classifier) Strict() bool {
	return c.strict
}

// Rules returns a copy of the rule table in evaluation order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify returns the kind for rawURL. Malformed, relative or
// whitespace-padded URLs are KindUnsupported; Classify never fails.
func (c *Classifier) Classify(rawURL string) Result {
	res := Result{URL: rawURL, Kind: KindUnsupported}

	cand, ok := parseCandidate(rawURL)
	if !ok {
		return res
	}

	for _, rule := range c.rules {
		if captures, matched := rule.Match(cand); matched {
			res.Kind = rule.Kind
			res.Rule = rule.Name
			if rule.Kind.IsPlatform() {
				res.Captures = captures
			}
			return res
		}
	}

	if !c.strict && matchGenericResource(cand) {
		res.Kind = KindGenericResource
		res.Rule = "generic"
	}
	return res
}

// IsSupported reports whether any rule claims rawURL.
func (c *Classifier) IsSupported(rawURL string) bool {
	return c.Classify(rawURL).Supported()
}

// ClassifyAll classifies each URL, preserving input order.
func (c *Classifier) ClassifyAll(urls []string) []Result {
	return lo.Map(urls, func(u string, _ int) Result {
		return c.Classify(u)
	})
}

// SupportedURLs returns the subset of urls this classifier claims, in
// input order.
func (c *Classifier) SupportedURLs(urls []string) []string {
	return lo.Filter(urls, func(u string, _ int) bool {
		return c.IsSupported(u)
	})
}

// parseCandidate rejects input with surrounding whitespace; it is never
// trimmed.
func parseCandidate(rawURL string) (Candidate, bool) {
	if rawURL == "" || strings.TrimSpace(rawURL) != rawURL {
		return Candidate{}, false
	}
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return Candidate{}, false
	}
	return Candidate{
		Raw:    rawURL,
		Path:   u.EscapedPath(),
		Scheme: strings.ToLower(u.Scheme),
	}, true
}

var defaultClassifier = New()

// Classify classifies rawURL with the default rule table.
func Classify(rawURL string) Result {
	return defaultClassifier.Classify(rawURL)
}

// IsSupported reports whether the default rule table claims rawURL.
func IsSupported(rawURL string) bool {
	return defaultClassifier.IsSupported(rawURL)
}

// SupportedURLs filters urls with the default rule table.
func SupportedURLs(urls []string) []string {
	return defaultClassifier.SupportedURLs(urls)
}
