// Package urlutil provides URL inspection and fetching helpers shared by
// the classifier, the HLS probe and request logging.
package urlutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jmylchreest/supervideo/pkg/httpclient"
)

// URL scheme constants.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// RedactedValue replaces sensitive query parameter values.
const RedactedValue = "REDACTED"

// SensitiveQueryParams are query parameter names whose values are stripped
// by RedactQuery. Matching is case-insensitive.
var SensitiveQueryParams = []string{
	"token",
	"signature",
	"sig",
	"key",
	"x-amz-signature",
	"x-amz-credential",
	"policy",
	"hdnts",
}

// GetScheme returns the lower-cased scheme of a URL or "" if it cannot be parsed.
func GetScheme(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Scheme)
}

// ValidateMediaURL checks that u is an absolute http(s) URL with a host.
func ValidateMediaURL(u string) error {
	if strings.TrimSpace(u) == "" {
		return fmt.Errorf("URL is required")
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case SchemeHTTP, SchemeHTTPS:
		if parsed.Host == "" {
			return fmt.Errorf("URL has no host: %s", u)
		}
		return nil
	case "":
		return fmt.Errorf("URL must include a scheme (http:// or https://)")
	default:
		return fmt.Errorf("unsupported URL scheme: %s (supported: http, https)", parsed.Scheme)
	}
}

// RedactQuery replaces the values of SensitiveQueryParams in u. Input that
// cannot be parsed is returned with its whole query removed.
func RedactQuery(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		if i := strings.IndexByte(u, '?'); i >= 0 {
			return u[:i]
		}
		return u
	}
	if parsed.RawQuery == "" {
		return u
	}

	query := parsed.Query()
	changed := false
	for name := range query {
		if isSensitiveParam(name) {
			query.Set(name, RedactedValue)
			changed = true
		}
	}
	if !changed {
		return u
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func isSensitiveParam(name string) bool {
	for _, p := range SensitiveQueryParams {
		if strings.EqualFold(name, p) {
			return true
		}
	}
	return false
}

// ResolveReference resolves ref (absolute or relative) against base.
func ResolveReference(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing reference: %w", err)
	}
	return b.ResolveReference(r).String(), nil
}

// ResourceFetcher fetches remote resources over http(s).
type ResourceFetcher struct {
	httpClient *httpclient.Client
}

// NewResourceFetcher creates a ResourceFetcher sharing the named circuit
// breaker from the default manager.
func NewResourceFetcher(cfg httpclient.Config, breakerName string) *ResourceFetcher {
	breaker := httpclient.DefaultManager.GetOrCreate(breakerName)
	return &ResourceFetcher{
		httpClient: httpclient.NewWithBreaker(cfg, breaker),
	}
}

// NewResourceFetcherWithClient wraps an existing client.
func NewResourceFetcherWithClient(client *httpclient.Client) *ResourceFetcher {
	return &ResourceFetcher{httpClient: client}
}

// Fetch retrieves content from u. The caller must close the returned reader.
func (f *ResourceFetcher) Fetch(ctx context.Context, u string) (io.ReadCloser, error) {
	switch scheme := GetScheme(u); scheme {
	case SchemeHTTP, SchemeHTTPS:
		return f.fetchHTTP(ctx, u)
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %q", scheme)
	}
}

func (f *ResourceFetcher) fetchHTTP(ctx context.Context, u string) (io.ReadCloser, error) {
	resp, err := f.httpClient.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}
