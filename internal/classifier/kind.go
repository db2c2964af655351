package classifier

// MediaKind identifies which embed integration handles a URL.
type MediaKind string

const (
	// KindSuperVideoHosted is a file served from the SuperVideo "/_videos" tree.
	KindSuperVideoHosted MediaKind = "supervideo_hosted"
	// KindMp4 is a direct MP4 file.
	KindMp4 MediaKind = "mp4"
	// KindMp3 is a direct MP3 file.
	KindMp3 MediaKind = "mp3"
	// KindWebm is a direct WEBM file.
	KindWebm MediaKind = "webm"
	// KindYouTube is a YouTube watch, embed, live or shorts link.
	KindYouTube MediaKind = "youtube"
	// KindVimeo is a Vimeo video link, optionally carrying an access hash.
	KindVimeo MediaKind = "vimeo"
	// KindHLSStream is an HTTP Live Streaming manifest (.m3u8).
	KindHLSStream MediaKind = "hls_stream"
	// KindGenericResource is any other http(s) URL handed to the generic resource player.
	KindGenericResource MediaKind = "generic_resource"
	// KindUnsupported is returned for URLs no rule claims.
	KindUnsupported MediaKind = "unsupported"
)

var allKinds = []MediaKind{
	KindSuperVideoHosted,
	KindMp4,
	KindMp3,
	KindWebm,
	KindYouTube,
	KindVimeo,
	KindHLSStream,
	KindGenericResource,
	KindUnsupported,
}

// Kinds returns every MediaKind in rule priority order, Unsupported last.
func Kinds() []MediaKind {
	out := make([]MediaKind, len(allKinds))
	copy(out, allKinds)
	return out
}

// IsValid reports whether k is one of the declared kinds.
func (k MediaKind) IsValid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsPlatform reports whether the kind is played through a third-party
// platform player rather than the generic resource player.
func (k MediaKind) IsPlatform() bool {
	return k == KindYouTube || k == KindVimeo
}

// String implements fmt.Stringer.
func (k MediaKind) String() string {
	return string(k)
}
