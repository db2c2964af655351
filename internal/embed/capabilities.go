package embed

import (
	"github.com/jmylchreest/supervideo/internal/classifier"
)

// Rank orders this handler among competing media players; higher wins.
const Rank = 2002

// SupportsDescription is the human-readable summary of what is embedded.
const SupportsDescription = "SuperVideo hosted files, YouTube, Vimeo, MP4, MP3, WEBM and HLS (.m3u8) links"

// Capabilities is the metadata a host uses to rank and describe this handler.
type Capabilities struct {
	Rank     int                    `json:"rank"`
	Enabled  bool                   `json:"enabled"`
	Markers  []string               `json:"markers"`
	Supports string                 `json:"supports"`
	Kinds    []classifier.MediaKind `json:"kinds"`
	Strict   bool                   `json:"strict"`
}

// DescribeCapabilities returns the handler metadata. Markers is always empty
// because URLs are claimed by pattern, not by file extension.
func DescribeCapabilities(c *classifier.Classifier) Capabilities {
	kinds := classifier.Kinds()
	kinds = kinds[:len(kinds)-1]
	strict := c != nil && c.Strict()
	if strict {
		filtered := kinds[:0]
		for _, k := range kinds {
			if k != classifier.KindGenericResource {
				filtered = append(filtered, k)
			}
		}
		kinds = filtered
	}

	return Capabilities{
		Rank:     Rank,
		Enabled:  true,
		Markers:  []string{},
		Supports: SupportsDescription,
		Kinds:    kinds,
		Strict:   strict,
	}
}
