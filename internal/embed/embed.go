// Package embed turns a classification result into an embed Spec: the
// template to render, the player script call to queue and the view-map
// block shown next to the player.
package embed

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"

	"github.com/jmylchreest/supervideo/internal/classifier"
)

// Template names.
const (
	TemplateEmbedDiv   = "embed_div"
	TemplateEmbedVimeo = "embed_vimeo"
	TemplateMapa       = "mapa"
)

// Player script entry point and the per-kind modules it exposes.
const (
	PlayerEntry         = "supervideo/player_create"
	ModuleYouTube       = "youtube"
	ModuleVimeo         = "vimeo"
	ModuleResourceVideo = "resource_video"
	ModuleResourceAudio = "resource_audio"
)

// YouTubeIframeAPI is loaded before any YouTube embed.
const YouTubeIframeAPI = "https://www.youtube.com/iframe_api"

// ElementIDPrefix prefixes every player element id.
const ElementIDPrefix = "media_supervideo-"

// MapaHeading is the label rendered above the view map.
const MapaHeading = "Your view map"

// vimeoParams is sent to the Vimeo player; the duplicate title key matches
// what the player script expects.
var vimeoParams = []string{
	"pip=1",
	"title=0",
	"byline=0",
	"title=1",
	"autoplay=0",
	"controls=1",
}

// VimeoParameters returns the Vimeo player query parameters joined with an
// HTML-escaped ampersand.
func VimeoParameters() string {
	return strings.Join(vimeoParams, "&amp;")
}

// VimeoPlayerURL composes the player URL handed to the Vimeo module:
// "<id>?h=<hash>&pip<params>" or "<id>?pip<params>" without a hash.
func VimeoPlayerURL(id, hash string) string {
	if hash != "" {
		return id + "?h=" + hash + "&pip" + VimeoParameters()
	}
	return id + "?pip" + VimeoParameters()
}

// PlayerDefaults are the configured options for the generic resource player.
type PlayerDefaults struct {
	Controls string `json:"controls"`
	Speed    string `json:"speed"`
}

// ConfigProvider supplies PlayerDefaults.
type ConfigProvider interface {
	PlayerDefaults() PlayerDefaults
}

// StaticConfig is a ConfigProvider returning fixed defaults.
type StaticConfig PlayerDefaults

// PlayerDefaults implements ConfigProvider.
func (s StaticConfig) PlayerDefaults() PlayerDefaults {
	return PlayerDefaults(s)
}

// ViewState is the resume state a player is started with.
type ViewState struct {
	ID          string
	CurrentTime int
	Mapa        []byte
}

// TemplateCall names a template and the fields it is rendered with.
type TemplateCall struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

// ScriptCall is a queued call into the client player script.
type ScriptCall struct {
	Entry  string `json:"entry"`
	Module string `json:"module"`
	Args   []any  `json:"args"`
}

// Spec describes everything needed to embed one URL.
type Spec struct {
	Kind      classifier.MediaKind `json:"kind"`
	URL       string               `json:"url"`
	ElementID string               `json:"element_id"`
	// Prelude is trusted markup emitted before the template.
	Prelude   string       `json:"prelude,omitempty"`
	Template  TemplateCall `json:"template"`
	Script    ScriptCall   `json:"script"`
	Mapa      TemplateCall `json:"mapa"`
	PlayerURL string       `json:"player_url,omitempty"`
	HLS       bool         `json:"hls"`
	Audio     bool         `json:"audio"`
}

// Selector builds Specs. It is safe for concurrent use.
type Selector struct {
	config ConfigProvider
	newID  func() string
}

// NewSelector creates a Selector reading player defaults from cfg.
func NewSelector(cfg ConfigProvider) *Selector {
	if cfg == nil {
		cfg = StaticConfig{}
	}
	return &Selector{
		config: cfg,
		newID:  uuid.NewString,
	}
}

// WithIDGenerator replaces the unique part of generated element ids.
func (s *Selector) WithIDGenerator(fn func() string) *Selector {
	s.newID = fn
	return s
}

// NewElementID returns a fresh player element id.
func (s *Selector) NewElementID() string {
	return ElementIDPrefix + s.newID()
}

// Select maps res to a Spec. Every kind yields a Spec; unsupported results
// fall through to the resource video player and should be filtered by the
// caller beforehand.
func (s *Selector) Select(res classifier.Result, view ViewState) Spec {
	spec := Spec{
		Kind:      res.Kind,
		URL:       res.URL,
		ElementID: s.NewElementID(),
		Mapa:      mapaCall(view),
	}

	switch res.Kind {
	case classifier.KindYouTube:
		s.youTube(&spec, res, view)
	case classifier.KindVimeo:
		s.vimeo(&spec, res, view)
	default:
		s.resource(&spec, view)
	}
	return spec
}

func (s *Selector) youTube(spec *Spec, res classifier.Result, view ViewState) {
	spec.Prelude = "<script src='" + YouTubeIframeAPI + "'></script>"
	spec.Template = TemplateCall{
		Name: TemplateEmbedDiv,
		Data: map[string]any{"elementid": spec.ElementID},
	}
	spec.Script = ScriptCall{
		Entry:  PlayerEntry,
		Module: ModuleYouTube,
		Args:   []any{view.ID, view.CurrentTime, spec.ElementID, res.VideoID(), "", 1, 0},
	}
}

func (s *Selector) vimeo(spec *Spec, res classifier.Result, view ViewState) {
	spec.PlayerURL = VimeoPlayerURL(res.VideoID(), res.AccessHash())
	spec.Template = TemplateCall{
		Name: TemplateEmbedVimeo,
		Data: map[string]any{
			"elementid":       spec.ElementID,
			"vimeo_id":        res.URL,
			"parametersvimeo": VimeoParameters(),
		},
	}
	spec.Script = ScriptCall{
		Entry:  PlayerEntry,
		Module: ModuleVimeo,
		Args:   []any{view.ID, view.CurrentTime, spec.PlayerURL, spec.ElementID},
	}
}

func (s *Selector) resource(spec *Spec, view ViewState) {
	defaults := s.config.PlayerDefaults()
	spec.HLS = classifier.IsHLS(spec.URL)
	spec.Audio = classifier.IsAudio(spec.URL)

	spec.Template = TemplateCall{
		Name: TemplateEmbedDiv,
		Data: map[string]any{
			"elementid":    spec.ElementID,
			"videourl":     spec.URL,
			"autoplay":     0,
			"showcontrols": 1,
			"controls":     defaults.Controls,
			"speed":        defaults.Speed,
			"hls":          flag(spec.HLS),
			"has_audio":    flag(spec.Audio),
		},
	}

	module := ModuleResourceVideo
	if spec.Audio {
		module = ModuleResourceAudio
	}
	spec.Script = ScriptCall{
		Entry:  PlayerEntry,
		Module: module,
		Args:   []any{view.ID, view.CurrentTime, spec.ElementID, flag(spec.HLS)},
	}
}

func mapaCall(view ViewState) TemplateCall {
	return TemplateCall{
		Name: TemplateMapa,
		Data: map[string]any{
			"style":     "",
			"data-mapa": base64.StdEncoding.EncodeToString(view.Mapa),
			"text":      MapaHeading,
		},
	}
}

// flag renders a boolean the way the player script reads it.
func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
