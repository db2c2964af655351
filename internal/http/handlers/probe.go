package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/supervideo/internal/service"
)

// Prober fetches and describes HLS manifests.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (*service.ProbeResult, error)
}

// ProbeHandler serves the HLS manifest probe.
type ProbeHandler struct {
	prober Prober
}

// NewProbeHandler creates a new probe handler.
func NewProbeHandler(prober Prober) *ProbeHandler {
	return &ProbeHandler{prober: prober}
}

// Register registers the probe route with the API.
func (h *ProbeHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "probeHLS",
		Method:      "POST",
		Path:        "/api/v1/probe",
		Summary:     "Probe HLS manifest",
		Description: "Fetches an .m3u8 manifest and reports its variants or segments",
		Tags:        []string{"Media"},
	}, h.Probe)
}

// ProbeInput is the input for the probe endpoint.
type ProbeInput struct {
	Body struct {
		URL string `json:"url" minLength:"1" maxLength:"2048" doc:"HLS manifest URL"`
	}
}

// ProbeOutput is the output for the probe endpoint.
type ProbeOutput struct {
	Body *service.ProbeResult
}

// Probe fetches and parses the manifest.
func (h *ProbeHandler) Probe(ctx context.Context, input *ProbeInput) (*ProbeOutput, error) {
	result, err := h.prober.Probe(ctx, input.Body.URL)
	switch {
	case err == nil:
		return &ProbeOutput{Body: result}, nil
	case errors.Is(err, service.ErrProbeDisabled):
		return nil, huma.Error503ServiceUnavailable("hls probing is disabled")
	case errors.Is(err, service.ErrNotHLS):
		return nil, huma.Error422UnprocessableEntity("url is not an HLS manifest", err)
	case errors.Is(err, context.DeadlineExceeded):
		return nil, huma.Error504GatewayTimeout("manifest fetch timed out", err)
	default:
		return nil, huma.Error502BadGateway("failed to probe manifest", err)
	}
}
