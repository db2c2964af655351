package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/samber/lo"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/embed"
	"github.com/jmylchreest/supervideo/internal/service"
)

// MaxClassifyBatch bounds the number of URLs in one classify request.
const MaxClassifyBatch = 1000

// EmbedServiceInterface is the embed service as seen by the media handler.
type EmbedServiceInterface interface {
	Classify(rawURL string) classifier.Result
	ClassifyAll(urls []string) []classifier.Result
	Capabilities() embed.Capabilities
	Embed(ctx context.Context, rawURL string) (*service.EmbedResult, error)
}

// MediaHandler serves classification, capability and embed endpoints.
type MediaHandler struct {
	embedService EmbedServiceInterface
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(embedService EmbedServiceInterface) *MediaHandler {
	return &MediaHandler{embedService: embedService}
}

// Register registers the media routes with the API.
func (h *MediaHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getCapabilities",
		Method:      "GET",
		Path:        "/api/v1/capabilities",
		Summary:     "Get capabilities",
		Description: "Returns the handler rank, supported kinds and description",
		Tags:        []string{"Media"},
	}, h.GetCapabilities)

	huma.Register(api, huma.Operation{
		OperationID: "classifyURL",
		Method:      "GET",
		Path:        "/api/v1/classify",
		Summary:     "Classify URL",
		Description: "Classifies a single media URL",
		Tags:        []string{"Media"},
	}, h.ClassifyOne)

	huma.Register(api, huma.Operation{
		OperationID: "classifyURLs",
		Method:      "POST",
		Path:        "/api/v1/classify",
		Summary:     "Classify URLs",
		Description: "Classifies a batch of media URLs and returns the supported subset",
		Tags:        []string{"Media"},
	}, h.ClassifyBatch)

	huma.Register(api, huma.Operation{
		OperationID: "renderEmbed",
		Method:      "POST",
		Path:        "/api/v1/embed",
		Summary:     "Render embed",
		Description: "Renders the player markup and start script for a media URL",
		Tags:        []string{"Media"},
	}, h.Embed)
}

// GetCapabilitiesInput is the input for the capabilities endpoint.
type GetCapabilitiesInput struct{}

// GetCapabilitiesOutput is the output for the capabilities endpoint.
type GetCapabilitiesOutput struct {
	Body embed.Capabilities
}

// GetCapabilities returns the handler capabilities.
func (h *MediaHandler) GetCapabilities(ctx context.Context, input *GetCapabilitiesInput) (*GetCapabilitiesOutput, error) {
	return &GetCapabilitiesOutput{Body: h.embedService.Capabilities()}, nil
}

// ClassifyOneInput is the input for classifying a single URL.
type ClassifyOneInput struct {
	URL string `query:"url" required:"true" doc:"Media URL to classify"`
}

// ClassifyOneOutput is the output for classifying a single URL.
type ClassifyOneOutput struct {
	Body ClassificationResponse
}

// ClassifyOne classifies a single URL.
func (h *MediaHandler) ClassifyOne(ctx context.Context, input *ClassifyOneInput) (*ClassifyOneOutput, error) {
	return &ClassifyOneOutput{Body: ClassificationFromResult(h.embedService.Classify(input.URL))}, nil
}

// ClassifyBatchInput is the input for batch classification.
type ClassifyBatchInput struct {
	Body struct {
		URLs []string `json:"urls" minItems:"1" maxItems:"1000" doc:"Media URLs to classify"`
	}
}

// ClassifyBatchOutput is the output for batch classification.
type ClassifyBatchOutput struct {
	Body struct {
		Results   []ClassificationResponse `json:"results"`
		Supported []string                 `json:"supported" doc:"Supported URLs in input order"`
	}
}

// ClassifyBatch classifies every URL in the request.
func (h *MediaHandler) ClassifyBatch(ctx context.Context, input *ClassifyBatchInput) (*ClassifyBatchOutput, error) {
	if len(input.Body.URLs) > MaxClassifyBatch {
		return nil, huma.Error400BadRequest("too many urls")
	}

	results := h.embedService.ClassifyAll(input.Body.URLs)

	resp := &ClassifyBatchOutput{}
	resp.Body.Results = lo.Map(results, func(r classifier.Result, _ int) ClassificationResponse {
		return ClassificationFromResult(r)
	})
	resp.Body.Supported = lo.FilterMap(results, func(r classifier.Result, _ int) (string, bool) {
		return r.URL, r.Supported()
	})
	return resp, nil
}

// EmbedInput is the input for rendering an embed.
type EmbedInput struct {
	Body struct {
		URL string `json:"url" minLength:"1" maxLength:"2048" doc:"Media URL to embed"`
	}
}

// EmbedOutput is the output for rendering an embed.
type EmbedOutput struct {
	Body EmbedResponse
}

// Embed renders the player for a URL.
func (h *MediaHandler) Embed(ctx context.Context, input *EmbedInput) (*EmbedOutput, error) {
	result, err := h.embedService.Embed(ctx, input.Body.URL)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedURL) {
			return nil, huma.Error422UnprocessableEntity("url is not supported", err)
		}
		return nil, huma.Error500InternalServerError("failed to render embed", err)
	}
	return &EmbedOutput{Body: EmbedFromResult(result)}, nil
}
