package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/models"
	"github.com/jmylchreest/supervideo/internal/repository"
	"github.com/jmylchreest/supervideo/internal/service"
)

// ViewServiceInterface is the view service as seen by the view handler.
type ViewServiceInterface interface {
	GetByID(ctx context.Context, id string) (*models.View, error)
	GetByURL(ctx context.Context, url string) (*models.View, error)
	List(ctx context.Context, opts repository.ViewListOptions) ([]*models.View, int64, error)
	RecordProgress(ctx context.Context, id string, currentTime, duration int, mapa string) (*models.View, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*repository.ViewStats, error)
}

// ViewHandler handles view record endpoints.
type ViewHandler struct {
	viewService ViewServiceInterface
}

// NewViewHandler creates a new view handler.
func NewViewHandler(viewService ViewServiceInterface) *ViewHandler {
	return &ViewHandler{viewService: viewService}
}

// Register registers the view routes with the API.
func (h *ViewHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listViews",
		Method:      "GET",
		Path:        "/api/v1/views",
		Summary:     "List views",
		Description: "Returns view records, most recently seen first",
		Tags:        []string{"Views"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getViewStats",
		Method:      "GET",
		Path:        "/api/v1/views/stats",
		Summary:     "Get view statistics",
		Tags:        []string{"Views"},
	}, h.GetStats)

	huma.Register(api, huma.Operation{
		OperationID: "getView",
		Method:      "GET",
		Path:        "/api/v1/views/{id}",
		Summary:     "Get view",
		Description: "Returns a view record by ID",
		Tags:        []string{"Views"},
	}, h.GetByID)

	huma.Register(api, huma.Operation{
		OperationID: "recordViewProgress",
		Method:      "PUT",
		Path:        "/api/v1/views/{id}/progress",
		Summary:     "Record progress",
		Description: "Stores the playback position, duration and view map reported by a player",
		Tags:        []string{"Views"},
	}, h.RecordProgress)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteView",
		Method:        "DELETE",
		Path:          "/api/v1/views/{id}",
		Summary:       "Delete view",
		Tags:          []string{"Views"},
		DefaultStatus: 204,
	}, h.Delete)
}

// ListViewsInput is the input for listing views.
type ListViewsInput struct {
	Kind   string `query:"kind" doc:"Filter by media kind" enum:"supervideo_hosted,mp4,mp3,webm,youtube,vimeo,hls_stream,generic_resource"`
	URL    string `query:"url" doc:"Return only the view for this exact URL"`
	Limit  int    `query:"limit" minimum:"0" maximum:"500" doc:"Page size (default 50)"`
	Offset int    `query:"offset" minimum:"0"`
}

// ListViewsOutput is the output for listing views.
type ListViewsOutput struct {
	Body struct {
		Views []ViewResponse `json:"views"`
		Total int64          `json:"total"`
	}
}

// List returns a page of views.
func (h *ViewHandler) List(ctx context.Context, input *ListViewsInput) (*ListViewsOutput, error) {
	resp := &ListViewsOutput{}
	resp.Body.Views = []ViewResponse{}

	if input.URL != "" {
		view, err := h.viewService.GetByURL(ctx, input.URL)
		if errors.Is(err, service.ErrViewNotFound) {
			return resp, nil
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get view", err)
		}
		resp.Body.Views = append(resp.Body.Views, ViewFromModel(view))
		resp.Body.Total = 1
		return resp, nil
	}

	views, total, err := h.viewService.List(ctx, repository.ViewListOptions{
		Kind:   classifier.MediaKind(input.Kind),
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list views", err)
	}

	for _, v := range views {
		resp.Body.Views = append(resp.Body.Views, ViewFromModel(v))
	}
	resp.Body.Total = total
	return resp, nil
}

// GetViewStatsInput is the input for view statistics.
type GetViewStatsInput struct{}

// GetViewStatsOutput is the output for view statistics.
type GetViewStatsOutput struct {
	Body *repository.ViewStats
}

// GetStats returns aggregate view statistics.
func (h *ViewHandler) GetStats(ctx context.Context, input *GetViewStatsInput) (*GetViewStatsOutput, error) {
	stats, err := h.viewService.Stats(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get view stats", err)
	}
	return &GetViewStatsOutput{Body: stats}, nil
}

// GetViewInput is the input for getting a view.
type GetViewInput struct {
	ID string `path:"id" doc:"View ID (ULID)"`
}

// GetViewOutput is the output for getting a view.
type GetViewOutput struct {
	Body ViewResponse
}

// GetByID returns a view by ID.
func (h *ViewHandler) GetByID(ctx context.Context, input *GetViewInput) (*GetViewOutput, error) {
	view, err := h.viewService.GetByID(ctx, input.ID)
	if err != nil {
		return nil, viewError(input.ID, "failed to get view", err)
	}
	return &GetViewOutput{Body: ViewFromModel(view)}, nil
}

// RecordProgressInput is the input for recording playback progress.
type RecordProgressInput struct {
	ID   string `path:"id" doc:"View ID (ULID)"`
	Body struct {
		CurrentTime int    `json:"current_time" minimum:"0" doc:"Playback position in seconds"`
		Duration    int    `json:"duration,omitempty" minimum:"0" doc:"Media duration in seconds, 0 when unknown"`
		Mapa        string `json:"mapa,omitempty" maxLength:"65535" doc:"Opaque view map"`
	}
}

// RecordProgressOutput is the output for recording playback progress.
type RecordProgressOutput struct {
	Body ViewResponse
}

// RecordProgress stores a player's reported position.
func (h *ViewHandler) RecordProgress(ctx context.Context, input *RecordProgressInput) (*RecordProgressOutput, error) {
	view, err := h.viewService.RecordProgress(ctx, input.ID, input.Body.CurrentTime, input.Body.Duration, input.Body.Mapa)
	if err != nil {
		if errors.Is(err, service.ErrInvalidProgress) {
			return nil, huma.Error400BadRequest(err.Error())
		}
		return nil, viewError(input.ID, "failed to record progress", err)
	}
	return &RecordProgressOutput{Body: ViewFromModel(view)}, nil
}

// DeleteViewInput is the input for deleting a view.
type DeleteViewInput struct {
	ID string `path:"id" doc:"View ID (ULID)"`
}

// DeleteViewOutput is the output for deleting a view.
type DeleteViewOutput struct{}

// Delete removes a view.
func (h *ViewHandler) Delete(ctx context.Context, input *DeleteViewInput) (*DeleteViewOutput, error) {
	if err := h.viewService.Delete(ctx, input.ID); err != nil {
		return nil, viewError(input.ID, "failed to delete view", err)
	}
	return &DeleteViewOutput{}, nil
}

func viewError(id, msg string, err error) error {
	if errors.Is(err, service.ErrViewNotFound) {
		return huma.Error404NotFound(fmt.Sprintf("view %s not found", id))
	}
	return huma.Error500InternalServerError(msg, err)
}
