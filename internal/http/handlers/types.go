package handlers

import (
	"time"

	"github.com/jmylchreest/supervideo/internal/classifier"
	"github.com/jmylchreest/supervideo/internal/embed"
	"github.com/jmylchreest/supervideo/internal/models"
	"github.com/jmylchreest/supervideo/internal/service"
)

// ViewResponse represents a view record in API responses.
type ViewResponse struct {
	ID          string               `json:"id"`
	URL         string               `json:"url"`
	Kind        classifier.MediaKind `json:"kind"`
	CurrentTime int                  `json:"current_time" doc:"Resume position in seconds"`
	Duration    int                  `json:"duration" doc:"Media duration in seconds, 0 when unknown"`
	Percent     int                  `json:"percent"`
	Complete    bool                 `json:"complete"`
	Mapa        string               `json:"mapa,omitempty" doc:"Opaque view map recorded by the player"`
	HitCount    int64                `json:"hit_count"`
	LastSeenAt  time.Time            `json:"last_seen_at"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ViewFromModel converts a view model to a response.
func ViewFromModel(v *models.View) ViewResponse {
	return ViewResponse{
		ID:          v.ID.String(),
		URL:         v.URL,
		Kind:        v.Kind,
		CurrentTime: v.CurrentTime,
		Duration:    v.Duration,
		Percent:     v.Percent,
		Complete:    v.IsComplete(),
		Mapa:        v.Mapa,
		HitCount:    v.HitCount,
		LastSeenAt:  v.LastSeenAt,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

// ClassificationResponse is one classified URL.
type ClassificationResponse struct {
	URL        string               `json:"url"`
	Kind       classifier.MediaKind `json:"kind"`
	Supported  bool                 `json:"supported"`
	Rule       string               `json:"rule,omitempty"`
	VideoID    string               `json:"video_id,omitempty"`
	AccessHash string               `json:"access_hash,omitempty"`
	HLS        bool                 `json:"hls"`
	Audio      bool                 `json:"audio"`
}

// ClassificationFromResult converts a classifier result to a response.
func ClassificationFromResult(r classifier.Result) ClassificationResponse {
	return ClassificationResponse{
		URL:        r.URL,
		Kind:       r.Kind,
		Supported:  r.Supported(),
		Rule:       r.Rule,
		VideoID:    r.VideoID(),
		AccessHash: r.AccessHash(),
		HLS:        classifier.IsHLS(r.URL),
		Audio:      classifier.IsAudio(r.URL),
	}
}

// EmbedResponse is the rendered player for one URL.
type EmbedResponse struct {
	Kind      classifier.MediaKind `json:"kind"`
	ElementID string               `json:"element_id"`
	PlayerURL string               `json:"player_url,omitempty" doc:"Vimeo player URL, empty for other kinds"`
	HTML      string               `json:"html" doc:"Player markup including the view map block"`
	Scripts   string               `json:"scripts" doc:"Script tags that start the player"`
	Script    embed.ScriptCall     `json:"script"`
	View      ViewResponse         `json:"view"`
}

// EmbedFromResult converts an embed result to a response.
func EmbedFromResult(r *service.EmbedResult) EmbedResponse {
	resp := EmbedResponse{
		Kind:      r.Spec.Kind,
		ElementID: r.Spec.ElementID,
		PlayerURL: r.Spec.PlayerURL,
		HTML:      r.HTML,
		Scripts:   r.Scripts,
		Script:    r.Spec.Script,
	}
	if r.View != nil {
		resp.View = ViewFromModel(r.View)
	}
	return resp
}

// HealthResponse is the detailed health report.
type HealthResponse struct {
	Status        string            `json:"status"`
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	Uptime        string            `json:"uptime"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	CPUInfo       CPUInfo           `json:"cpu_info"`
	Memory        MemoryInfo        `json:"memory"`
	Components    HealthComponents  `json:"components"`
	Checks        map[string]string `json:"checks"`
}

// CPUInfo holds host load averages.
type CPUInfo struct {
	Cores              int     `json:"cores"`
	Load1Min           float64 `json:"load_1min"`
	Load5Min           float64 `json:"load_5min"`
	Load15Min          float64 `json:"load_15min"`
	LoadPercentage1Min float64 `json:"load_percentage_1min"`
}

// MemoryInfo holds host and process memory usage in megabytes.
type MemoryInfo struct {
	TotalMemoryMB     float64 `json:"total_memory_mb"`
	UsedMemoryMB      float64 `json:"used_memory_mb"`
	AvailableMemoryMB float64 `json:"available_memory_mb"`
	ProcessMemoryMB   float64 `json:"process_memory_mb"`
	ProcessPercentage float64 `json:"process_percentage"`
}

// HealthComponents reports the state of each dependency.
type HealthComponents struct {
	Database        DatabaseHealth         `json:"database"`
	Retention       RetentionHealth        `json:"retention"`
	CircuitBreakers []CircuitBreakerStatus `json:"circuit_breakers"`
}

// DatabaseHealth describes the view store connection.
type DatabaseHealth struct {
	Status             string  `json:"status"`
	Driver             string  `json:"driver,omitempty"`
	ConnectionPoolSize int     `json:"connection_pool_size"`
	ActiveConnections  int     `json:"active_connections"`
	IdleConnections    int     `json:"idle_connections"`
	ResponseTimeMS     float64 `json:"response_time_ms"`
}

// RetentionHealth describes the retention scheduler.
type RetentionHealth struct {
	Status      string     `json:"status"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastRemoved int64      `json:"last_removed"`
	LastError   string     `json:"last_error,omitempty"`
}

// CircuitBreakerStatus is the state of one upstream circuit breaker.
type CircuitBreakerStatus struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	Failures int    `json:"failures"`
}
