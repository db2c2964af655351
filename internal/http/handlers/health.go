// Package handlers provides HTTP API handlers for supervideo.
package handlers

import (
	"context"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/jmylchreest/supervideo/internal/scheduler"
	"github.com/jmylchreest/supervideo/pkg/httpclient"
)

// DatabasePinger is the subset of the database used for health checks.
type DatabasePinger interface {
	Ping(ctx context.Context) error
	Driver() string
	Stats() (map[string]any, error)
}

// RetentionStatus is the subset of the retention scheduler used for health
// checks.
type RetentionStatus interface {
	Running() bool
	NextRun() time.Time
	LastRun() *scheduler.RunResult
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	version   string
	startTime time.Time
	cbManager *httpclient.CircuitBreakerManager
	db        DatabasePinger
	retention RetentionStatus
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
		cbManager: httpclient.DefaultManager,
	}
}

// WithCircuitBreakerManager sets a custom circuit breaker manager.
func (h *HealthHandler) WithCircuitBreakerManager(manager *httpclient.CircuitBreakerManager) *HealthHandler {
	h.cbManager = manager
	return h
}

// WithDB sets the database used for readiness checks.
func (h *HealthHandler) WithDB(db DatabasePinger) *HealthHandler {
	h.db = db
	return h
}

// WithRetention sets the retention scheduler reported under components.
func (h *HealthHandler) WithRetention(r RetentionStatus) *HealthHandler {
	h.retention = r
	return h
}

// HealthInput is the input for the health check endpoint.
type HealthInput struct{}

// HealthOutput is the output for the health check endpoint.
type HealthOutput struct {
	Body HealthResponse
}

// LivezInput is the input for the liveness probe.
type LivezInput struct{}

// LivezOutput is the output for the liveness probe.
type LivezOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// ReadyzInput is the input for the readiness probe.
type ReadyzInput struct{}

// ReadyzOutput is the output for the readiness probe.
type ReadyzOutput struct {
	Status int
	Body   struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
}

// Register registers the health routes with the API.
func (h *HealthHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getHealth",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service including system metrics",
		Tags:        []string{"System"},
	}, h.GetHealth)

	huma.Register(api, huma.Operation{
		OperationID: "getLivez",
		Method:      "GET",
		Path:        "/livez",
		Summary:     "Liveness probe",
		Tags:        []string{"System"},
	}, h.GetLivez)

	huma.Register(api, huma.Operation{
		OperationID: "getReadyz",
		Method:      "GET",
		Path:        "/readyz",
		Summary:     "Readiness probe",
		Description: "Returns 503 until the view store answers",
		Tags:        []string{"System"},
	}, h.GetReadyz)
}

// GetLivez reports that the process is serving requests.
func (h *HealthHandler) GetLivez(ctx context.Context, input *LivezInput) (*LivezOutput, error) {
	out := &LivezOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// GetReadyz reports whether the view store is reachable.
func (h *HealthHandler) GetReadyz(ctx context.Context, input *ReadyzInput) (*ReadyzOutput, error) {
	out := &ReadyzOutput{Status: 200}
	out.Body.Status = "ready"
	out.Body.Components = map[string]string{"database": "ok"}

	switch {
	case h.db == nil:
		out.Body.Components["database"] = "not_configured"
	case h.db.Ping(ctx) != nil:
		out.Body.Components["database"] = "error"
	}

	if out.Body.Components["database"] != "ok" {
		out.Status = 503
		out.Body.Status = "not_ready"
	}
	return out, nil
}

// GetHealth returns the health status of the service.
func (h *HealthHandler) GetHealth(ctx context.Context, input *HealthInput) (*HealthOutput, error) {
	now := time.Now()
	uptime := now.Sub(h.startTime)

	dbHealth := h.getDatabaseHealth(ctx)
	status := "healthy"
	if dbHealth.Status == "error" {
		status = "degraded"
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:        status,
			Timestamp:     now.UTC().Format(time.RFC3339),
			Version:       h.version,
			Uptime:        uptime.Round(time.Second).String(),
			UptimeSeconds: uptime.Seconds(),
			CPUInfo:       getCPUInfo(),
			Memory:        getMemoryInfo(),
			Components: HealthComponents{
				Database:        dbHealth,
				Retention:       h.getRetentionHealth(),
				CircuitBreakers: h.getCircuitBreakers(),
			},
			Checks: map[string]string{
				"database": dbHealth.Status,
			},
		},
	}, nil
}

func getCPUInfo() CPUInfo {
	info := CPUInfo{Cores: runtime.NumCPU()}

	loadAvg, err := load.Avg()
	if err == nil && loadAvg != nil {
		info.Load1Min = loadAvg.Load1
		info.Load5Min = loadAvg.Load5
		info.Load15Min = loadAvg.Load15
		if info.Cores > 0 {
			info.LoadPercentage1Min = loadAvg.Load1 / float64(info.Cores) * 100
		}
	}
	return info
}

const mb = 1024 * 1024

func getMemoryInfo() MemoryInfo {
	info := MemoryInfo{}

	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		info.TotalMemoryMB = float64(vm.Total) / mb
		info.UsedMemoryMB = float64(vm.Used) / mb
		info.AvailableMemoryMB = float64(vm.Available) / mb
	}

	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return info
	}
	if pm, err := proc.MemoryInfo(); err == nil && pm != nil {
		info.ProcessMemoryMB = float64(pm.RSS) / mb
		if info.TotalMemoryMB > 0 {
			info.ProcessPercentage = info.ProcessMemoryMB / info.TotalMemoryMB * 100
		}
	}
	return info
}

func (h *HealthHandler) getDatabaseHealth(ctx context.Context) DatabaseHealth {
	health := DatabaseHealth{Status: "ok"}
	if h.db == nil {
		health.Status = "unknown"
		return health
	}
	health.Driver = h.db.Driver()

	if stats, err := h.db.Stats(); err == nil {
		health.ConnectionPoolSize, _ = stats["max_open_connections"].(int)
		health.ActiveConnections, _ = stats["in_use"].(int)
		health.IdleConnections, _ = stats["idle"].(int)
	}

	start := time.Now()
	err := h.db.Ping(ctx)
	health.ResponseTimeMS = float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		health.Status = "error"
	}
	return health
}

func (h *HealthHandler) getRetentionHealth() RetentionHealth {
	if h.retention == nil || !h.retention.Running() {
		return RetentionHealth{Status: "disabled"}
	}

	health := RetentionHealth{Status: "ok"}
	if next := h.retention.NextRun(); !next.IsZero() {
		health.NextRun = &next
	}
	if last := h.retention.LastRun(); last != nil {
		started := last.StartedAt
		health.LastRun = &started
		health.LastRemoved = last.Removed
		health.LastError = last.Error
		if last.Error != "" {
			health.Status = "error"
		}
	}
	return health
}

func (h *HealthHandler) getCircuitBreakers() []CircuitBreakerStatus {
	breakers := []CircuitBreakerStatus{}
	if h.cbManager == nil {
		return breakers
	}
	for name, s := range h.cbManager.GetAllStats() {
		breakers = append(breakers, CircuitBreakerStatus{
			Name:     name,
			State:    s.State,
			Failures: s.Failures,
		})
	}
	sort.Slice(breakers, func(i, j int) bool { return breakers[i].Name < breakers[j].Name })
	return breakers
}
