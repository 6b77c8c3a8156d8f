package handlers

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"gorm.io/gorm"

	"github.com/skilltree/skilltheme/internal/version"
)

const (
	bytesPerMB         = 1024 * 1024
	slowDatabasePingMS = 100
)

// CacheStatser reports theme cache occupancy.
type CacheStatser interface {
	CacheStats() (compiled, sessions int)
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	version   string
	startTime time.Time
	db        *gorm.DB
	cache     CacheStatser
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
	}
}

// WithDB sets the database connection for health checks.
func (h *HealthHandler) WithDB(db *gorm.DB) *HealthHandler {
	h.db = db
	return h
}

// WithCacheStats sets the source of theme cache statistics.
func (h *HealthHandler) WithCacheStats(cache CacheStatser) *HealthHandler {
	h.cache = cache
	return h
}

// HealthInput is the input for the health check endpoint.
type HealthInput struct{}

// HealthOutput is the output for the health check endpoint.
type HealthOutput struct {
	Body HealthResponse
}

// ProbeInput is the input for the liveness and readiness probes.
type ProbeInput struct{}

// ProbeResponse is the body of a probe response.
type ProbeResponse struct {
	Status     string            `json:"status" enum:"ok,ready,not_ready"`
	Components map[string]string `json:"components,omitempty"`
}

// ProbeOutput is the output for the liveness and readiness probes.
type ProbeOutput struct {
	Status int
	Body   ProbeResponse
}

// Register registers the health routes with the API.
func (h *HealthHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getHealth",
		Method:      "GET",
		Path:        "/api/v1/health",
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
		Description: "Returns 503 until the database answers",
		Tags:        []string{"System"},
	}, h.GetReadyz)
}

// GetHealth returns the health status of the service.
func (h *HealthHandler) GetHealth(ctx context.Context, _ *HealthInput) (*HealthOutput, error) {
	now := time.Now()
	uptime := now.Sub(h.startTime)

	dbHealth := h.getDatabaseHealth(ctx)
	status := "healthy"
	if dbHealth.Status == "error" {
		status = "degraded"
	}

	var themes ThemeCacheHealth
	if h.cache != nil {
		themes.CompiledThemes, themes.Sessions = h.cache.CacheStats()
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:        status,
			Timestamp:     now.UTC().Format(time.RFC3339),
			Version:       h.version,
			Commit:        version.GetInfo().Commit,
			Uptime:        uptime.Round(time.Second).String(),
			UptimeSeconds: uptime.Seconds(),
			CPUInfo:       getCPUInfo(),
			Memory:        getMemoryInfo(),
			Components: HealthComponents{
				Database: dbHealth,
				Themes:   themes,
			},
		},
	}, nil
}

// GetLivez reports that the process is serving requests.
func (h *HealthHandler) GetLivez(_ context.Context, _ *ProbeInput) (*ProbeOutput, error) {
	return &ProbeOutput{Status: 200, Body: ProbeResponse{Status: "ok"}}, nil
}

// GetReadyz reports whether the database is reachable.
func (h *HealthHandler) GetReadyz(ctx context.Context, _ *ProbeInput) (*ProbeOutput, error) {
	components := map[string]string{"database": "not_configured"}
	if h.db != nil {
		components["database"] = h.getDatabaseHealth(ctx).Status
	}

	if components["database"] != "ok" {
		return &ProbeOutput{
			Status: 503,
			Body:   ProbeResponse{Status: "not_ready", Components: components},
		}, nil
	}
	return &ProbeOutput{Status: 200, Body: ProbeResponse{Status: "ready", Components: components}}, nil
}

func getCPUInfo() CPUInfo {
	cores := runtime.NumCPU()
	info := CPUInfo{Cores: cores}

	loadAvg, err := load.Avg()
	if err == nil && loadAvg != nil {
		info.Load1Min = loadAvg.Load1
		info.Load5Min = loadAvg.Load5
		info.Load15Min = loadAvg.Load15
		if cores > 0 {
			info.LoadPercentage1Min = (loadAvg.Load1 / float64(cores)) * 100
		}
	}
	return info
}

func getMemoryInfo() MemoryInfo {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	info := MemoryInfo{
		HeapAllocMB: float64(ms.HeapAlloc) / bytesPerMB,
		Goroutines:  runtime.NumGoroutine(),
	}

	vmStat, err := mem.VirtualMemory()
	if err == nil && vmStat != nil {
		info.TotalMemoryMB = float64(vmStat.Total) / bytesPerMB
		info.UsedMemoryMB = float64(vmStat.Used) / bytesPerMB
		info.AvailableMemoryMB = float64(vmStat.Available) / bytesPerMB
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
			info.ProcessMemoryMB = float64(memInfo.RSS) / bytesPerMB
		}
	}
	return info
}

func (h *HealthHandler) getDatabaseHealth(ctx context.Context) DatabaseHealth {
	health := DatabaseHealth{
		Status:             "ok",
		ResponseTimeStatus: "healthy",
	}

	if h.db == nil {
		health.Status = "unknown"
		return health
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		health.Status = "error"
		return health
	}

	stats := sqlDB.Stats()
	health.ConnectionPoolSize = stats.MaxOpenConnections
	health.ActiveConnections = stats.InUse
	health.IdleConnections = stats.Idle
	if stats.MaxOpenConnections > 0 {
		health.PoolUtilizationPercent = float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	}

	start := time.Now()
	err = sqlDB.PingContext(ctx)
	health.ResponseTimeMS = float64(time.Since(start).Microseconds()) / 1000

	switch {
	case err != nil:
		health.Status = "error"
		health.ResponseTimeStatus = "error"
	case health.ResponseTimeMS > slowDatabasePingMS:
		health.ResponseTimeStatus = "slow"
	}
	return health
}
