package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/mstgnz/stripeconn/infra/response"
)

// StatsProvider reports statistics of an exchange store
type StatsProvider interface {
	GetStats(ctx context.Context) (map[string]any, error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	version     string
	environment string
	processor   string
	recorders   []string
	storage     StatsProvider
	startTime   time.Time
}

// HealthStatus represents overall service health
type HealthStatus struct {
	Status      string         `json:"status"`
	Version     string         `json:"version"`
	Timestamp   time.Time      `json:"timestamp"`
	Uptime      string         `json:"uptime"`
	Environment string         `json:"environment"`
	Processor   string         `json:"processor"`
	Recorders   []string       `json:"recorders"`
	Storage     map[string]any `json:"storage,omitempty"`
	System      *SystemHealth  `json:"system"`
}

// SystemHealth represents process resource usage
type SystemHealth struct {
	Alloc      string `json:"alloc"`
	Sys        string `json:"sys"`
	GCRuns     uint32 `json:"gc_runs"`
	GoRoutines int    `json:"goroutines"`
}

// NewHealthHandler creates a new health handler. recorders names the exchange
// sinks that are switched on.
func NewHealthHandler(version, environment, processor string, recorders ...string) *HealthHandler {
	if recorders == nil {
		recorders = []string{}
	}
	return &HealthHandler{
		version:     version,
		environment: environment,
		processor:   processor,
		recorders:   recorders,
		startTime:   time.Now(),
	}
}

// WithStorageStats adds the exchange store statistics to every report
func (h *HealthHandler) WithStorageStats(storage StatsProvider) *HealthHandler {
	h.storage = storage
	return h
}

// CheckHealth reports liveness. It never calls the processor. A failing
// exchange store marks the service degraded.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := HealthStatus{
		Status:      "ok",
		Version:     h.version,
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Environment: h.environment,
		Processor:   h.processor,
		Recorders:   h.recorders,
		System: &SystemHealth{
			Alloc:      formatBytes(memStats.Alloc),
			Sys:        formatBytes(memStats.Sys),
			GCRuns:     memStats.NumGC,
			GoRoutines: runtime.NumGoroutine(),
		},
	}

	if h.storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		stats, err := h.storage.GetStats(ctx)
		if err != nil {
			status.Status = "degraded"
			stats = map[string]any{"error": err.Error()}
		}
		status.Storage = stats
	}

	response.Success(w, http.StatusOK, "Service is healthy", status)
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
