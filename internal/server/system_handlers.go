package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/fintrack/internal/modules/analytics"
	"github.com/aristath/fintrack/internal/modules/categorization"
	"github.com/aristath/fintrack/internal/scheduler"
)

// HealthChecker verifies database health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	Path() string
}

// ModelSource reports the classifier in use.
type ModelSource interface {
	Current() (*categorization.Model, error)
}

// ReportSource reports the latest analysis run.
type ReportSource interface {
	Latest() (*analytics.Report, error)
}

// SystemHandlers serves runtime status and manual job triggers
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	db          HealthChecker
	models      ModelSource
	reports     ReportSource
	runner      *scheduler.Scheduler
	jobs        map[string]scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	db HealthChecker,
	models ModelSource,
	reports ReportSource,
	runner *scheduler.Scheduler,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		db:          db,
		models:      models,
		reports:     reports,
		runner:      runner,
		jobs:        make(map[string]scheduler.Job),
	}
}

// SetJobs registers job references for manual triggering. Nil jobs are skipped.
func (h *SystemHandlers) SetJobs(jobs ...scheduler.Job) {
	for _, job := range jobs {
		if job == nil {
			continue
		}
		h.jobs[job.Name()] = job
	}
}

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status            string  `json:"status"` // "healthy" or "degraded"
	UptimeSeconds     float64 `json:"uptime_seconds"`
	CPUPercent        float64 `json:"cpu_percent"`
	RAMPercent        float64 `json:"ram_percent"`
	ClassifierVersion string  `json:"classifier_version,omitempty"`
	ClassifierTrained string  `json:"classifier_trained_at,omitempty"`
	LastRunID         string  `json:"last_run_id,omitempty"`
	LastRunAt         string  `json:"last_run_at,omitempty"`
	Transactions      int     `json:"transactions"`
	Flagged           int     `json:"flagged"`
}

// JobsStatusResponse lists the jobs that can be triggered
type JobsStatusResponse struct {
	TotalJobs int      `json:"total_jobs"`
	Jobs      []string `json:"jobs"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Path        string  `json:"path"`
	SizeMB      float64 `json:"size_mb"`
	WALSizeMB   float64 `json:"wal_size_mb"`
	Healthy     bool    `json:"healthy"`
	Error       string  `json:"error,omitempty"`
	LastChecked string  `json:"last_checked"`
}

// DiskUsageResponse represents disk usage statistics
type DiskUsageResponse struct {
	DataDirMB   float64 `json:"data_dir_mb"`
	ArtifactsMB float64 `json:"artifacts_mb"`
}

// HandleSystemStatus returns runtime and pipeline status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()
	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
	}

	if model, err := h.models.Current(); err == nil {
		response.ClassifierVersion = model.Version
		response.ClassifierTrained = model.TrainedAt.Format(time.RFC3339)
	} else {
		response.Status = "degraded"
	}
	if report, err := h.reports.Latest(); err == nil {
		response.LastRunID = report.RunID
		response.LastRunAt = report.CompletedAt.Format(time.RFC3339)
		response.Transactions = len(report.Transactions)
		response.Flagged = len(report.Flagged)
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns database size and integrity
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	path := h.db.Path()
	response := DatabaseStatsResponse{
		Path:        path,
		SizeMB:      fileSizeMB(path),
		WALSizeMB:   fileSizeMB(path + "-wal"),
		Healthy:     true,
		LastChecked: time.Now().Format(time.RFC3339),
	}
	if err := h.db.HealthCheck(r.Context()); err != nil {
		response.Healthy = false
		response.Error = err.Error()
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDiskUsage returns disk usage statistics
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting disk usage")

	h.writeJSON(w, http.StatusOK, DiskUsageResponse{
		DataDirMB:   h.getDirSize(h.dataDir),
		ArtifactsMB: h.getDirSize(filepath.Join(h.dataDir, "model")),
	})
}

// HandleJobsStatus lists triggerable jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	h.writeJSON(w, http.StatusOK, JobsStatusResponse{TotalJobs: len(names), Jobs: names})
}

// HandleTriggerJob runs a registered job immediately
// POST /api/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job: " + name})
		return
	}

	if err := h.runner.RunNow(job); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Triggered job failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": name + " completed",
	})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages over a 100ms sample
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func fileSizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / 1024 / 1024
}
