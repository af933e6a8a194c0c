package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/config"
	"github.com/aristath/fintrack/internal/scheduler"
)

// RegisterJobs creates the scheduler and registers the background jobs.
// An empty schedule leaves the job unregistered.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	jobs := &JobInstances{}

	jobs.Checkpoint = scheduler.NewCheckpointJob(container.DB.Conn())
	jobs.Checkpoint.SetLogger(log.With().Str("job", "wal_checkpoint").Logger())
	if cfg.CheckpointSchedule != "" {
		if err := sched.AddJob(cfg.CheckpointSchedule, jobs.Checkpoint); err != nil {
			return nil, fmt.Errorf("failed to register checkpoint job: %w", err)
		}
	}

	if cfg.AnalyticsSchedule != "" {
		jobs.LedgerAnalysis = scheduler.NewLedgerAnalysisJob(container.LoadLedger, container.AnalyticsService, container.Reports)
		jobs.LedgerAnalysis.SetLogger(log.With().Str("job", "ledger_analysis").Logger())
		if err := sched.AddJob(cfg.AnalyticsSchedule, jobs.LedgerAnalysis); err != nil {
			return nil, fmt.Errorf("failed to register ledger analysis job: %w", err)
		}
	}

	container.Scheduler = sched
	log.Info().Int("jobs", sched.Jobs()).Msg("Jobs registered")
	return jobs, nil
}
