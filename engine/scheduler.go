package engine

import (
	"fmt"
	"log/slog"
	"time"

	database "github.com/drummonds/pdfpages/database"
	"github.com/robfig/cron/v3"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// InitializeSchedules starts the housekeeping cron job. The caller stops the
// returned scheduler on shutdown.
func (serverHandler *ServerHandler) InitializeSchedules() *cron.Cron {
	interval := serverHandler.ServerConfig.CleanupInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	c := cron.New()
	var cleanupJob cron.Job
	cleanupJob = cron.FuncJob(func() { serverHandler.cleanupJobFunc() })
	cleanupJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(cleanupJob) //ensure we don't kick off another if old one is still running
	if _, err := c.AddJob(fmt.Sprintf("@every %s", interval), cleanupJob); err != nil {
		Logger.Error("Failed to schedule cleanup job", "interval", interval, "error", err)
		return c
	}
	Logger.Info("Adding cleanup job scheduler", "interval", interval)
	c.Start()
	return c
}

// cleanupJobFunc drops idle sessions with their pages and forgets old jobs
func (serverHandler *ServerHandler) cleanupJobFunc() database.JobSummary {
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in cleanup job", "panic", r)
		}
	}()

	job := serverHandler.startJob(nil, database.JobTypeCleanup, "Pruning idle sessions and old jobs")
	job.running("Pruning idle sessions")

	summary := database.JobSummary{}
	if serverHandler.Sessions != nil {
		summary.Sessions = serverHandler.Sessions.Prune()
	}

	job.step(1, 2, "Deleting old jobs")
	if serverHandler.DB != nil {
		deleted, err := serverHandler.DB.DeleteOldJobs(serverHandler.ServerConfig.JobRetention)
		if err != nil {
			Logger.Error("Failed to delete old jobs", "error", err)
			job.fail(fmt.Errorf("deleting old jobs: %w", err))
			return summary
		}
		summary.Jobs = deleted
	}

	job.complete(fmt.Sprintf("Dropped %d idle sessions and %d old jobs", summary.Sessions, summary.Jobs), summary)
	Logger.Info("Cleanup complete", "sessionsPruned", summary.Sessions, "jobsDeleted", summary.Jobs)
	return summary
}
