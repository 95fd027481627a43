package database

import (
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// Repository defines database operations. Only job metadata is stored:
// documents and rendered pages never reach the database.
type Repository interface {
	Close() error
	CreateJob(sessionID string, jobType JobType, message string) (*Job, error)
	UpdateJobProgress(jobID ulid.ULID, progress, totalSteps int, currentStep string) error
	UpdateJobStatus(jobID ulid.ULID, status JobStatus, message string) error
	UpdateJobError(jobID ulid.ULID, errorMsg string) error
	CompleteJob(jobID ulid.ULID, message, result string) error
	GetJob(jobID ulid.ULID) (*Job, error)
	GetRecentJobs(query JobQuery, limit, offset int) ([]Job, error)
	GetActiveJobs(query JobQuery) ([]Job, error)
	DeleteOldJobs(olderThan time.Duration) (int, error)
}

// JobQuery narrows a job listing to one browser session. Housekeeping jobs
// belong to no session and are listed for everyone. An empty Type matches
// every job type.
type JobQuery struct {
	SessionID string
	Type      JobType
}

// CalculateUUID returns a ULID stamped with the given time
func CalculateUUID(t time.Time) (ulid.ULID, error) {
	return ulid.New(ulid.Timestamp(t), ulid.DefaultEntropy())
}
