package database

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobType represents the type of job
type JobType string

const (
	JobTypeConversion JobType = "conversion"
	JobTypeExport     JobType = "export"
	JobTypeCleanup    JobType = "cleanup"
)

// Job represents a conversion, export or housekeeping run
type Job struct {
	ID          ulid.ULID  `json:"id"`
	SessionID   string     `json:"-"` // owning browser session, "" for housekeeping
	Type        JobType    `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`         // 0-100
	CurrentStep string     `json:"currentStep"`      // Human-readable current step
	TotalSteps  int        `json:"totalSteps"`       // Total number of steps
	Message     string     `json:"message"`          // Status message
	Error       string     `json:"error,omitempty"`  // Error message if failed
	Result      string     `json:"result,omitempty"` // JSON result data
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// JobSummary is stored as the Result of a finished job
type JobSummary struct {
	Pages      int    `json:"pages"`
	Format     string `json:"format,omitempty"`
	SourceName string `json:"sourceName,omitempty"`
	Bytes      int64  `json:"bytes,omitempty"`
	Renderer   string `json:"renderer,omitempty"`
	Sessions   int    `json:"sessions,omitempty"`
	Jobs       int    `json:"jobs,omitempty"`
}

// VisibleTo reports whether a caller in sessionID may see the job
func (j *Job) VisibleTo(sessionID string) bool {
	return j.SessionID == "" || j.SessionID == sessionID
}

// Finished reports whether the job has reached a terminal status
func (j *Job) Finished() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}
