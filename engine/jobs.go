package engine

import (
	"encoding/json"
	"errors"

	"github.com/drummonds/pdfpages/database"
	"github.com/oklog/ulid/v2"
)

// jobTracker records one conversion, export or cleanup run. Tracking is best
// effort: a failing job store never fails the user's request.
type jobTracker struct {
	db  database.Repository
	job *database.Job
}

// startJob records a job owned by session, or a housekeeping job when
// session is nil
func (serverHandler *ServerHandler) startJob(session *Session, jobType database.JobType, message string) *jobTracker {
	sessionID := ""
	if session != nil {
		sessionID = session.ID.String()
	}
	return startJob(serverHandler.DB, sessionID, jobType, message)
}

func startJob(db database.Repository, sessionID string, jobType database.JobType, message string) *jobTracker {
	tracker := &jobTracker{db: db}
	if db == nil {
		return tracker
	}
	job, err := db.CreateJob(sessionID, jobType, message)
	if err != nil {
		Logger.Warn("Failed to create job", "type", jobType, "error", err)
		return tracker
	}
	tracker.job = job
	return tracker
}

func (t *jobTracker) tracking() bool {
	return t.db != nil && t.job != nil
}

// ID returns the job ID, or "" when the job could not be recorded
func (t *jobTracker) ID() string {
	if !t.tracking() {
		return ""
	}
	return t.job.ID.String()
}

func (t *jobTracker) jobID() ulid.ULID {
	return t.job.ID
}

func (t *jobTracker) running(message string) {
	if !t.tracking() {
		return
	}
	if err := t.db.UpdateJobStatus(t.jobID(), database.JobStatusRunning, message); err != nil {
		Logger.Error("Failed to update job status", "jobID", t.ID(), "error", err)
	}
}

// step records that done of total steps have finished
func (t *jobTracker) step(done, total int, description string) {
	if !t.tracking() || total < 1 {
		return
	}
	if err := t.db.UpdateJobProgress(t.jobID(), done*100/total, total, description); err != nil {
		Logger.Error("Failed to update job progress", "jobID", t.ID(), "error", err)
	}
}

func (t *jobTracker) complete(message string, summary database.JobSummary) {
	if !t.tracking() {
		return
	}
	result, err := json.Marshal(summary)
	if err != nil {
		result = []byte("{}")
	}
	if err := t.db.CompleteJob(t.jobID(), message, string(result)); err != nil {
		Logger.Error("Failed to complete job", "jobID", t.ID(), "error", err)
	}
}

// fail records err, marking cancelled conversions as cancelled rather than failed
func (t *jobTracker) fail(err error) {
	if !t.tracking() {
		return
	}
	var convErr *ConversionError
	if errors.As(err, &convErr) && convErr.Reason == ReasonCancelled {
		if err := t.db.UpdateJobStatus(t.jobID(), database.JobStatusCancelled, convErr.Stage()); err != nil {
			Logger.Error("Failed to cancel job", "jobID", t.ID(), "error", err)
		}
		return
	}
	if err := t.db.UpdateJobError(t.jobID(), err.Error()); err != nil {
		Logger.Error("Failed to record job error", "jobID", t.ID(), "error", err)
	}
}
