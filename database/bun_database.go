package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/drummonds/pdfpages/config"
	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// BunDB implements Repository using Bun ORM
type BunDB struct {
	db *bun.DB
}

// NewRepository opens the in-memory sqlite job store. Nothing is written to
// disk and the store disappears with the process.
func NewRepository(cfg config.ServerConfig) (*BunDB, error) {
	dbName := cfg.DatabaseDbname
	if dbName == "" {
		dbName = "pdfpages"
	}
	connectionString := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	Logger.Info("Initializing in-memory sqlite database with Bun ORM...", "connectionString", connectionString)

	sqlDB, err := sql.Open(sqliteshim.ShimName, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a memory database lives only as long as its last connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	// Option to turn on verbose logging just returns failures otherwise
	db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(false)))

	result := &BunDB{db: db}

	Logger.Info("Running database migrations...")
	if err := result.runMigrations(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	Logger.Info("Database migrations completed successfully")

	return result, nil
}

// Close closes the database connection, discarding every job record
func (b *BunDB) Close() error {
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
	}
	return nil
}

// CreateJob creates a new job owned by sessionID, or a housekeeping job
// when sessionID is empty
func (b *BunDB) CreateJob(sessionID string, jobType JobType, message string) (*Job, error) {
	ctx := context.Background()
	now := time.Now()
	jobID, err := CalculateUUID(now)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:        jobID,
		SessionID: sessionID,
		Type:      jobType,
		Status:    JobStatusPending,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = b.db.NewInsert().
		Model(FromJob(job)).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return job, nil
}

// UpdateJobProgress updates the progress of a job
func (b *BunDB) UpdateJobProgress(jobID ulid.ULID, progress, totalSteps int, currentStep string) error {
	ctx := context.Background()

	_, err := b.db.NewUpdate().
		Model((*BunJob)(nil)).
		Set("progress = ?", progress).
		Set("total_steps = ?", totalSteps).
		Set("current_step = ?", currentStep).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", jobID.String()).
		Exec(ctx)

	return err
}

// UpdateJobStatus updates the status of a job
func (b *BunDB) UpdateJobStatus(jobID ulid.ULID, status JobStatus, message string) error {
	ctx := context.Background()
	now := time.Now()

	query := b.db.NewUpdate().
		Model((*BunJob)(nil)).
		Set("status = ?", status).
		Set("message = ?", message).
		Set("updated_at = ?", now)

	if status == JobStatusRunning {
		query = query.Set("started_at = COALESCE(started_at, ?)", now)
	}
	if status == JobStatusCompleted || status == JobStatusFailed || status == JobStatusCancelled {
		query = query.Set("completed_at = ?", now)
	}

	_, err := query.Where("id = ?", jobID.String()).Exec(ctx)
	return err
}

// UpdateJobError updates a job with an error
func (b *BunDB) UpdateJobError(jobID ulid.ULID, errorMsg string) error {
	ctx := context.Background()
	now := time.Now()

	_, err := b.db.NewUpdate().
		Model((*BunJob)(nil)).
		Set("status = ?", JobStatusFailed).
		Set("error = ?", errorMsg).
		Set("updated_at = ?", now).
		Set("completed_at = ?", now).
		Where("id = ?", jobID.String()).
		Exec(ctx)

	return err
}

// CompleteJob marks a job as completed with a final message and optional
// result data
func (b *BunDB) CompleteJob(jobID ulid.ULID, message, result string) error {
	ctx := context.Background()
	now := time.Now()

	_, err := b.db.NewUpdate().
		Model((*BunJob)(nil)).
		Set("status = ?", JobStatusCompleted).
		Set("progress = ?", 100).
		Set("message = ?", message).
		Set("result = ?", result).
		Set("updated_at = ?", now).
		Set("completed_at = ?", now).
		Where("id = ?", jobID.String()).
		Exec(ctx)

	return err
}

// GetJob retrieves a job by ID
func (b *BunDB) GetJob(jobID ulid.ULID) (*Job, error) {
	ctx := context.Background()
	bunJob := new(BunJob)

	err := b.db.NewSelect().
		Model(bunJob).
		Where("id = ?", jobID.String()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return bunJob.ToJob()
}

// GetRecentJobs retrieves the most recent jobs matching query with pagination
func (b *BunDB) GetRecentJobs(query JobQuery, limit, offset int) ([]Job, error) {
	ctx := context.Background()
	var bunJobs []BunJob

	err := b.db.NewSelect().
		Model(&bunJobs).
		Apply(query.apply).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return b.bunJobsToJobs(bunJobs)
}

// GetActiveJobs retrieves all running or pending jobs matching query
func (b *BunDB) GetActiveJobs(query JobQuery) ([]Job, error) {
	ctx := context.Background()
	var bunJobs []BunJob

	err := b.db.NewSelect().
		Model(&bunJobs).
		Apply(query.apply).
		Where("status IN (?)", bun.In([]string{string(JobStatusPending), string(JobStatusRunning)})).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return b.bunJobsToJobs(bunJobs)
}

// DeleteOldJobs deletes finished jobs that completed before now minus olderThan
func (b *BunDB) DeleteOldJobs(olderThan time.Duration) (int, error) {
	ctx := context.Background()
	cutoffTime := time.Now().Add(-olderThan)

	result, err := b.db.NewDelete().
		Model((*BunJob)(nil)).
		Where("status IN (?)", bun.In([]string{string(JobStatusCompleted), string(JobStatusFailed), string(JobStatusCancelled)})).
		Where("completed_at < ?", cutoffTime).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	count, err := result.RowsAffected()
	return int(count), err
}

// apply filters in SQL, before any LIMIT, so pages only hold matching jobs
func (q JobQuery) apply(sq *bun.SelectQuery) *bun.SelectQuery {
	sq = sq.Where("session_id IN (?)", bun.In([]string{q.SessionID, ""}))
	if q.Type != "" {
		sq = sq.Where("type = ?", q.Type)
	}
	return sq
}

// bunJobsToJobs converts a slice of BunJob to Job
func (b *BunDB) bunJobsToJobs(bunJobs []BunJob) ([]Job, error) {
	jobs := make([]Job, 0, len(bunJobs))
	for _, bunJob := range bunJobs {
		job, err := bunJob.ToJob()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}
