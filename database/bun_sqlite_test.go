package database

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/drummonds/pdfpages/config"
	"github.com/oklog/ulid/v2"
)

func setupTestRepository(t *testing.T) *BunDB {
	t.Helper()
	if Logger == nil {
		Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	// every test gets its own shared-cache memory database
	db, err := NewRepository(config.ServerConfig{DatabaseDbname: "test_" + ulid.Make().String()})
	if err != nil {
		t.Fatalf("Failed to open repository: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBunSQLiteJobs(t *testing.T) {
	db := setupTestRepository(t)

	t.Run("Create and retrieve job", func(t *testing.T) {
		job, err := db.CreateJob("", JobTypeConversion, "Converting report.pdf")
		if err != nil {
			t.Fatalf("Failed to create job: %v", err)
		}
		if job.Status != JobStatusPending {
			t.Errorf("Expected pending status, got %s", job.Status)
		}

		retrieved, err := db.GetJob(job.ID)
		if err != nil {
			t.Fatalf("Failed to get job: %v", err)
		}
		if retrieved.Message != "Converting report.pdf" {
			t.Errorf("Expected message 'Converting report.pdf', got %q", retrieved.Message)
		}
		if retrieved.Type != JobTypeConversion {
			t.Errorf("Expected type conversion, got %s", retrieved.Type)
		}
	})

	t.Run("Job lifecycle", func(t *testing.T) {
		job, err := db.CreateJob("", JobTypeConversion, "Converting")
		if err != nil {
			t.Fatalf("Failed to create job: %v", err)
		}

		if err := db.UpdateJobStatus(job.ID, JobStatusRunning, "Rendering"); err != nil {
			t.Fatalf("Failed to update status: %v", err)
		}
		if err := db.UpdateJobProgress(job.ID, 50, 2, "Rendering page 1 of 2"); err != nil {
			t.Fatalf("Failed to update progress: %v", err)
		}

		running, err := db.GetJob(job.ID)
		if err != nil {
			t.Fatalf("Failed to get job: %v", err)
		}
		if running.Status != JobStatusRunning || running.Progress != 50 {
			t.Errorf("Expected running at 50%%, got %s at %d", running.Status, running.Progress)
		}
		if running.StartedAt == nil {
			t.Error("Expected started_at to be set")
		}
		if running.CurrentStep != "Rendering page 1 of 2" || running.TotalSteps != 2 {
			t.Errorf("Unexpected step %q of %d", running.CurrentStep, running.TotalSteps)
		}

		if err := db.CompleteJob(job.ID, "Converted 2 pages", `{"pages":2}`); err != nil {
			t.Fatalf("Failed to complete job: %v", err)
		}
		done, err := db.GetJob(job.ID)
		if err != nil {
			t.Fatalf("Failed to get job: %v", err)
		}
		if done.Status != JobStatusCompleted || done.Progress != 100 {
			t.Errorf("Expected completed at 100%%, got %s at %d", done.Status, done.Progress)
		}
		if done.Result != `{"pages":2}` {
			t.Errorf("Unexpected result %q", done.Result)
		}
		if done.Message != "Converted 2 pages" {
			t.Errorf("Expected the final message, got %q", done.Message)
		}
		if !done.Finished() {
			t.Error("Completed job should be finished")
		}
	})

	t.Run("Job error", func(t *testing.T) {
		job, err := db.CreateJob("", JobTypeExport, "Exporting")
		if err != nil {
			t.Fatalf("Failed to create job: %v", err)
		}
		if err := db.UpdateJobError(job.ID, "archive-assembly-failed"); err != nil {
			t.Fatalf("Failed to set error: %v", err)
		}
		failed, err := db.GetJob(job.ID)
		if err != nil {
			t.Fatalf("Failed to get job: %v", err)
		}
		if failed.Status != JobStatusFailed {
			t.Errorf("Expected failed, got %s", failed.Status)
		}
		if failed.Error != "archive-assembly-failed" {
			t.Errorf("Unexpected error %q", failed.Error)
		}
		if failed.CompletedAt == nil {
			t.Error("Expected completed_at to be set")
		}
	})

	t.Run("Unknown job", func(t *testing.T) {
		if _, err := db.GetJob(ulid.Make()); err == nil {
			t.Error("Expected error for unknown job")
		}
	})
}

func TestBunSQLiteActiveAndRecentJobs(t *testing.T) {
	db := setupTestRepository(t)

	pending, err := db.CreateJob("", JobTypeConversion, "one")
	if err != nil {
		t.Fatal(err)
	}
	finished, err := db.CreateJob("", JobTypeExport, "two")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.CompleteJob(finished.ID, "", ""); err != nil {
		t.Fatal(err)
	}

	active, err := db.GetActiveJobs(JobQuery{})
	if err != nil {
		t.Fatalf("Failed to get active jobs: %v", err)
	}
	if len(active) != 1 || active[0].ID != pending.ID {
		t.Errorf("Expected only the pending job to be active, got %d jobs", len(active))
	}

	recent, err := db.GetRecentJobs(JobQuery{}, 10, 0)
	if err != nil {
		t.Fatalf("Failed to get recent jobs: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("Expected 2 recent jobs, got %d", len(recent))
	}

	limited, err := db.GetRecentJobs(JobQuery{}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected 1 job with limit, got %d", len(limited))
	}
}

func TestBunSQLiteRecentJobsTypeFilter(t *testing.T) {
	db := setupTestRepository(t)

	conversion, err := db.CreateJob("", JobTypeConversion, "Converting")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 30; i++ {
		if _, err := db.CreateJob("", JobTypeCleanup, "Pruning"); err != nil {
			t.Fatal(err)
		}
	}

	// the filter applies before the limit
	conversions, err := db.GetRecentJobs(JobQuery{Type: JobTypeConversion}, 20, 0)
	if err != nil {
		t.Fatalf("Failed to get recent jobs: %v", err)
	}
	if len(conversions) != 1 || conversions[0].ID != conversion.ID {
		t.Errorf("Expected the conversion job, got %d jobs", len(conversions))
	}

	cleanups, err := db.GetRecentJobs(JobQuery{Type: JobTypeCleanup}, 20, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleanups) != 10 {
		t.Errorf("Expected 10 cleanup jobs past offset 20, got %d", len(cleanups))
	}
}

func TestBunSQLiteJobsScopedToSession(t *testing.T) {
	db := setupTestRepository(t)
	sessionA := ulid.Make().String()
	sessionB := ulid.Make().String()

	mine, err := db.CreateJob(sessionA, JobTypeConversion, "Converting secret-a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateJob(sessionB, JobTypeConversion, "Converting secret-b.pdf"); err != nil {
		t.Fatal(err)
	}
	housekeeping, err := db.CreateJob("", JobTypeCleanup, "Pruning")
	if err != nil {
		t.Fatal(err)
	}

	recent, err := db.GetRecentJobs(JobQuery{SessionID: sessionA}, 10, 0)
	if err != nil {
		t.Fatalf("Failed to get recent jobs: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected own job and housekeeping, got %d jobs", len(recent))
	}
	for _, job := range recent {
		if job.ID != mine.ID && job.ID != housekeeping.ID {
			t.Errorf("session A sees job %q", job.Message)
		}
	}

	active, err := db.GetActiveJobs(JobQuery{SessionID: sessionB})
	if err != nil {
		t.Fatal(err)
	}
	for _, job := range active {
		if job.ID == mine.ID {
			t.Error("session B sees session A's active job")
		}
	}

	// without a session only housekeeping is listed
	anonymous, err := db.GetRecentJobs(JobQuery{}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(anonymous) != 1 || anonymous[0].ID != housekeeping.ID {
		t.Errorf("Expected only housekeeping without a session, got %d jobs", len(anonymous))
	}

	stored, err := db.GetJob(mine.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.SessionID != sessionA || !stored.VisibleTo(sessionA) || stored.VisibleTo(sessionB) {
		t.Errorf("job owned by %q has wrong visibility", stored.SessionID)
	}
	if !housekeeping.VisibleTo(sessionB) {
		t.Error("housekeeping jobs are visible to every session")
	}
}

func TestBunSQLiteDeleteOldJobs(t *testing.T) {
	db := setupTestRepository(t)

	active, err := db.CreateJob("", JobTypeConversion, "still going")
	if err != nil {
		t.Fatal(err)
	}
	old, err := db.CreateJob("", JobTypeConversion, "done")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.CompleteJob(old.ID, "", ""); err != nil {
		t.Fatal(err)
	}

	// nothing is old enough yet
	deleted, err := db.DeleteOldJobs(time.Hour)
	if err != nil {
		t.Fatalf("Failed to delete old jobs: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected nothing deleted, got %d", deleted)
	}

	// a negative retention puts the cutoff in the future
	deleted, err = db.DeleteOldJobs(-time.Hour)
	if err != nil {
		t.Fatalf("Failed to delete old jobs: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted, got %d", deleted)
	}

	if _, err := db.GetJob(active.ID); err != nil {
		t.Errorf("Active job should survive cleanup: %v", err)
	}
	if _, err := db.GetJob(old.ID); err == nil {
		t.Error("Completed job should have been deleted")
	}
}
