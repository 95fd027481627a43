package webapp

import (
	"testing"
)

func TestFormatJobType(t *testing.T) {
	page := &JobsPage{}
	tests := map[string]string{
		"conversion": "PDF Conversion",
		"export":     "Zip Export",
		"cleanup":    "Session Cleanup",
		"reindex":    "Reindex",
		"":           "Job",
	}
	for jobType, want := range tests {
		if got := page.formatJobType(jobType); got != want {
			t.Errorf("formatJobType(%q) = %q, want %q", jobType, got, want)
		}
	}
}

func TestFormatResult(t *testing.T) {
	page := &JobsPage{}
	tests := []struct {
		name   string
		result string
		want   string
	}{
		{
			name:   "conversion",
			result: `{"pages":3,"format":"png","sourceName":"report.pdf","bytes":2048,"renderer":"pdfium"}`,
			want:   "report.pdf, 3 pages, PNG, 2.0 KB, rendered by pdfium",
		},
		{
			name:   "single page export",
			result: `{"pages":1,"format":"jpeg","bytes":100}`,
			want:   "1 page, JPEG, 100 B",
		},
		{
			name:   "cleanup",
			result: `{"pages":0,"sessions":2,"jobs":5}`,
			want:   "Sessions dropped: 2, Jobs deleted: 5",
		},
		{
			name:   "empty summary",
			result: `{"pages":0}`,
			want:   "Nothing to do",
		},
		{
			name:   "not json",
			result: "done",
			want:   "done",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := page.formatResult(tt.result); got != tt.want {
				t.Errorf("formatResult() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseJobs(t *testing.T) {
	jobs, err := parseJobs(`[{"id":"01J","type":"conversion","status":"running","progress":50,"currentStep":"Rendering page 1 of 2"}]`)
	if err != nil {
		t.Fatalf("parseJobs failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Progress != 50 || jobs[0].Type != "conversion" {
		t.Errorf("parseJobs() = %+v", jobs)
	}

	for _, body := range []string{"", "null", "[]"} {
		jobs, err := parseJobs(body)
		if err != nil || len(jobs) != 0 {
			t.Errorf("parseJobs(%q) = %v, %v; want empty", body, jobs, err)
		}
	}

	if _, err := parseJobs("{"); err == nil {
		t.Error("parseJobs should reject malformed JSON")
	}
}

func TestFormatTime(t *testing.T) {
	page := &JobsPage{}
	if got := page.formatTime(""); got != "" {
		t.Errorf("formatTime(\"\") = %q", got)
	}
	if got := page.formatTime("not a time"); got != "not a time" {
		t.Errorf("formatTime should pass through unparseable input, got %q", got)
	}
	if got := page.formatTime("2020-01-02T15:04:05Z"); got != "Jan 2, 2020 at 3:04 PM" {
		t.Errorf("formatTime() = %q", got)
	}
}

func TestProgressText(t *testing.T) {
	running := &Job{Progress: 50, TotalSteps: 4, CurrentStep: "Rendering page 2 of 4"}
	if got := progressText(running); got != "50% of 4 steps - Rendering page 2 of 4" {
		t.Errorf("progressText() = %q", got)
	}
	opening := &Job{CurrentStep: "Opening document"}
	if got := progressText(opening); got != "0% - Opening document" {
		t.Errorf("progressText() = %q", got)
	}
}
