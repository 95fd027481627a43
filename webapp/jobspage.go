package webapp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// JobsPage lists recent conversions, exports and cleanup runs
type JobsPage struct {
	app.Compo
	jobs          []Job
	loading       bool
	error         string
	autoRefresh   bool
	typeFilter    string
	refreshTicker *time.Ticker
}

// OnMount is called when the component is mounted
func (j *JobsPage) OnMount(ctx app.Context) {
	j.autoRefresh = true
	j.loadJobs(ctx)

	// Start auto-refresh every 2 seconds
	ctx.Async(func() {
		j.refreshTicker = time.NewTicker(2 * time.Second)
		for range j.refreshTicker.C {
			if j.autoRefresh {
				j.loadJobs(ctx)
			}
		}
	})
}

// OnDismount is called when the component is unmounted
func (j *JobsPage) OnDismount() {
	if j.refreshTicker != nil {
		j.refreshTicker.Stop()
	}
}

// Render renders the jobs page
func (j *JobsPage) Render() app.UI {
	return app.Div().
		Class("jobs-page").
		Body(
			app.H2().Text("Jobs"),
			app.P().Text("Recent conversions and downloads from this browser, plus the server's housekeeping runs. Only page counts and file names are kept, never the pages themselves."),

			app.Div().Class("jobs-controls").Body(
				app.Button().
					Class("btn-primary").
					OnClick(j.onRefreshClick).
					Disabled(j.loading).
					Body(app.Text("Refresh")),
				app.Select().
					Class("job-filter").
					OnChange(j.onTypeFilterChange).
					Body(
						app.Option().Value("").Selected(j.typeFilter == "").Text("All jobs"),
						app.Option().Value("conversion").Selected(j.typeFilter == "conversion").Text("Conversions"),
						app.Option().Value("export").Selected(j.typeFilter == "export").Text("Zip exports"),
						app.Option().Value("cleanup").Selected(j.typeFilter == "cleanup").Text("Cleanups"),
					),
				app.Label().Class("auto-refresh-label").Body(
					app.Input().
						Type("checkbox").
						Checked(j.autoRefresh).
						OnChange(j.onAutoRefreshChange),
					app.Text(" Auto-refresh"),
				),
			),

			j.renderStatus(),
		)
}

// renderStatus renders the jobs list or status messages
func (j *JobsPage) renderStatus() app.UI {
	if j.loading && len(j.jobs) == 0 {
		return app.Div().Class("loading").Body(
			app.Text("Loading jobs..."),
		)
	}

	if j.error != "" {
		return app.Div().Class("error").Body(
			app.Text("Error: " + j.error),
		)
	}

	if len(j.jobs) == 0 {
		return app.Div().Class("info").Body(
			app.P().Text("No jobs yet. A job is recorded each time a PDF is converted or a zip is downloaded."),
		)
	}

	return app.Div().Class("jobs-list").Body(
		j.renderJobsList()...,
	)
}

// renderJobsList renders the list of jobs
func (j *JobsPage) renderJobsList() []app.UI {
	var items []app.UI

	for i := range j.jobs {
		job := &j.jobs[i]
		items = append(items, j.renderJob(job))
	}

	return items
}

// renderJob renders a single job card
func (j *JobsPage) renderJob(job *Job) app.UI {
	statusClass := "job-card job-" + job.Status

	return app.Div().
		Class(statusClass).
		Body(
			app.Div().Class("job-header").Body(
				app.Div().Class("job-type").Body(
					app.Strong().Text(j.formatJobType(job.Type)),
					app.Span().Class("job-status-badge job-status-"+job.Status).
						Body(app.Text(job.Status)),
				),
				app.Div().Class("job-time").Body(
					app.Text(j.formatTime(job.CreatedAt)),
				),
			),

			app.If(job.Status == "running",
				func() app.UI {
					return app.Div().Class("job-progress").Body(
						app.Div().Class("progress-bar").Body(
							app.Div().
								Class("progress-fill").
								Style("width", fmt.Sprintf("%d%%", job.Progress)),
						),
						app.Div().Class("progress-text").Body(
							app.Text(progressText(job)),
						),
					)
				},
			),

			app.If(job.Message != "",
				func() app.UI {
					return app.Div().Class("job-message").Body(
						app.Text(job.Message),
					)
				},
			),

			app.If(job.Error != "",
				func() app.UI {
					return app.Div().Class("job-error").Body(
						app.Strong().Text("Error: "),
						app.Text(job.Error),
					)
				},
			),

			app.If(job.Result != "",
				func() app.UI {
					return app.Div().Class("job-result").Body(
						app.Text(j.formatResult(job.Result)),
					)
				},
			),

			app.Div().Class("job-footer").Body(
				app.Div().Class("job-id").Body(
					app.Text("ID: " + job.ID),
				),
				app.If(job.CompletedAt != "",
					func() app.UI {
						return app.Div().Class("job-completed").Body(
							app.Text("Completed: " + j.formatTime(job.CompletedAt)),
						)
					},
				),
			),
		)
}

// formatJobType converts job type to readable format
func (j *JobsPage) formatJobType(jobType string) string {
	switch jobType {
	case "conversion":
		return "PDF Conversion"
	case "export":
		return "Zip Export"
	case "cleanup":
		return "Session Cleanup"
	case "":
		return "Job"
	default:
		return strings.ToUpper(jobType[:1]) + jobType[1:]
	}
}

// formatTime formats ISO time string to readable format
func (j *JobsPage) formatTime(timeStr string) string {
	if timeStr == "" {
		return ""
	}

	// Try to parse ISO 8601 format
	t, err := time.Parse(time.RFC3339, timeStr)
	if err != nil {
		// Try without nanoseconds
		t, err = time.Parse("2006-01-02T15:04:05Z", timeStr)
		if err != nil {
			return timeStr
		}
	}

	// Format as relative time if recent
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "Just now"
	} else if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	} else if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}

	return t.Format("Jan 2, 2006 at 3:04 PM")
}

// jobResult mirrors the summary stored on finished jobs
type jobResult struct {
	Pages      int    `json:"pages"`
	Format     string `json:"format"`
	SourceName string `json:"sourceName"`
	Bytes      int64  `json:"bytes"`
	Renderer   string `json:"renderer"`
	Sessions   int    `json:"sessions"`
	Jobs       int    `json:"jobs"`
}

// formatResult formats JSON result string
func (j *JobsPage) formatResult(result string) string {
	var data jobResult
	if err := json.Unmarshal([]byte(result), &data); err != nil {
		return result
	}

	var parts []string
	if data.SourceName != "" {
		parts = append(parts, data.SourceName)
	}
	if data.Pages > 0 {
		noun := "pages"
		if data.Pages == 1 {
			noun = "page"
		}
		parts = append(parts, fmt.Sprintf("%d %s", data.Pages, noun))
	}
	if data.Format != "" {
		parts = append(parts, strings.ToUpper(data.Format))
	}
	if data.Bytes > 0 {
		parts = append(parts, formatBytes(data.Bytes))
	}
	if data.Renderer != "" {
		parts = append(parts, "rendered by "+data.Renderer)
	}
	if data.Sessions > 0 {
		parts = append(parts, fmt.Sprintf("Sessions dropped: %d", data.Sessions))
	}
	if data.Jobs > 0 {
		parts = append(parts, fmt.Sprintf("Jobs deleted: %d", data.Jobs))
	}

	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return "Nothing to do"
}

// onRefreshClick handles the refresh button click
func (j *JobsPage) onRefreshClick(ctx app.Context, e app.Event) {
	j.loadJobs(ctx)
}

// onTypeFilterChange narrows the list to one job type
func (j *JobsPage) onTypeFilterChange(ctx app.Context, e app.Event) {
	j.typeFilter = ctx.JSSrc().Get("value").String()
	j.loadJobs(ctx)
}

// onAutoRefreshChange handles auto-refresh checkbox change
func (j *JobsPage) onAutoRefreshChange(ctx app.Context, e app.Event) {
	j.autoRefresh = ctx.JSSrc().Get("checked").Bool()
	ctx.Update()
}

// loadJobs fetches jobs from the API
func (j *JobsPage) loadJobs(ctx app.Context) {
	j.loading = true
	j.error = ""
	ctx.Update()

	url := "/api/jobs?limit=50"
	if j.typeFilter != "" {
		url += "&type=" + j.typeFilter
	}

	ctx.Async(func() {
		fetchText(ctx, BuildAPIURL(url), nil, func(ctx app.Context, status int, body string) {
			j.loading = false
			switch {
			case status == 0:
				j.error = "Network error: Could not connect to server"
			case status < 200 || status >= 300:
				j.error = parseErrorBody(status, body).Describe()
			default:
				jobs, err := parseJobs(body)
				if err != nil {
					j.error = "Failed to parse jobs: " + err.Error()
					return
				}
				j.jobs = jobs
			}
		})
	})
}

func parseJobs(body string) ([]Job, error) {
	jobs := []Job{}
	if body == "" || body == "null" {
		return jobs, nil
	}
	if err := json.Unmarshal([]byte(body), &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func progressText(job *Job) string {
	if job.TotalSteps > 0 {
		return fmt.Sprintf("%d%% of %d steps - %s", job.Progress, job.TotalSteps, job.CurrentStep)
	}
	return fmt.Sprintf("%d%% - %s", job.Progress, job.CurrentStep)
}
