package models

import "time"

// Job status constants
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// JobError records one failed PDF inside a run. The run keeps going.
type JobError struct {
	URL        string    `bson:"url" json:"url"`
	Message    string    `bson:"message" json:"message"`
	RetryCount int       `bson:"retry_count" json:"retry_count"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// JobExecution tracks one scraping/extraction run end to end.
type JobExecution struct {
	ID            string     `bson:"_id" json:"id"`
	JobName       string     `bson:"job_name" json:"job_name"`
	Status        string     `bson:"status" json:"status"`
	Progress      float64    `bson:"progress" json:"progress"`
	Total         int        `bson:"total" json:"total"`
	Processed     int        `bson:"processed" json:"processed"`
	FailedCount   int        `bson:"failed_count" json:"failed_count"`
	Errors        []JobError `bson:"errors,omitempty" json:"errors,omitempty"`
	ResultSummary string     `bson:"result_summary,omitempty" json:"result_summary,omitempty"`
	StartedAt     *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	FinishedAt    *time.Time `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
}

// Start moves the execution from pending to running.
func (j *JobExecution) Start() {
	now := time.Now().UTC()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

// UpdateProgress recomputes progress from processed/total. Progress
// never decreases within a run.
func (j *JobExecution) UpdateProgress(processed int) {
	j.Processed = processed
	if j.Total <= 0 {
		return
	}
	p := float64(processed) / float64(j.Total) * 100
	if p > j.Progress {
		j.Progress = p
	}
}

// AddError appends a per-PDF failure without terminating the run.
func (j *JobExecution) AddError(url, message string, retries int) {
	j.FailedCount++
	j.Errors = append(j.Errors, JobError{
		URL:        url,
		Message:    message,
		RetryCount: retries,
		Timestamp:  time.Now().UTC(),
	})
}

// Complete finishes a successful run. Progress is forced to 100 so a
// run with zero PDFs still reads as done.
func (j *JobExecution) Complete(summary string) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.ResultSummary = summary
	j.FinishedAt = &now
}

// Fail terminates the run with an error summary.
func (j *JobExecution) Fail(summary string) {
	now := time.Now().UTC()
	j.Status = JobStatusFailed
	j.ResultSummary = summary
	j.FinishedAt = &now
}

// Cancel marks the run cancelled after a cooperative stop.
func (j *JobExecution) Cancel() {
	now := time.Now().UTC()
	j.Status = JobStatusCancelled
	j.ResultSummary = "cancelled by user"
	j.FinishedAt = &now
}

// Finished reports whether the execution reached a terminal state.
func (j *JobExecution) Finished() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}
