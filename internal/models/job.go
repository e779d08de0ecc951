package models

import "time"

// Job status constants. Terminal statuses are final: a job never leaves
// completed, failed or cancelled.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// JobStatusTerminal reports whether a status admits no further transitions.
func JobStatusTerminal(status string) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// PricingJob is one asynchronous watchlist run.
type PricingJob struct {
	ID string `json:"id" db:"id"`

	Status          string `json:"status" db:"status"`
	ProgressPercent int    `json:"progress_percent" db:"progress_percent"`
	ProcessedItems  int    `json:"processed_items" db:"processed_items"`
	TotalItems      int    `json:"total_items" db:"total_items"`
	SkippedItems    int    `json:"skipped_items" db:"skipped_items"`
	CurrentStep     string `json:"current_step,omitempty" db:"current_step"`

	ParamsJSON   string `json:"-" db:"params_json"`
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`
	SummaryJSON  string `json:"-" db:"summary_json"`

	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// JobParams are the tunables a caller may set when starting a run.
type JobParams struct {
	RitmoVentanaDias int `json:"ritmo_ventana_dias"`
	CycleDays        int `json:"cycle_days"`
}

// SeverityCounts buckets result items by score band.
type SeverityCounts struct {
	Alta  int `json:"alta"`  // score >= 70
	Media int `json:"media"` // score >= 40
	Baja  int `json:"baja"`
}

// JobSummary is the aggregate stored with a completed run.
type JobSummary struct {
	TotalItems int            `json:"total_items"`
	AvgScore   float64        `json:"avg_score"`
	Severity   SeverityCounts `json:"severity"`
}

// JobResult is one sorted page of a completed run plus its summary.
type JobResult struct {
	JobID       string          `json:"job_id"`
	Items       []WatchlistItem `json:"items"`
	Summary     JobSummary      `json:"summary"`
	Page        int             `json:"page"`
	PageSize    int             `json:"page_size"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
