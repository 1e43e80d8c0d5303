package runner

import "time"

type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseFetching Phase = "fetching"
	PhaseDetails  Phase = "details"
	PhaseSaving   Phase = "saving"
	PhaseDone     Phase = "done"
)

// Progress is an immutable snapshot of the current run.
type Progress struct {
	Running        bool       `json:"is_running"`
	Phase          Phase      `json:"phase"`
	CurrentPage    int        `json:"current_page"`
	TotalPages     int        `json:"total_pages"`
	JobsFetched    int        `json:"jobs_fetched"`
	EstimatedTotal int        `json:"estimated_total"`
	Category       string     `json:"category"`
	CategoryIndex  int        `json:"current_category_index"`
	CategoryTotal  int        `json:"total_categories"`
	DetailCurrent  int        `json:"detail_current"`
	DetailTotal    int        `json:"detail_total"`
	Message        string     `json:"message"`
	Error          string     `json:"error,omitempty"`
	Cancelled      bool       `json:"cancelled"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
}

type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusCancelled RunStatus = "cancelled"
	StatusFailed    RunStatus = "failed"
)

type HistoryEntry struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Category        string    `json:"category"`
	Count           int       `json:"count"`
	Added           int       `json:"added"`
	Updated         int       `json:"updated"`
	Status          RunStatus `json:"status"`
	DurationSeconds float64   `json:"duration_seconds"`
	Error           string    `json:"error,omitempty"`
}

const maxHistory = 20
