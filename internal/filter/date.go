package filter

import (
	"time"

	"go-lancers-scout/internal/models"
)

// IsExpired reports whether a stored job should be cleaned up: its listing is
// closed or its remaining days ran out.
func IsExpired(job *models.JobRecord) bool {
	if job.Status == models.StatusClosed {
		return true
	}
	return job.RemainingDays != nil && *job.RemainingDays <= 0
}

// StartOfDay returns local midnight of t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns local midnight of the Monday of t's week.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}
