package filter

import (
	"go-lancers-scout/internal/models"
)

// Criteria selects stored jobs. Zero values match everything.
type Criteria struct {
	Category models.Category  `form:"category" json:"category,omitempty"`
	JobTypes []models.JobType `form:"job_type" json:"job_types,omitempty"`
	Status   models.JobStatus `form:"status" json:"status,omitempty"`
	Source   models.Service   `form:"source" json:"source,omitempty"`
	Limit    int              `form:"limit" json:"limit,omitempty"`
}

const DefaultQueryLimit = 1000

func (c Criteria) EffectiveLimit() int {
	if c.Limit <= 0 {
		return DefaultQueryLimit
	}
	return c.Limit
}

func (c Criteria) Matches(job *models.JobRecord) bool {
	if c.Category != "" && job.Category != c.Category {
		return false
	}
	if c.Status != "" && job.Status != c.Status {
		return false
	}
	if c.Source != "" && job.Source != c.Source {
		return false
	}
	if len(c.JobTypes) > 0 && !containsJobType(c.JobTypes, job.JobType) {
		return false
	}
	return true
}

func containsJobType(types []models.JobType, t models.JobType) bool {
	for _, jt := range types {
		if jt == t {
			return true
		}
	}
	return false
}
