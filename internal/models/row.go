package models

import "time"

// JobRow is the flattened database form of a JobRecord.
type JobRow struct {
	JobID              string     `json:"job_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Category           Category   `json:"category"`
	Subcategory        *string    `json:"subcategory"`
	BudgetType         BudgetType `json:"budget_type"`
	JobType            JobType    `json:"job_type"`
	Status             JobStatus  `json:"status"`
	BudgetMin          *int       `json:"budget_min"`
	BudgetMax          *int       `json:"budget_max"`
	Deadline           *string    `json:"deadline"`
	RemainingDays      *int       `json:"remaining_days"`
	RequiredSkills     []string   `json:"required_skills"`
	Tags               []string   `json:"tags"`
	FeatureTags        []string   `json:"feature_tags"`
	ProposalCount      *int       `json:"proposal_count"`
	RecruitmentCount   *int       `json:"recruitment_count"`
	Source             Service    `json:"source"`
	URL                string     `json:"url"`
	ClientName         *string    `json:"client_name"`
	ClientRating       *float64   `json:"client_rating"`
	ClientReviewCount  *int       `json:"client_review_count"`
	ClientOrderHistory *int       `json:"client_order_history"`
	ScrapedAt          time.Time  `json:"scraped_at"`
}

func (j *JobRecord) ToRow() JobRow {
	row := JobRow{
		JobID:            j.JobID,
		Title:            j.Title,
		Description:      j.Description,
		Category:         j.Category,
		Subcategory:      j.Subcategory,
		BudgetType:       j.BudgetType,
		JobType:          j.JobType,
		Status:           j.Status,
		BudgetMin:        j.BudgetMin,
		BudgetMax:        j.BudgetMax,
		Deadline:         j.Deadline,
		RemainingDays:    j.RemainingDays,
		RequiredSkills:   nonNil(j.RequiredSkills),
		Tags:             nonNil(j.Tags),
		FeatureTags:      nonNil(j.FeatureTags),
		ProposalCount:    j.ProposalCount,
		RecruitmentCount: j.RecruitmentCount,
		Source:           j.Source,
		URL:              j.URL,
		ScrapedAt:        j.ScrapedAt,
	}
	if j.Client != nil {
		row.ClientName = String(j.Client.Name)
		row.ClientRating = j.Client.Rating
		row.ClientReviewCount = j.Client.ReviewCount
		row.ClientOrderHistory = j.Client.OrderHistory
	}
	return row
}

func (r JobRow) ToRecord() *JobRecord {
	job := &JobRecord{
		Title:            r.Title,
		Description:      r.Description,
		Category:         r.Category,
		BudgetType:       r.BudgetType,
		JobID:            r.JobID,
		JobType:          r.JobType,
		Status:           r.Status,
		BudgetMin:        r.BudgetMin,
		BudgetMax:        r.BudgetMax,
		Deadline:         r.Deadline,
		RemainingDays:    r.RemainingDays,
		RequiredSkills:   nonNil(r.RequiredSkills),
		Tags:             nonNil(r.Tags),
		FeatureTags:      nonNil(r.FeatureTags),
		ProposalCount:    r.ProposalCount,
		RecruitmentCount: r.RecruitmentCount,
		Source:           r.Source,
		URL:              r.URL,
		Subcategory:      r.Subcategory,
		ScrapedAt:        r.ScrapedAt,
	}
	if !job.Category.Valid() {
		job.Category = CategoryOther
	}
	if r.ClientName != nil && *r.ClientName != "" {
		job.Client = &ClientInfo{
			Name:         *r.ClientName,
			Rating:       r.ClientRating,
			ReviewCount:  r.ClientReviewCount,
			OrderHistory: r.ClientOrderHistory,
		}
	}
	return job
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
