package models

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Service string

const (
	ServiceLancers    Service = "lancers"
	ServiceCrowdWorks Service = "crowdworks"
)

// Services lists every supported marketplace.
var Services = []Service{ServiceLancers, ServiceCrowdWorks}

type BudgetType string

const (
	BudgetFixed   BudgetType = "fixed"
	BudgetHourly  BudgetType = "hourly"
	BudgetUnknown BudgetType = "unknown"
)

type JobType string

const (
	JobTypeProject     JobType = "project"
	JobTypeTask        JobType = "task"
	JobTypeCompetition JobType = "competition"
	JobTypeUnknown     JobType = "unknown"
)

type JobStatus string

const (
	StatusOpen    JobStatus = "open"
	StatusClosed  JobStatus = "closed"
	StatusUnknown JobStatus = "unknown"
)

type Category string

const (
	CategoryWebDevelopment Category = "web_development"
	CategoryAppDevelopment Category = "app_development"
	CategoryScraping       Category = "scraping"
	CategoryAutomation     Category = "automation"
	CategoryDataAnalysis   Category = "data_analysis"
	CategoryAIML           Category = "ai_ml"
	CategoryOther          Category = "other"
)

// Categories is the closed category set in declaration order.
var Categories = []Category{
	CategoryWebDevelopment,
	CategoryAppDevelopment,
	CategoryScraping,
	CategoryAutomation,
	CategoryDataAnalysis,
	CategoryAIML,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type ClientInfo struct {
	Name         string   `json:"name"`
	Rating       *float64 `json:"rating"`
	ReviewCount  *int     `json:"review_count"`
	OrderHistory *int     `json:"order_history"`
}

// JobRecord is one scraped listing. Optional numeric fields are pointers so
// that "absent" survives serialization and never collapses to zero.
type JobRecord struct {
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Category         Category    `json:"category"`
	BudgetType       BudgetType  `json:"budget_type"`
	JobID            string      `json:"job_id"`
	JobType          JobType     `json:"job_type"`
	Status           JobStatus   `json:"status"`
	BudgetMin        *int        `json:"budget_min"`
	BudgetMax        *int        `json:"budget_max"`
	Deadline         *string     `json:"deadline"`
	RemainingDays    *int        `json:"remaining_days"`
	RequiredSkills   []string    `json:"required_skills"`
	Tags             []string    `json:"tags"`
	FeatureTags      []string    `json:"feature_tags"`
	ProposalCount    *int        `json:"proposal_count"`
	RecruitmentCount *int        `json:"recruitment_count"`
	Source           Service     `json:"source"`
	URL              string      `json:"url"`
	Client           *ClientInfo `json:"client"`
	Subcategory      *string     `json:"subcategory,omitempty"`
	ScrapedAt        time.Time   `json:"scraped_at"`
}

// NewJobRecord returns a record with defaults applied and scraped_at stamped.
func NewJobRecord(source Service, jobID, url string) *JobRecord {
	return &JobRecord{
		Category:       CategoryOther,
		BudgetType:     BudgetUnknown,
		JobID:          jobID,
		JobType:        JobTypeUnknown,
		Status:         StatusUnknown,
		RequiredSkills: []string{},
		Tags:           []string{},
		FeatureTags:    []string{},
		Source:         source,
		URL:            url,
		ScrapedAt:      time.Now(),
	}
}

// MergeDetail copies the detail-only fields into j. scraped_at is kept.
func (j *JobRecord) MergeDetail(detail *JobRecord) {
	if detail == nil {
		return
	}
	j.Description = detail.Description
	j.RequiredSkills = append([]string{}, detail.RequiredSkills...)
}

// Key identifies a record across sources.
func (j *JobRecord) Key() string {
	return string(j.Source) + ":" + j.JobID
}

var jaPrinter = message.NewPrinter(language.Japanese)

func (j *JobRecord) BudgetDisplay() string {
	switch {
	case j.BudgetMin != nil && j.BudgetMax != nil:
		return jaPrinter.Sprintf("%d円 〜 %d円", *j.BudgetMin, *j.BudgetMax)
	case j.BudgetMax != nil:
		return jaPrinter.Sprintf("〜 %d円", *j.BudgetMax)
	case j.BudgetMin != nil:
		return jaPrinter.Sprintf("%d円 〜", *j.BudgetMin)
	default:
		return "要相談"
	}
}

func Int(v int) *int { return &v }

func Float(v float64) *float64 { return &v }

func String(v string) *string { return &v }
