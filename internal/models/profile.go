package models

// UserProfile is the scoring input. It is loaded from profile.yaml and is
// never persisted by the scraper.
type UserProfile struct {
	Name                  string     `yaml:"name" json:"name"`
	Skills                []string   `yaml:"skills" json:"skills"`
	Specialties           []string   `yaml:"specialties" json:"specialties"`
	ExperienceYears       int        `yaml:"experience_years" json:"experience_years"`
	PreferredBudgetMin    int        `yaml:"preferred_budget_min" json:"preferred_budget_min" validate:"gte=0"`
	PreferredBudgetMax    int        `yaml:"preferred_budget_max" json:"preferred_budget_max" validate:"gtefield=PreferredBudgetMin"`
	PreferredCategories   []Category `yaml:"preferred_categories" json:"preferred_categories"`
	AvailableHoursPerWeek int        `yaml:"available_hours_per_week" json:"available_hours_per_week"`
	GitHubUsername        string     `yaml:"github_username" json:"github_username,omitempty"`

	// Greeting and Closing open and close every generated proposal verbatim.
	Greeting string `yaml:"greeting" json:"greeting,omitempty"`
	Closing  string `yaml:"closing" json:"closing,omitempty"`
}

const (
	DefaultPreferredBudgetMin = 10000
	DefaultPreferredBudgetMax = 500000
	DefaultAvailableHours     = 40
)

func DefaultProfile() UserProfile {
	return UserProfile{
		PreferredBudgetMin:    DefaultPreferredBudgetMin,
		PreferredBudgetMax:    DefaultPreferredBudgetMax,
		AvailableHoursPerWeek: DefaultAvailableHours,
	}
}

func (p UserProfile) PrefersCategory(c Category) bool {
	for _, pc := range p.PreferredCategories {
		if pc == c {
			return true
		}
	}
	return false
}
