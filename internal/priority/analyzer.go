// Package priority ranks scraped jobs against the user's profile with a
// fixed rule set. No network calls are made.
package priority

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"go-lancers-scout/internal/filter"
	"go-lancers-scout/internal/models"
)

// Weights of the sub-scores in the overall score.
const (
	WeightSkill       = 0.30
	WeightBudget      = 0.20
	WeightCompetition = 0.20
	WeightClient      = 0.15
	WeightTimeline    = 0.15
)

const maxReasons = 5

type Score struct {
	JobID            string   `json:"job_id"`
	OverallScore     float64  `json:"overall_score"`
	SkillMatchScore  float64  `json:"skill_match_score"`
	BudgetScore      float64  `json:"budget_score"`
	CompetitionScore float64  `json:"competition_score"`
	ClientScore      float64  `json:"client_score"`
	TimelineScore    float64  `json:"timeline_score"`
	Reasons          []string `json:"reasons"`
}

// RankedJob pairs a job with its score.
type RankedJob struct {
	Job   *models.JobRecord `json:"job"`
	Score Score             `json:"score"`
}

type Analyzer struct {
	profile models.UserProfile
}

func NewAnalyzer(profile models.UserProfile) *Analyzer {
	return &Analyzer{profile: profile}
}

func (a *Analyzer) Analyze(job *models.JobRecord) Score {
	skill := a.skillMatch(job)
	budget := a.budget(job)
	competition := competitionScore(job)
	client := clientScore(job)
	timeline := timelineScore(job)

	return Score{
		JobID:            jobID(job),
		OverallScore:     Composite(skill, budget, competition, client, timeline),
		SkillMatchScore:  round1(skill),
		BudgetScore:      round1(budget),
		CompetitionScore: round1(competition),
		ClientScore:      round1(client),
		TimelineScore:    round1(timeline),
		Reasons:          a.reasons(job, skill, budget, competition, client, timeline),
	}
}

func (a *Analyzer) AnalyzeBatch(jobs []*models.JobRecord) []Score {
	scores := make([]Score, 0, len(jobs))
	for _, job := range jobs {
		scores = append(scores, a.Analyze(job))
	}
	return scores
}

// Rank scores jobs and sorts them by overall score, highest first. Equal
// scores keep their input order.
func (a *Analyzer) Rank(jobs []*models.JobRecord) []RankedJob {
	ranked := make([]RankedJob, 0, len(jobs))
	for _, job := range jobs {
		ranked = append(ranked, RankedJob{Job: job, Score: a.Analyze(job)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.OverallScore > ranked[j].Score.OverallScore
	})
	return ranked
}

// Composite is the weighted overall score rounded to one decimal.
func Composite(skill, budget, competition, client, timeline float64) float64 {
	return round1(skill*WeightSkill +
		budget*WeightBudget +
		competition*WeightCompetition +
		client*WeightClient +
		timeline*WeightTimeline)
}

func jobID(job *models.JobRecord) string {
	switch {
	case job.JobID != "":
		return job.JobID
	case job.URL != "":
		return job.URL
	default:
		return "unknown"
	}
}

func (a *Analyzer) skillMatch(job *models.JobRecord) float64 {
	if len(a.profile.Skills) == 0 {
		return 50
	}

	var matched, total float64

	for _, required := range job.RequiredSkills {
		total++
		if anyOverlap(required, a.profile.Skills) {
			matched++
		}
	}

	known := append(append([]string{}, a.profile.Skills...), a.profile.Specialties...)
	for _, tag := range append(append([]string{}, job.Tags...), job.FeatureTags...) {
		if anyOverlap(tag, known) {
			matched += 0.5
			total += 0.5
		}
	}

	text := strings.ToLower(job.Title + " " + job.Description)
	for _, skill := range known {
		if strings.Contains(text, strings.ToLower(skill)) {
			matched += 0.3
			total += 0.3
		}
	}

	base := 30.0
	if total > 0 {
		base = matched / total * 100
	}
	if a.profile.PrefersCategory(job.Category) {
		base = math.Min(100, base+20)
	}
	return clamp(base)
}

func anyOverlap(s string, candidates []string) bool {
	for _, c := range candidates {
		if filter.Overlaps(s, c) {
			return true
		}
	}
	return false
}

func (a *Analyzer) budget(job *models.JobRecord) float64 {
	if job.BudgetMin == nil && job.BudgetMax == nil {
		return 50
	}

	// a zero bound counts as missing
	var v int
	switch {
	case job.BudgetMax != nil && *job.BudgetMax != 0:
		v = *job.BudgetMax
	case job.BudgetMin != nil:
		v = *job.BudgetMin
	}

	pmin, pmax := a.profile.PreferredBudgetMin, a.profile.PreferredBudgetMax
	switch {
	case v >= pmin && v <= pmax:
		return 100
	case v < pmin:
		penalty := math.Min(50, float64(pmin-v)/float64(pmin)*100)
		return math.Max(0, 50-penalty)
	default:
		return 80
	}
}

func competitionScore(job *models.JobRecord) float64 {
	if job.ProposalCount == nil {
		return 50
	}
	proposals := *job.ProposalCount
	if proposals == 0 {
		return 100
	}

	recruitment := 1
	if job.RecruitmentCount != nil && *job.RecruitmentCount != 0 {
		recruitment = *job.RecruitmentCount
	}

	ratio := float64(recruitment) / float64(proposals)
	switch {
	case ratio >= 1:
		return 100
	case ratio >= 0.5:
		return 80
	case ratio >= 0.2:
		return 60
	case ratio >= 0.1:
		return 40
	default:
		return math.Max(20, ratio*200)
	}
}

func clientScore(job *models.JobRecord) float64 {
	rating, history := 30.0, 10.0
	if job.Client != nil {
		if job.Client.Rating != nil {
			rating = *job.Client.Rating / 5 * 60
		}
		if h := job.Client.OrderHistory; h != nil && *h > 0 {
			history = math.Min(40, float64(*h)*4)
		}
	}
	return math.Min(100, rating+history)
}

func timelineScore(job *models.JobRecord) float64 {
	if job.RemainingDays == nil {
		return 50
	}
	d := *job.RemainingDays
	switch {
	case d >= 3 && d <= 14:
		return 100
	case d < 3:
		return math.Max(20, float64(d)*30)
	default:
		return math.Max(60, 100-float64(d-14)*2)
	}
}

func (a *Analyzer) reasons(job *models.JobRecord, skill, budget, competition, client, timeline float64) []string {
	reasons := []string{}

	switch {
	case skill >= 80:
		reasons = append(reasons, "必要スキルが一致しています")
	case skill >= 60:
		reasons = append(reasons, "関連するスキルがあります")
	case skill < 40:
		reasons = append(reasons, "スキルマッチが低めです")
	}

	switch {
	case budget >= 80:
		reasons = append(reasons, "希望予算に適合しています")
	case budget < 40:
		reasons = append(reasons, "予算が希望より低めです")
	}

	switch {
	case competition >= 80 && job.ProposalCount != nil && *job.ProposalCount == 0:
		reasons = append(reasons, "応募がまだありません")
	case competition >= 80:
		reasons = append(reasons, "競合が少なくチャンスです")
	case competition < 40:
		reasons = append(reasons, "競合が多いです")
	}

	switch {
	case client >= 80 && job.Client != nil && job.Client.Rating != nil && *job.Client.Rating >= 4.5:
		reasons = append(reasons, "クライアント評価が高いです (★"+formatRating(*job.Client.Rating)+")")
	case client >= 80:
		reasons = append(reasons, "発注実績のあるクライアントです")
	case client < 40:
		reasons = append(reasons, "クライアント情報が少ないです")
	}

	switch {
	case timeline >= 80:
		reasons = append(reasons, "適切な納期です")
	case timeline < 40 && job.RemainingDays != nil && *job.RemainingDays < 3:
		reasons = append(reasons, "納期が非常に短いです")
	}

	if a.profile.PrefersCategory(job.Category) {
		reasons = append(reasons, "得意カテゴリの案件です")
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons
}

// formatRating always shows one decimal at least: 5 -> "5.0", 4.75 -> "4.75".
func formatRating(r float64) string {
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
