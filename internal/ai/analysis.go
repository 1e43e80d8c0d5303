package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/models"

	log "github.com/sirupsen/logrus"
)

// JobAnalysis is the structured reading of a job used to steer a proposal.
type JobAnalysis struct {
	Requirements struct {
		MainTask              string   `json:"main_task"`
		Deliverables          []string `json:"deliverables"`
		TechnicalRequirements []string `json:"technical_requirements"`
		Constraints           []string `json:"constraints"`
	} `json:"requirements"`
	ClientAnalysis struct {
		BusinessType     string   `json:"business_type"`
		EstimatedPurpose string   `json:"estimated_purpose"`
		PainPoints       []string `json:"pain_points"`
	} `json:"client_analysis"`
	KeyPoints struct {
		Keywords       []string `json:"keywords"`
		EmphasisPoints []string `json:"emphasis_points"`
		RiskFactors    []string `json:"risk_factors"`
	} `json:"key_points"`
}

const analysisInstructions = `あなたは案件分析の専門家です。クラウドソーシングの案件情報を分析し、次のJSON形式だけを出力してください。

{
  "requirements": {"main_task": "", "deliverables": [], "technical_requirements": [], "constraints": []},
  "client_analysis": {"business_type": "", "estimated_purpose": "", "pain_points": []},
  "key_points": {"keywords": [], "emphasis_points": [], "risk_factors": []}
}

不確かな推測はその旨を明記し、技術要件は具体的に記述してください。`

// AnalyzeJob asks gen for a JobAnalysis of job.
func AnalyzeJob(ctx context.Context, gen Generator, job *models.JobRecord) (*JobAnalysis, error) {
	prompt := analysisInstructions + "\n\n" + jobSection(job)
	log.WithField("job_id", job.JobID).Debugf("analysis prompt: %d chars", len([]rune(prompt)))

	raw, err := gen.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var analysis JobAnalysis
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &analysis); err != nil {
		return nil, apperr.GeminiAPI(err, "decode job analysis (%d bytes)", len(raw))
	}
	return &analysis, nil
}

// jobSection renders the job facts shared by every prompt.
func jobSection(job *models.JobRecord) string {
	var sb strings.Builder
	sb.WriteString("## 案件情報\n\n")
	fmt.Fprintf(&sb, "**タイトル**: %s\n", job.Title)
	fmt.Fprintf(&sb, "**カテゴリ**: %s\n", job.Category)
	fmt.Fprintf(&sb, "**案件形式**: %s\n", job.JobType)
	fmt.Fprintf(&sb, "**予算**: %s\n", job.BudgetDisplay())
	fmt.Fprintf(&sb, "**納期**: %s\n", orNone(job.Deadline))
	fmt.Fprintf(&sb, "**必要スキル**: %s\n", joinOrNone(job.RequiredSkills))
	fmt.Fprintf(&sb, "**タグ**: %s\n", joinOrNone(job.Tags))
	if job.Client != nil && job.Client.Name != "" {
		fmt.Fprintf(&sb, "**クライアント**: %s\n", job.Client.Name)
	}
	description := job.Description
	if description == "" {
		description = "記載なし"
	}
	fmt.Fprintf(&sb, "\n**案件詳細**:\n%s\n", description)
	return sb.String()
}

func orNone(s *string) string {
	if s == nil || *s == "" {
		return "記載なし"
	}
	return *s
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "記載なし"
	}
	return strings.Join(items, ", ")
}
