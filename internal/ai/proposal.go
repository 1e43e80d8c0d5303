package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/filter"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/priority"

	log "github.com/sirupsen/logrus"
)

const (
	MinProposalChars  = 1300
	MaxProposalChars  = 2000
	DefaultMaxRetries = 3
)

// Proposal is a generated application text and how it was produced.
type Proposal struct {
	Text           string        `json:"proposal"`
	CharacterCount int           `json:"character_count"`
	MatchedSkills  []string      `json:"matched_skills"`
	Attempts       int           `json:"attempts"`
	Duration       time.Duration `json:"-"`
}

// ProposalInput carries everything the prompt is built from. Score,
// Analysis and Languages are optional.
type ProposalInput struct {
	Job       *models.JobRecord
	Score     *priority.Score
	Analysis  *JobAnalysis
	Languages []string
}

type ProposalWriter struct {
	gen        Generator
	profile    models.UserProfile
	MaxRetries int
}

func NewProposalWriter(gen Generator, profile models.UserProfile) *ProposalWriter {
	return &ProposalWriter{gen: gen, profile: profile, MaxRetries: DefaultMaxRetries}
}

// Write generates a proposal, regenerating while the quality gate fails.
func (w *ProposalWriter) Write(ctx context.Context, in ProposalInput) (*Proposal, error) {
	if in.Job == nil {
		return nil, fmt.Errorf("proposal: job is required")
	}
	start := time.Now()
	prompt := w.prompt(in)

	var lastIssue string
	for attempt := 1; attempt <= w.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Interrupted()
		}

		text, err := w.gen.GenerateContent(ctx, prompt)
		if err != nil {
			lastIssue = err.Error()
			log.WithError(err).Warnf("⚠️ Proposal attempt %d/%d failed", attempt, w.MaxRetries)
			continue
		}

		issues := CheckProposal(text, in.Job.RequiredSkills)
		if len(issues) == 0 {
			log.Printf("✍️ Proposal for %s ready after %d attempt(s)", in.Job.JobID, attempt)
			return &Proposal{
				Text:           text,
				CharacterCount: utf8.RuneCountInString(text),
				MatchedSkills:  matchedSkills(text, in.Job.RequiredSkills),
				Attempts:       attempt,
				Duration:       time.Since(start),
			}, nil
		}
		lastIssue = strings.Join(issues, "; ")
		log.Printf("🔁 Proposal attempt %d/%d rejected: %s", attempt, w.MaxRetries, lastIssue)
	}
	return nil, apperr.GeminiAPI(nil, "proposal failed after %d attempts: %s", w.MaxRetries, lastIssue)
}

// CheckProposal returns the quality issues of text, none when it passes.
func CheckProposal(text string, requiredSkills []string) []string {
	var issues []string
	n := utf8.RuneCountInString(text)
	if n < MinProposalChars {
		issues = append(issues, fmt.Sprintf("character count too low: %d < %d", n, MinProposalChars))
	}
	if n > MaxProposalChars {
		issues = append(issues, fmt.Sprintf("character count too high: %d > %d", n, MaxProposalChars))
	}

	//at least one of the first three required skills must be mentioned
	top := requiredSkills
	if len(top) > 3 {
		top = top[:3]
	}
	if len(top) > 0 && len(matchedSkills(text, top)) == 0 {
		issues = append(issues, "no job keywords found in proposal")
	}
	return issues
}

func matchedSkills(text string, skills []string) []string {
	matched := []string{}
	for _, skill := range skills {
		if filter.ContainsFold(text, skill) {
			matched = append(matched, skill)
		}
	}
	return matched
}

const proposalInstructions = `あなたはフリーランスエンジニア向けの提案文作成アシスタントです。
ランサーズで高い採用率を獲得できる提案文を作成してください。

## 構成
1. 挨拶・自己紹介（提供された固定文をそのまま使用）
2. 案件への理解・共感
3. 提案内容・アプローチ
4. 技術力・実績
5. スケジュール・稼働
6. 締めの挨拶（提供された固定文をそのまま使用）

## 制約
- 文字数は1,500〜1,800文字を目標とし、1,300文字以上2,000文字以内に収める
- 虚偽の実績や経験を記載しない
- 案件固有の内容を含め、自然な敬語で記述する
- プレーンテキストで出力し、パート間は空行で区切る`

func (w *ProposalWriter) prompt(in ProposalInput) string {
	var sb strings.Builder
	sb.WriteString(proposalInstructions)
	sb.WriteString("\n\n")
	sb.WriteString(jobSection(in.Job))

	sb.WriteString("\n## エンジニア情報\n\n")
	fmt.Fprintf(&sb, "**スキル**: %s\n", joinOrNone(w.profile.Skills))
	fmt.Fprintf(&sb, "**得意分野**: %s\n", joinOrNone(w.profile.Specialties))
	if w.profile.ExperienceYears > 0 {
		fmt.Fprintf(&sb, "**経験年数**: %d年\n", w.profile.ExperienceYears)
	}
	if w.profile.AvailableHoursPerWeek > 0 {
		fmt.Fprintf(&sb, "**稼働時間**: 週%d時間\n", w.profile.AvailableHoursPerWeek)
	}
	if len(in.Languages) > 0 {
		fmt.Fprintf(&sb, "**GitHub主要言語**: %s\n", strings.Join(in.Languages, ", "))
	}

	if a := in.Analysis; a != nil {
		sb.WriteString("\n## 案件分析\n\n")
		fmt.Fprintf(&sb, "**主要タスク**: %s\n", a.Requirements.MainTask)
		fmt.Fprintf(&sb, "**クライアントの課題**: %s\n", joinOrNone(a.ClientAnalysis.PainPoints))
		fmt.Fprintf(&sb, "**強調すべき点**: %s\n", joinOrNone(a.KeyPoints.EmphasisPoints))
		fmt.Fprintf(&sb, "**使うべきキーワード**: %s\n", joinOrNone(a.KeyPoints.Keywords))
	}

	if s := in.Score; s != nil && len(s.Reasons) > 0 {
		sb.WriteString("\n## マッチ度の根拠\n\n")
		for _, reason := range s.Reasons {
			fmt.Fprintf(&sb, "- %s\n", reason)
		}
	}

	sb.WriteString("\n## 使用する固定文\n\n")
	fmt.Fprintf(&sb, "【挨拶・自己紹介】\n%s\n\n", strings.TrimSpace(w.profile.Greeting))
	fmt.Fprintf(&sb, "【締めの挨拶】\n%s\n", strings.TrimSpace(w.profile.Closing))

	fmt.Fprintf(&sb, "\n「%s」に対する具体的な提案を作成してください。\n", in.Job.Title)
	return sb.String()
}
