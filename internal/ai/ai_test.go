package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/config"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/priority"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator returns its replies in order.
type scriptedGenerator struct {
	replies []string
	errs    []error
	prompts []string
}

func (g *scriptedGenerator) next(prompt string) (string, error) {
	i := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	if i < len(g.replies) {
		return g.replies[i], err
	}
	return "", err
}

func (g *scriptedGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return g.next(prompt)
}

func (g *scriptedGenerator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return g.next(prompt)
}

func (g *scriptedGenerator) Close() error { return nil }

func sampleJob() *models.JobRecord {
	job := models.NewJobRecord(models.ServiceLancers, "5012345", "https://www.lancers.jp/work/detail/5012345")
	job.Title = "ECサイトの価格スクレイピングツール開発"
	job.Description = "毎日ECサイトから価格を取得してCSVに保存したいです。"
	job.Category = models.CategoryScraping
	job.RequiredSkills = []string{"Python", "Playwright"}
	job.BudgetMin = models.Int(50000)
	job.BudgetMax = models.Int(100000)
	return job
}

func proposalText(n int, withSkill string) string {
	return withSkill + strings.Repeat("あ", n-len([]rune(withSkill)))
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without newline", "```{\"a\":1}```", `{"a":1}`},
		{"surrounding space", "  \n{\"a\":1}\n ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSON(tt.input))
		})
	}
}

func TestCheckProposal(t *testing.T) {
	skills := []string{"Python", "Playwright"}

	assert.Empty(t, CheckProposal(proposalText(1500, "python"), skills))
	assert.Empty(t, CheckProposal(proposalText(MinProposalChars, "Playwright"), skills))
	assert.Empty(t, CheckProposal(proposalText(MaxProposalChars, "Python"), skills))
	assert.Empty(t, CheckProposal(proposalText(1500, ""), nil))

	issues := CheckProposal(proposalText(1299, "Python"), skills)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "too low")

	issues = CheckProposal(proposalText(2001, "Python"), skills)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "too high")

	issues = CheckProposal(proposalText(1500, ""), skills)
	assert.Equal(t, []string{"no job keywords found in proposal"}, issues)

	// only the first three skills count
	issues = CheckProposal(proposalText(1500, "Docker"), []string{"Go", "Rust", "AWS", "Docker"})
	assert.Len(t, issues, 1)
}

func TestProposalWriter_RetriesUntilValid(t *testing.T) {
	gen := &scriptedGenerator{
		replies: []string{"短すぎる", "", proposalText(1600, "Python と Playwright")},
		errs:    []error{nil, errors.New("quota"), nil},
	}
	profile := models.DefaultProfile()
	profile.Skills = []string{"Go", "Python"}
	profile.Greeting = "はじめまして。"
	profile.Closing = "よろしくお願いいたします。"
	w := NewProposalWriter(gen, profile)

	score := priority.Score{Reasons: []string{"必要スキルが一致しています"}}
	p, err := w.Write(context.Background(), ProposalInput{Job: sampleJob(), Score: &score, Languages: []string{"Go"}})
	require.NoError(t, err)

	assert.Equal(t, 3, p.Attempts)
	assert.Equal(t, 1600, p.CharacterCount)
	assert.Equal(t, []string{"Python", "Playwright"}, p.MatchedSkills)

	require.Len(t, gen.prompts, 3)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "ECサイトの価格スクレイピングツール開発")
	assert.Contains(t, prompt, "50,000円 〜 100,000円")
	assert.Contains(t, prompt, "はじめまして。")
	assert.Contains(t, prompt, "- 必要スキルが一致しています")
	assert.Contains(t, prompt, "**GitHub主要言語**: Go")
}

func TestProposalWriter_GivesUp(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"a", "b", "c", proposalText(1500, "Python")}}
	w := NewProposalWriter(gen, models.DefaultProfile())

	_, err := w.Write(context.Background(), ProposalInput{Job: sampleJob()})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrGeminiAPI)
	assert.Len(t, gen.prompts, DefaultMaxRetries)

	_, err = w.Write(context.Background(), ProposalInput{})
	assert.Error(t, err)
}

func TestAnalyzeJob(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"```json\n" + `{
		"requirements": {"main_task": "価格取得の自動化", "deliverables": ["CSV"]},
		"key_points": {"keywords": ["スクレイピング"], "emphasis_points": ["安定稼働"]}
	}` + "\n```"}}

	analysis, err := AnalyzeJob(context.Background(), gen, sampleJob())
	require.NoError(t, err)
	assert.Equal(t, "価格取得の自動化", analysis.Requirements.MainTask)
	assert.Equal(t, []string{"CSV"}, analysis.Requirements.Deliverables)
	assert.Equal(t, []string{"安定稼働"}, analysis.KeyPoints.EmphasisPoints)
	assert.Contains(t, gen.prompts[0], "**必要スキル**: Python, Playwright")

	_, err = AnalyzeJob(context.Background(), &scriptedGenerator{replies: []string{"not json"}}, sampleJob())
	assert.ErrorIs(t, err, apperr.ErrGeminiAPI)
}

func TestGroqClient(t *testing.T) {
	var got groqRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"` + "```json\\n{\\\"ok\\\":true}\\n```" + `"}}]}`))
	}))
	defer srv.Close()

	c := NewGroqClient("secret", "")
	c.url = srv.URL

	out, err := c.GenerateJSON(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, DefaultGroqModel, got.Model)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestGroqClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, "status 429"},
		{"api error", http.StatusOK, `{"error":{"message":"bad model"}}`, "bad model"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"bad json", http.StatusOK, `nope`, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewGroqClient("k", "m")
			c.url = srv.URL
			_, err := c.GenerateContent(context.Background(), "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewGenerator_RequiresKeys(t *testing.T) {
	cfg := config.Default()

	cfg.AI.Provider = "groq"
	_, err := NewGenerator(context.Background(), cfg)
	assert.ErrorIs(t, err, apperr.ErrConfig)

	cfg.AI.Provider = "gemini"
	_, err = NewGenerator(context.Background(), cfg)
	assert.ErrorIs(t, err, apperr.ErrConfig)

	cfg.AI.Provider = "groq"
	cfg.AI.GroqKey = "k"
	gen, err := NewGenerator(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &GroqClient{}, gen)
}
