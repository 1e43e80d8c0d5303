package main

import (
	"bytes"
	"testing"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/filter"
	"go-lancers-scout/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{
		"scrape", "list", "rank", "detail",
		"login", "logout", "sessions", "import-cookies",
		"cleanup", "stats", "delete",
		"schedule", "propose", "report", "github-skills",
	}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestParseJobTypes(t *testing.T) {
	types, err := parseJobTypes([]string{"project", " Task ", ""})
	require.NoError(t, err)
	assert.Equal(t, []models.JobType{models.JobTypeProject, models.JobTypeTask}, types)

	_, err = parseJobTypes([]string{"gig"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestParseService(t *testing.T) {
	s, err := parseService("Lancers")
	require.NoError(t, err)
	assert.Equal(t, models.ServiceLancers, s)

	_, err = parseService("upwork")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestCriteriaFromFlags(t *testing.T) {
	reset := func() {
		criteriaCategory, criteriaJobTypes, criteriaStatus = "", nil, ""
	}
	t.Cleanup(reset)

	tests := []struct {
		name     string
		category string
		types    []string
		status   string
		want     filter.Criteria
		wantErr  bool
	}{
		{name: "empty", want: filter.Criteria{Limit: 5, JobTypes: []models.JobType{}}},
		{
			name:     "all set",
			category: "scraping",
			types:    []string{"competition"},
			status:   "open",
			want: filter.Criteria{
				Category: models.CategoryScraping,
				JobTypes: []models.JobType{models.JobTypeCompetition},
				Status:   models.StatusOpen,
				Limit:    5,
			},
		},
		{name: "bad category", category: "cooking", wantErr: true},
		{name: "bad status", status: "archived", wantErr: true},
		{name: "bad type", types: []string{"gig"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset()
			criteriaCategory, criteriaJobTypes, criteriaStatus = tt.category, tt.types, tt.status

			got, err := criteriaFromFlags(5)
			if tt.wantErr {
				assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsEmptyCriteria(t *testing.T) {
	assert.True(t, isEmptyCriteria(filter.Criteria{Limit: 10}))
	assert.False(t, isEmptyCriteria(filter.Criteria{Status: models.StatusClosed}))
	assert.False(t, isEmptyCriteria(filter.Criteria{JobTypes: []models.JobType{models.JobTypeTask}}))
}

func TestPrintJobs(t *testing.T) {
	job := models.NewJobRecord(models.ServiceLancers, "5012345", "https://www.lancers.jp/work/detail/5012345")
	job.Title = "Pythonでスクレイピングツールの開発"
	job.JobType = models.JobTypeProject
	job.Category = models.CategoryScraping
	job.BudgetMin, job.BudgetMax = models.Int(50000), models.Int(100000)

	var buf bytes.Buffer
	printJobs(&buf, []*models.JobRecord{job})

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "5012345")
	assert.Contains(t, out, "50,000円 〜 100,000円")
	assert.Contains(t, out, " - ")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "あいう…", truncate("あいうえおか", 4))
}
