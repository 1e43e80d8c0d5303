package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-lancers-scout/internal/browser"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/priority"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() Report {
	job := models.NewJobRecord(models.ServiceLancers, "1", "https://www.lancers.jp/work/detail/1")
	job.Title = "<script>alert(1)</script> スクレイピング"
	job.Category = models.CategoryScraping
	job.BudgetMin = models.Int(30000)
	job.RemainingDays = models.Int(4)
	job.RequiredSkills = []string{"Python", "Playwright"}

	return Report{
		Title:       "Lancers ranking",
		GeneratedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Profile:     models.UserProfile{Name: "Taro"},
		Jobs: []priority.RankedJob{{
			Job:   job,
			Score: priority.Score{OverallScore: 72.3, Reasons: []string{"得意カテゴリの案件です"}},
		}},
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(sampleReport())
	require.NoError(t, err)
	out := string(html)

	assert.Contains(t, out, "2026-03-01 09:30 / 1件 / Taro")
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt; スクレイピング")
	assert.NotContains(t, out, "<script>alert")
	assert.Contains(t, out, "Python, Playwright")
	assert.Contains(t, out, "30,000円 〜")
	assert.Contains(t, out, `<td>4</td>`)
	assert.Contains(t, out, `<td>-</td>`)
	assert.Contains(t, out, `class="score high">72.3<`)
	assert.Contains(t, out, "<li>得意カテゴリの案件です</li>")
}

func TestRenderHTML_Empty(t *testing.T) {
	html, err := RenderHTML(Report{Title: "empty"})
	require.NoError(t, err)
	assert.Contains(t, string(html), "0件")
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.pdf")
	require.NoError(t, SaveToFile([]byte("%PDF-1.4"), path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestGenerate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	pm, err := browser.NewPlaywright(context.Background(), browser.LaunchOptions{Headless: true})
	if err != nil {
		t.Skipf("playwright not available: %v", err)
	}
	defer pm.Close()

	pdf, err := NewGenerator(pm).Generate(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.True(t, len(pdf) > 4 && string(pdf[:4]) == "%PDF")
}
