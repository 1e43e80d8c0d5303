package lancers

import (
	"context"
	"testing"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/browser"
	"go-lancers-scout/internal/config"
	"go-lancers-scout/internal/models"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// routedRunner answers every request of the page with a fixed document.
type routedRunner struct {
	pm   *browser.PlaywrightManager
	html string
}

func (r routedRunner) WithPage(ctx context.Context, opts browser.ContextOptions, fn func(page playwright.Page) error) error {
	return r.pm.WithPage(ctx, opts, func(page playwright.Page) error {
		if err := page.Route("**/*", func(route playwright.Route) {
			route.Fulfill(playwright.RouteFulfillOptions{
				Status:      playwright.Int(200),
				ContentType: playwright.String("text/html; charset=utf-8"),
				Body:        r.html,
			})
		}); err != nil {
			return err
		}
		return fn(page)
	})
}

// setupPlaywright starts a headless browser, skipping when none is installed.
func setupPlaywright(t *testing.T) *browser.PlaywrightManager {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	pm, err := browser.NewPlaywright(context.Background(), browser.LaunchOptions{Headless: true})
	if err != nil {
		t.Skipf("playwright not available: %v", err)
	}
	t.Cleanup(func() { pm.Close() })
	return pm
}

func newTestScraper(runner browser.PageRunner) *LancersScraper {
	cfg := config.Default()
	cfg.Scraping.HumanLike.Enabled = false
	return NewLancersScraper(cfg, runner, nil, nil)
}

func TestLancersScraper_ScrapeList_Mock(t *testing.T) {
	pm := setupPlaywright(t)
	s := newTestScraper(routedRunner{pm: pm, html: searchFixture})

	jobs, err := s.ScrapeList(context.Background(), BuildSearchURL(searchParams("system")), 50)

	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "5123456", jobs[0].JobID)
	assert.Equal(t, models.StatusOpen, jobs[0].Status)
}

func TestLancersScraper_ScrapeList_Empty(t *testing.T) {
	pm := setupPlaywright(t)
	s := newTestScraper(routedRunner{pm: pm, html: `<html><body><p>該当する案件はありません</p></body></html>`})

	jobs, err := s.ScrapeList(context.Background(), BuildSearchURL(searchParams("web")), 50)

	assert.NoError(t, err)
	assert.Empty(t, jobs, "a page without cards yields no jobs")
}

func TestLancersScraper_Scrape_Mock(t *testing.T) {
	pm := setupPlaywright(t)
	s := newTestScraper(routedRunner{pm: pm, html: detailFixture})

	job, err := s.Scrape(context.Background(), detailURLFixture)

	require.NoError(t, err)
	assert.Equal(t, "5123456", job.JobID)
	assert.Equal(t, 300000, *job.BudgetMax)
}

func TestLancersScraper_Scrape_AccessRestricted(t *testing.T) {
	pm := setupPlaywright(t)
	html := `<html><head><title>閲覧制限 | ランサーズ</title></head><body></body></html>`
	s := newTestScraper(routedRunner{pm: pm, html: html})

	_, err := s.Scrape(context.Background(), detailURLFixture)

	assert.ErrorIs(t, err, apperr.ErrAccessDenied)
}

func TestLancersScraper_Scrape_InvalidURL(t *testing.T) {
	// rejected before any browser work
	s := newTestScraper(nil)

	_, err := s.Scrape(context.Background(), "https://www.lancers.jp/work/search/system")
	assert.ErrorIs(t, err, apperr.ErrInvalidURL)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestLancersScraper_Interface(t *testing.T) {
	s := newTestScraper(nil)

	assert.Equal(t, "Lancers", s.Name())
	assert.Equal(t, models.ServiceLancers, s.Service())
	assert.True(t, s.CanHandle(detailURLFixture))
	assert.True(t, s.CanHandleList("https://www.lancers.jp/work/search/web"))
	assert.Equal(t, "https://www.lancers.jp/work/search/web?open=1&type%5B%5D=project", s.BuildSearchURL(searchParams("web")))
}
