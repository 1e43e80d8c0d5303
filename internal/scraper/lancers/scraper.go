package lancers

import (
	"context"
	"strings"
	"time"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/browser"
	"go-lancers-scout/internal/config"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/scraper"
	"go-lancers-scout/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
	log "github.com/sirupsen/logrus"
)

const selectorWait = 5 * time.Second

type state string

const (
	stateLaunching  state = "launching"
	stateNavigating state = "navigating"
	stateWaiting    state = "waiting"
	stateExtracting state = "extracting"
	stateClosing    state = "closing"
	stateDone       state = "done"
	stateFailed     state = "failed"
)

type LancersScraper struct {
	pages       browser.PageRunner
	sessions    *browser.SessionStore
	humanizer   *browser.Humanizer
	screenshots *utils.ScreenShotDebugger
	pageLoad    time.Duration
	maxItems    int
}

var _ scraper.Scraper = (*LancersScraper)(nil)

// NewLancersScraper wires the scraper to a page runner. sessions and
// screenshots may be nil.
func NewLancersScraper(cfg *config.Config, pages browser.PageRunner, sessions *browser.SessionStore, screenshots *utils.ScreenShotDebugger) *LancersScraper {
	hl := cfg.Scraping.HumanLike
	return &LancersScraper{
		pages:       pages,
		sessions:    sessions,
		humanizer:   browser.NewHumanizer(hl.Enabled, hl.MinDelay, hl.MaxDelay),
		screenshots: screenshots,
		pageLoad:    time.Duration(cfg.Scraping.Timeout.PageLoad) * time.Millisecond,
		maxItems:    cfg.Scraping.MaxItems,
	}
}

func (s *LancersScraper) Name() string {
	return "Lancers"
}

func (s *LancersScraper) Service() models.Service {
	return models.ServiceLancers
}

func (s *LancersScraper) CanHandle(url string) bool {
	return CanHandle(url)
}

func (s *LancersScraper) CanHandleList(url string) bool {
	return CanHandleList(url)
}

func (s *LancersScraper) BuildSearchURL(params scraper.SearchParams) string {
	return BuildSearchURL(params)
}

func (s *LancersScraper) contextOptions() browser.ContextOptions {
	if s.sessions == nil {
		return browser.DefaultContextOptions("")
	}
	return s.sessions.ContextOptionsFor(models.ServiceLancers)
}

func (s *LancersScraper) transition(url string, st state) {
	log.WithFields(log.Fields{"url": url, "state": st}).Debug("lancers scraper")
}

func (s *LancersScraper) gotoOptions() playwright.PageGotoOptions {
	return playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.pageLoad.Milliseconds())),
	}
}

// waitFor tolerates a missing selector; extraction decides what that means.
func waitFor(page playwright.Page, selector string) {
	if _, err := page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(selectorWait.Milliseconds())),
	}); err != nil {
		log.WithField("selector", selector).Debug("selector did not appear in time")
	}
}

func document(page playwright.Page) (*goquery.Document, error) {
	html, err := page.Content()
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// ScrapeList returns the cards of one search page. Navigation errors and empty
// pages yield an empty list, not an error.
func (s *LancersScraper) ScrapeList(ctx context.Context, url string, maxItems int) ([]*models.JobRecord, error) {
	if maxItems <= 0 {
		maxItems = s.maxItems
	}
	jobs := []*models.JobRecord{}

	s.transition(url, stateLaunching)
	err := s.pages.WithPage(ctx, s.contextOptions(), func(page playwright.Page) error {
		s.transition(url, stateNavigating)
		if _, err := page.Goto(url, s.gotoOptions()); err != nil {
			log.Printf("⚠️ Error navigating to %s: %v", url, err)
			return nil
		}

		s.transition(url, stateWaiting)
		waitFor(page, selCard)
		if err := s.humanizer.Wait(ctx); err != nil {
			return err
		}
		if err := s.humanizer.Scroll(ctx, page); err != nil {
			log.WithError(err).Debug("scroll failed")
		}

		s.transition(url, stateExtracting)
		doc, err := document(page)
		if err != nil {
			log.Printf("⚠️ Could not read page content of %s: %v", url, err)
			return nil
		}
		if doc.Find(selCard).Length() == 0 {
			log.Printf("📭 No job cards found: %s", url)
			s.screenshots.CaptureAndLog(page, "lancers-empty-search", "Lancers: search page has no cards")
			return nil
		}

		jobs = ParseCards(doc, maxItems)
		log.Printf("📦 Found %d jobs on %s", len(jobs), url)
		return nil
	})
	s.transition(url, stateClosing)

	if err != nil {
		s.transition(url, stateFailed)
		return jobs, err
	}
	s.transition(url, stateDone)
	return jobs, nil
}

// Scrape fetches one job detail page.
func (s *LancersScraper) Scrape(ctx context.Context, url string) (*models.JobRecord, error) {
	if !CanHandle(url) {
		return nil, apperr.InvalidURL(url)
	}

	var job *models.JobRecord
	s.transition(url, stateLaunching)
	err := s.pages.WithPage(ctx, s.contextOptions(), func(page playwright.Page) error {
		s.transition(url, stateNavigating)
		if _, err := page.Goto(url, s.gotoOptions()); err != nil {
			return apperr.Scraping(err, "failed to load %s", url)
		}

		s.transition(url, stateWaiting)
		waitFor(page, selDetail)
		if err := s.humanizer.Wait(ctx); err != nil {
			return err
		}
		if err := s.humanizer.MouseJiggle(ctx, page); err != nil {
			log.WithError(err).Debug("mouse jiggle failed")
		}

		title, err := page.Title()
		if err != nil {
			return apperr.Scraping(err, "failed to read title of %s", url)
		}
		if IsAccessRestricted(title) {
			s.screenshots.CaptureAndLog(page, "lancers-access-denied", "Lancers: job is restricted to members")
		}

		s.transition(url, stateExtracting)
		doc, err := document(page)
		if err != nil {
			return apperr.Scraping(err, "failed to read content of %s", url)
		}
		job, err = ParseDetail(doc, url, title)
		return err
	})
	s.transition(url, stateClosing)

	if err != nil {
		s.transition(url, stateFailed)
		return nil, err
	}
	s.transition(url, stateDone)
	return job, nil
}
