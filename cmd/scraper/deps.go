package main

import (
	"context"
	"strings"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/browser"
	"go-lancers-scout/internal/database"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/scraper"
	"go-lancers-scout/internal/scraper/lancers"
	"go-lancers-scout/utils"

	log "github.com/sirupsen/logrus"
)

// scrapeEnv owns the browser and everything built on it for one command.
type scrapeEnv struct {
	pm       *browser.PlaywrightManager
	sessions *browser.SessionStore
	lancers  *lancers.LancersScraper
	registry *scraper.Registry
}

func openScrapeEnv(ctx context.Context) (*scrapeEnv, error) {
	sessions, err := browser.NewSessionStore(cfg.SessionDir)
	if err != nil {
		return nil, err
	}
	if !sessions.HasSession(models.ServiceLancers) {
		log.Println("⚠️ No Lancers session, member-only jobs will be restricted. Run `lancers-scout login` first.")
	}

	var shots *utils.ScreenShotDebugger
	if cfg.Scraping.Screenshots {
		if shots, err = utils.NewScreenShotDebugger(""); err != nil {
			return nil, err
		}
	}

	pm, err := browser.NewPlaywright(ctx, browser.LaunchOptions{Headless: cfg.Scraping.Headless})
	if err != nil {
		return nil, apperr.Scraping(err, "failed to start browser")
	}

	s := lancers.NewLancersScraper(cfg, pm, sessions, shots)
	return &scrapeEnv{
		pm:       pm,
		sessions: sessions,
		lancers:  s,
		registry: scraper.NewRegistry(s),
	}, nil
}

func (e *scrapeEnv) Close() {
	if err := e.pm.Close(); err != nil {
		log.WithError(err).Warn("⚠️ Failed to close browser")
	}
}

func openStore(ctx context.Context) (database.Store, error) {
	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, apperr.Config(err, "failed to open job store")
	}
	return store, nil
}

func closeStore(store database.Store) {
	if err := store.Close(); err != nil {
		log.WithError(err).Warn("⚠️ Failed to close job store")
	}
}

// parseJobTypes validates --job-types values.
func parseJobTypes(values []string) ([]models.JobType, error) {
	types := make([]models.JobType, 0, len(values))
	for _, v := range values {
		t := models.JobType(strings.ToLower(strings.TrimSpace(v)))
		switch t {
		case models.JobTypeProject, models.JobTypeTask, models.JobTypeCompetition:
			types = append(types, t)
		case "":
		default:
			return nil, apperr.InvalidArgument("unknown job type %q (want project, task or competition)", v)
		}
	}
	return types, nil
}

func parseService(name string) (models.Service, error) {
	s := models.Service(strings.ToLower(name))
	for _, known := range models.Services {
		if s == known {
			return s, nil
		}
	}
	return "", apperr.InvalidArgument("unknown service %q", name)
}
