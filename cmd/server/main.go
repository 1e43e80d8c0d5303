package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-lancers-scout/internal/api"
	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/browser"
	"go-lancers-scout/internal/config"
	"go-lancers-scout/internal/database"
	"go-lancers-scout/internal/logger"
	"go-lancers-scout/internal/priority"
	"go-lancers-scout/internal/runner"
	"go-lancers-scout/internal/scraper/lancers"
	"go-lancers-scout/utils"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		log.WithError(err).Error("❌ Server stopped")
		os.Exit(int(apperr.CodeOf(err)))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return apperr.Config(err, "failed to open job store")
	}
	defer store.Close()

	sessions, err := browser.NewSessionStore(cfg.SessionDir)
	if err != nil {
		return err
	}
	var shots *utils.ScreenShotDebugger
	if cfg.Scraping.Screenshots {
		if shots, err = utils.NewScreenShotDebugger(""); err != nil {
			return err
		}
	}

	pm, err := browser.NewPlaywright(ctx, browser.LaunchOptions{Headless: cfg.Scraping.Headless})
	if err != nil {
		return apperr.Scraping(err, "failed to start browser")
	}
	defer pm.Close()

	r := runner.New(lancers.NewLancersScraper(cfg, pm, sessions, shots), store, runner.OptionsFromConfig(cfg))
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           api.NewServer(r, store, priority.NewAnalyzer(cfg.Profile)).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server...")
	r.Cancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
