// Package main is the lancers-scout command line: scraping, stored job
// queries, sessions, scheduling and proposal generation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/config"
	"go-lancers-scout/internal/logger"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "lancers-scout",
	Short:             "Lancers job scraper",
	Long:              "lancers-scout scrapes Lancers job listings, stores and ranks them against your profile, and drafts proposals.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

var (
	cfg       *config.Config
	configDir string
	logLevel  string
	logFormat string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Directory holding settings.yaml and profile.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides settings)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides settings)")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if configDir != "" {
		cfg, err = config.LoadFrom(configDir)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	logger.Setup(level, format)
	log.WithField("dir", cfg.Dir).Debug("🔧 Config loaded")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(apperr.CodeOf(err)))
	}
}
