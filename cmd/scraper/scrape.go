package main

import (
	"fmt"
	"os"
	"strings"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/dedup"
	"go-lancers-scout/internal/priority"
	"go-lancers-scout/internal/reporter"
	"go-lancers-scout/internal/runner"
	"go-lancers-scout/internal/taxonomy"
	"go-lancers-scout/internal/telegram"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape Lancers search pages",
	Long: `Scrape one or more Lancers categories page by page.

Categories are "category" or "category/subcategory" slugs, e.g. system or system/ai.
Without --categories every category is searched. --max-pages 0 reads until the last page.`,
	Example: "  lancers-scout scrape -c system/ai -c web -t project --max-pages 3 --details --save",
	RunE:    runScrape,
}

var (
	scrapeCategories []string
	scrapeJobTypes   []string
	scrapeMaxPages   int
	scrapeDetails    bool
	scrapeSave       bool
	scrapeOutput     string
	scrapeNotify     bool
)

func init() {
	scrapeCmd.Flags().StringSliceVarP(&scrapeCategories, "categories", "c", nil, "Category selections (category or category/subcategory)")
	scrapeCmd.Flags().StringSliceVarP(&scrapeJobTypes, "job-types", "t", nil, "Job types: project, task, competition")
	scrapeCmd.Flags().IntVarP(&scrapeMaxPages, "max-pages", "p", 1, "Pages per category (0 = all)")
	scrapeCmd.Flags().BoolVarP(&scrapeDetails, "details", "d", false, "Open every job page for description and skills")
	scrapeCmd.Flags().BoolVar(&scrapeSave, "save", false, "Save results to the job store")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "Directory for a JSON export of the run")
	scrapeCmd.Flags().BoolVar(&scrapeNotify, "notify", false, "Send new top jobs to Telegram")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	types, err := parseJobTypes(scrapeJobTypes)
	if err != nil {
		return err
	}
	if unknown := taxonomy.Unknown(scrapeCategories); len(unknown) > 0 {
		return apperr.InvalidArgument("unknown categories: %s", strings.Join(unknown, ", "))
	}

	env, err := openScrapeEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	r, cleanup, err := newRunner(cmd, env, scrapeSave, scrapeOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	log.Println("🚀 Starting Lancers scrape...")
	result, runErr := r.Run(ctx, runner.Request{
		Categories:   scrapeCategories,
		JobTypes:     types,
		MaxPages:     scrapeMaxPages,
		FetchDetails: scrapeDetails,
		Save:         scrapeSave,
	})

	if scrapeNotify {
		notifyRun(result, runErr)
	}
	//partial results are still shown when the run fails
	if result != nil {
		printJobs(os.Stdout, result.Jobs)
		fmt.Fprintf(os.Stdout, "\n%s\n", r.Progress().Message)
		if result.ExportPath != "" {
			fmt.Fprintf(os.Stdout, "📁 Results saved to %s\n", result.ExportPath)
		}
		for _, item := range result.DetailErrors {
			fmt.Fprintf(os.Stderr, "⚠️ detail %s: %v\n", item.ID, item.Err)
		}
	}
	return runErr
}

// newRunner builds a runner, with a store when save is set. cleanup closes it.
func newRunner(cmd *cobra.Command, env *scrapeEnv, save bool, outputDir string) (*runner.Runner, func(), error) {
	opts := runner.OptionsFromConfig(cfg)
	opts.OutputDir = outputDir

	if !save {
		return runner.New(env.lancers, nil, opts), func() {}, nil
	}
	store, err := openStore(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return runner.New(env.lancers, store, opts), func() { closeStore(store) }, nil
}

// notifyRun reports to Telegram, logging instead of failing the command.
func notifyRun(result *runner.Result, runErr error) {
	if !cfg.Telegram.Enabled() {
		log.Println("⚠️ Telegram is not configured, skipping notification")
		return
	}
	bot, err := telegram.NewBot(cfg.Telegram)
	if err != nil {
		log.WithError(err).Warn("❌ Failed to init Telegram Bot")
		return
	}
	rep := reporter.NewRunReporter(bot, dedup.NewJobCache(cfg.CachePath), priority.NewAnalyzer(cfg.Profile), cfg.Telegram.TopN)
	if err := rep.Report(result, runErr); err != nil {
		log.WithError(err).Warn("⚠️ Failed to send Telegram report")
	}
}
