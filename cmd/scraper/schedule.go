package main

import (
	"go-lancers-scout/internal/dedup"
	"go-lancers-scout/internal/priority"
	"go-lancers-scout/internal/reporter"
	"go-lancers-scout/internal/runner"
	"go-lancers-scout/internal/scheduler"
	"go-lancers-scout/internal/telegram"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Scrape on the configured cron schedule until interrupted",
	Long: `Run the scrape from the schedule section of settings.yaml once right away and then
on every cron tick. Results are saved, expired jobs are cleaned up before each
cycle, and new top jobs are sent to Telegram when it is configured.`,
	RunE: runSchedule,
}

var scheduleSpec string

func init() {
	scheduleCmd.Flags().StringVar(&scheduleSpec, "cron", "", "Cron spec overriding schedule.cron, e.g. \"0 */6 * * *\"")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	env, err := openScrapeEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	spec := cfg.Schedule.Cron
	if scheduleSpec != "" {
		spec = scheduleSpec
	}

	r := runner.New(env.lancers, store, runner.OptionsFromConfig(cfg))
	s := scheduler.New(r, spec, scheduler.RequestFromConfig(cfg.Schedule)).WithCleaner(store)

	if cfg.Telegram.Enabled() {
		bot, err := telegram.NewBot(cfg.Telegram)
		if err != nil {
			return err
		}
		log.Println("🤖 Telegram Bot initialized.")
		rep := reporter.NewRunReporter(bot, dedup.NewJobCache(cfg.CachePath), priority.NewAnalyzer(cfg.Profile), cfg.Telegram.TopN)
		s.OnRun(func(result *runner.Result, runErr error) {
			if err := rep.Report(result, runErr); err != nil {
				log.WithError(err).Warn("⚠️ Failed to send Telegram report")
			}
		})
	}

	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	log.Println("🛑 Shutting down scheduler...")
	s.Stop()
	return nil
}
