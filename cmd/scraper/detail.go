package main

import (
	"fmt"
	"os"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/models"

	"github.com/spf13/cobra"
)

var detailCmd = &cobra.Command{
	Use:     "detail <url>",
	Short:   "Scrape one job detail page",
	Example: "  lancers-scout detail https://www.lancers.jp/work/detail/1234567",
	Args:    cobra.ExactArgs(1),
	RunE:    runDetail,
}

var detailSave bool

func init() {
	detailCmd.Flags().BoolVar(&detailSave, "save", false, "Save the job to the job store")
	rootCmd.AddCommand(detailCmd)
}

func runDetail(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	url := args[0]

	env, err := openScrapeEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	s := env.registry.ForURL(url)
	if s == nil || !s.CanHandle(url) {
		return apperr.InvalidURL(url)
	}

	job, err := s.Scrape(ctx, url)
	if err != nil {
		return err
	}

	if detailSave {
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore(store)
		saved, err := store.Upsert(ctx, []*models.JobRecord{job})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "💾 Saved (%d new, %d updated)\n", saved.Added, saved.Updated)
	}
	return writeJSON(os.Stdout, job)
}
