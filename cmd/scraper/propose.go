package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go-lancers-scout/internal/ai"
	"go-lancers-scout/internal/database"
	"go-lancers-scout/internal/github"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/priority"
	"go-lancers-scout/internal/scraper/lancers"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var proposeCmd = &cobra.Command{
	Use:   "propose <job_id|url>",
	Short: "Draft a proposal for a job with the configured LLM",
	Long: `Draft a Japanese proposal for a stored job (by job_id) or a job page URL.

The job is analyzed first, scored against your profile, and, when a GitHub
username is configured, your repository languages are added to the prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runPropose,
}

var (
	proposeOut       string
	proposeNoAnalyze bool
	proposeRetries   int
)

func init() {
	proposeCmd.Flags().StringVarP(&proposeOut, "out", "o", "", "Write the proposal to this file")
	proposeCmd.Flags().BoolVar(&proposeNoAnalyze, "no-analyze", false, "Skip the job analysis step")
	proposeCmd.Flags().IntVar(&proposeRetries, "retries", ai.DefaultMaxRetries, "Regeneration attempts when the quality check fails")
	rootCmd.AddCommand(proposeCmd)
}

func runPropose(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	job, err := loadJob(ctx, args[0])
	if err != nil {
		return err
	}

	gen, err := ai.NewGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer gen.Close()

	in := ai.ProposalInput{Job: job}
	score := priority.NewAnalyzer(cfg.Profile).Analyze(job)
	in.Score = &score

	if !proposeNoAnalyze {
		log.Println("🔍 Analyzing job...")
		if in.Analysis, err = ai.AnalyzeJob(ctx, gen, job); err != nil {
			log.WithError(err).Warn("⚠️ Job analysis failed, continuing without it")
		}
	}
	in.Languages = githubLanguages(ctx)

	writer := ai.NewProposalWriter(gen, cfg.Profile)
	writer.MaxRetries = proposeRetries

	log.Println("✍️ Writing proposal...")
	proposal, err := writer.Write(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, proposal.Text)
	fmt.Fprintf(os.Stderr, "\n📝 %d characters, %d attempt(s), %s\n", proposal.CharacterCount, proposal.Attempts, proposal.Duration.Round(time.Millisecond))

	if proposeOut != "" {
		if err := os.WriteFile(proposeOut, []byte(proposal.Text), 0644); err != nil {
			return fmt.Errorf("write proposal: %w", err)
		}
		fmt.Fprintf(os.Stderr, "📁 Proposal saved to %s\n", proposeOut)
	}
	return nil
}

// loadJob scrapes ref when it is a job URL, otherwise reads it from the store.
func loadJob(ctx context.Context, ref string) (*models.JobRecord, error) {
	if lancers.CanHandle(ref) {
		env, err := openScrapeEnv(ctx)
		if err != nil {
			return nil, err
		}
		defer env.Close()
		return env.lancers.Scrape(ctx, ref)
	}

	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer closeStore(store)

	job, err := store.Get(ctx, ref)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("job %s is not stored, scrape it first or pass its URL: %w", ref, err)
	}
	return job, err
}

// githubLanguages returns the profile's repository languages, or nil when
// GitHub is not configured or unreachable.
func githubLanguages(ctx context.Context) []string {
	if cfg.GitHub.Username == "" {
		return nil
	}
	repos, err := github.NewClient(cfg.GitHub.Username, cfg.GitHub.Token).Repos(ctx)
	if err != nil {
		log.WithError(err).Warn("⚠️ Could not read GitHub repositories")
		return nil
	}
	return github.LanguageSkills(repos)
}
