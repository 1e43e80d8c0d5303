package main

import (
	"fmt"
	"os"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/github"

	"github.com/spf13/cobra"
)

var githubSkillsCmd = &cobra.Command{
	Use:   "github-skills",
	Short: "Show the languages of your GitHub repositories",
	Long:  "Show the languages of your public GitHub repositories and, with --job, the repositories that fit a stored job.",
	RunE:  runGitHubSkills,
}

var (
	githubUser string
	githubJob  string
)

func init() {
	githubSkillsCmd.Flags().StringVarP(&githubUser, "user", "u", "", "GitHub username (default github.username)")
	githubSkillsCmd.Flags().StringVar(&githubJob, "job", "", "Stored job_id to match repositories against")
	rootCmd.AddCommand(githubSkillsCmd)
}

func runGitHubSkills(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	user := githubUser
	if user == "" {
		user = cfg.GitHub.Username
	}
	if user == "" {
		return apperr.InvalidArgument("no GitHub username: pass --user or set github.username")
	}
	client := github.NewClient(user, cfg.GitHub.Token)

	profile, err := client.Profile(ctx)
	if err != nil {
		return err
	}
	repos, err := client.Repos(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s (%s), %d public repos\n\n", profile.Username, profile.Name, profile.PublicRepos)
	for _, stat := range github.Languages(repos) {
		fmt.Fprintf(os.Stdout, "  %-14s %3d repos  %5.1f%%\n", stat.Language, stat.Repos, stat.Percentage)
	}

	if githubJob == "" {
		return nil
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)
	job, err := store.Get(ctx, githubJob)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nRepositories matching %q:\n", job.Title)
	matches := github.MatchRepos(repos, job.RequiredSkills)
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "  none")
	}
	for _, repo := range matches {
		fmt.Fprintf(os.Stdout, "  ⭐%-4d %s (%s) %s\n", repo.Stars, repo.Name, repo.Language, repo.URL)
	}
	return nil
}
