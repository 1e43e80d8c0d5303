package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/filter"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/priority"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored jobs",
	RunE:  runList,
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank stored jobs against your profile",
	RunE:  runRank,
}

// shared by list, rank, report and delete
var (
	criteriaCategory string
	criteriaJobTypes []string
	criteriaStatus   string
	criteriaLimit    int
	listJSON         bool
	rankTop          int
)

func addCriteriaFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&criteriaCategory, "category", "", "Filter by category (web_development, scraping, ...)")
	cmd.Flags().StringSliceVarP(&criteriaJobTypes, "job-types", "t", nil, "Filter by job types")
	cmd.Flags().StringVar(&criteriaStatus, "status", "", "Filter by status: open or closed")
}

func init() {
	addCriteriaFlags(listCmd)
	listCmd.Flags().IntVarP(&criteriaLimit, "limit", "n", 50, "Maximum jobs to show")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of a table")

	addCriteriaFlags(rankCmd)
	rankCmd.Flags().IntVarP(&rankTop, "top", "n", 10, "Number of jobs to show")
	rankCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of text")

	rootCmd.AddCommand(listCmd, rankCmd)
}

// criteriaFromFlags builds the store filter from the shared flags.
func criteriaFromFlags(limit int) (filter.Criteria, error) {
	c := filter.Criteria{Limit: limit}
	if criteriaCategory != "" {
		c.Category = models.Category(criteriaCategory)
		if !c.Category.Valid() {
			return c, apperr.InvalidArgument("unknown category %q", criteriaCategory)
		}
	}
	types, err := parseJobTypes(criteriaJobTypes)
	if err != nil {
		return c, err
	}
	c.JobTypes = types
	switch models.JobStatus(criteriaStatus) {
	case "":
	case models.StatusOpen, models.StatusClosed:
		c.Status = models.JobStatus(criteriaStatus)
	default:
		return c, apperr.InvalidArgument("unknown status %q", criteriaStatus)
	}
	return c, nil
}

func runList(cmd *cobra.Command, args []string) error {
	criteria, err := criteriaFromFlags(criteriaLimit)
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore(store)

	jobs, err := store.Query(cmd.Context(), criteria)
	if err != nil {
		return err
	}
	if listJSON {
		return writeJSON(os.Stdout, jobs)
	}
	printJobs(os.Stdout, jobs)
	fmt.Fprintf(os.Stdout, "\n%d jobs\n", len(jobs))
	return nil
}

func runRank(cmd *cobra.Command, args []string) error {
	ranked, err := rankStored(cmd, rankTop)
	if err != nil {
		return err
	}
	if listJSON {
		return writeJSON(os.Stdout, ranked)
	}
	printRanked(os.Stdout, ranked)
	return nil
}

// rankStored scores every stored job matching the flags and keeps the top n.
func rankStored(cmd *cobra.Command, top int) ([]priority.RankedJob, error) {
	criteria, err := criteriaFromFlags(0)
	if err != nil {
		return nil, err
	}
	store, err := openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer closeStore(store)

	jobs, err := store.Query(cmd.Context(), criteria)
	if err != nil {
		return nil, err
	}
	ranked := priority.NewAnalyzer(cfg.Profile).Rank(jobs)
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked, nil
}

func printJobs(w io.Writer, jobs []*models.JobRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCATEGORY\tBUDGET\tPROPOSALS\tTITLE")
	for _, job := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			job.JobID, job.JobType, job.Category, job.BudgetDisplay(), intOrDash(job.ProposalCount), truncate(job.Title, 50))
	}
	tw.Flush()
}

func printRanked(w io.Writer, ranked []priority.RankedJob) {
	for i, rj := range ranked {
		fmt.Fprintf(w, "%2d. [%5.1f] %s\n", i+1, rj.Score.OverallScore, rj.Job.Title)
		fmt.Fprintf(w, "    %s | %s | %s\n", rj.Job.BudgetDisplay(), rj.Job.Category, rj.Job.URL)
		if len(rj.Score.Reasons) > 0 {
			fmt.Fprintf(w, "    %s\n", strings.Join(rj.Score.Reasons, " / "))
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
