package main

import (
	"fmt"
	"os"
	"sort"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/filter"
	"go-lancers-scout/internal/models"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete closed and expired jobs from the store",
	RunE:  runCleanup,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show job store statistics",
	RunE:  runStats,
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete stored jobs matching the filters",
	RunE:  runDelete,
}

var deleteAll bool

func init() {
	addCriteriaFlags(deleteCmd)
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Allow deleting without any filter")

	rootCmd.AddCommand(cleanupCmd, statsCmd, deleteCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore(store)

	n, err := store.CleanupExpired(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "🧹 Removed %d expired jobs\n", n)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore(store)

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Today:     %d\n", stats.Today)
	fmt.Fprintf(os.Stdout, "This week: %d\n", stats.ThisWeek)
	fmt.Fprintf(os.Stdout, "Total:     %d\n", stats.Total)

	categories := make([]models.Category, 0, len(stats.ByCategory))
	for c := range stats.ByCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return stats.ByCategory[categories[i]] > stats.ByCategory[categories[j]]
	})
	for _, c := range categories {
		fmt.Fprintf(os.Stdout, "  %-16s %d\n", c, stats.ByCategory[c])
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	criteria, err := criteriaFromFlags(0)
	if err != nil {
		return err
	}
	if isEmptyCriteria(criteria) && !deleteAll {
		return apperr.InvalidArgument("refusing to delete every job without --all")
	}

	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore(store)

	n, err := store.Delete(cmd.Context(), criteria)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "🗑️ Deleted %d jobs\n", n)
	return nil
}

func isEmptyCriteria(c filter.Criteria) bool {
	return c.Category == "" && len(c.JobTypes) == 0 && c.Status == "" && c.Source == ""
}
