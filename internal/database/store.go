package database

import (
	"context"
	"errors"
	"sort"
	"time"

	"go-lancers-scout/internal/config"
	"go-lancers-scout/internal/filter"
	"go-lancers-scout/internal/models"

	log "github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("job not found")

type UpsertResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

type Stats struct {
	Today      int                     `json:"today"`
	ThisWeek   int                     `json:"this_week"`
	Total      int                     `json:"total"`
	ByCategory map[models.Category]int `json:"by_category"`
}

// Store persists job records keyed by job_id.
type Store interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	Upsert(ctx context.Context, jobs []*models.JobRecord) (UpsertResult, error)
	Get(ctx context.Context, jobID string) (*models.JobRecord, error)
	// Query returns matching jobs, newest scraped_at first.
	Query(ctx context.Context, c filter.Criteria) ([]*models.JobRecord, error)
	Delete(ctx context.Context, c filter.Criteria) (int, error)
	// CleanupExpired removes closed jobs and jobs with no remaining days.
	CleanupExpired(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Open picks the backend from config: Postgres, then Supabase, then the
// local JSON file.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch {
	case cfg.URL != "":
		log.Println("🗄️ Using Postgres store")
		repo, err := ConnectDB(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	case cfg.SupabaseURL != "" && cfg.SupabaseKey != "":
		log.Println("🗄️ Using Supabase store")
		return NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey)
	default:
		log.Printf("🗄️ Using file store %s", cfg.FilePath)
		return NewFileStore(cfg.FilePath)
	}
}

// prepareBatch drops records without an id and keeps the last record of
// every duplicated id, preserving first-seen order.
func prepareBatch(jobs []*models.JobRecord) []*models.JobRecord {
	index := make(map[string]int, len(jobs))
	out := make([]*models.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		if job == nil || job.JobID == "" {
			continue
		}
		if i, ok := index[job.JobID]; ok {
			out[i] = job
			continue
		}
		index[job.JobID] = len(out)
		out = append(out, job)
	}
	return out
}

func jobIDs(jobs []*models.JobRecord) []string {
	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.JobID)
	}
	return ids
}

// SplitExisting partitions jobs into unknown and already stored records.
func SplitExisting(jobs []*models.JobRecord, existing map[string]bool) (fresh, known []*models.JobRecord) {
	for _, job := range jobs {
		if existing[job.JobID] {
			known = append(known, job)
		} else {
			fresh = append(fresh, job)
		}
	}
	return fresh, known
}

// upsertWith runs the shared upsert call pattern: read existing ids, split,
// write, count.
func upsertWith(ctx context.Context, s Store, jobs []*models.JobRecord, write func(context.Context, []*models.JobRecord) error) (UpsertResult, error) {
	batch := prepareBatch(jobs)
	if len(batch) == 0 {
		return UpsertResult{}, nil
	}

	existing, err := s.ExistingIDs(ctx, jobIDs(batch))
	if err != nil {
		return UpsertResult{}, err
	}
	fresh, known := SplitExisting(batch, existing)

	if err := write(ctx, batch); err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{Added: len(fresh), Updated: len(known)}, nil
}

// ComputeStats aggregates jobs relative to now.
func ComputeStats(jobs []*models.JobRecord, now time.Time) Stats {
	today, week := filter.StartOfDay(now), filter.StartOfWeek(now)
	stats := Stats{Total: len(jobs), ByCategory: map[models.Category]int{}}
	for _, job := range jobs {
		if !job.ScrapedAt.Before(today) {
			stats.Today++
		}
		if !job.ScrapedAt.Before(week) {
			stats.ThisWeek++
		}
		stats.ByCategory[job.Category]++
	}
	return stats
}

func sortNewestFirst(jobs []*models.JobRecord) {
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].ScrapedAt.After(jobs[j].ScrapedAt)
	})
}
