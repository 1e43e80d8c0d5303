package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-lancers-scout/internal/filter"
	"go-lancers-scout/internal/models"

	"github.com/supabase-community/postgrest-go"
)

const jobsTable = "jobs"

// SupabaseStore talks to the jobs table through the Supabase REST API.
type SupabaseStore struct {
	client *postgrest.Client
}

var _ Store = (*SupabaseStore)(nil)

func NewSupabaseStore(url, serviceKey string) (*SupabaseStore, error) {
	client := postgrest.NewClient(strings.TrimRight(url, "/")+"/rest/v1", "", map[string]string{
		"apikey":        serviceKey,
		"Authorization": "Bearer " + serviceKey,
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("unable to create supabase client: %w", client.ClientError)
	}
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	var rows []struct {
		JobID string `json:"job_id"`
	}
	if _, err := s.client.From(jobsTable).Select("job_id", "", false).In("job_id", ids).ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("failed to read existing ids: %w", err)
	}

	existing := make(map[string]bool, len(rows))
	for _, row := range rows {
		existing[row.JobID] = true
	}
	return existing, nil
}

func (s *SupabaseStore) Upsert(ctx context.Context, jobs []*models.JobRecord) (UpsertResult, error) {
	return upsertWith(ctx, s, jobs, func(_ context.Context, batch []*models.JobRecord) error {
		rows := make([]models.JobRow, 0, len(batch))
		for _, job := range batch {
			rows = append(rows, job.ToRow())
		}
		if _, _, err := s.client.From(jobsTable).Upsert(rows, "job_id", "minimal", "").Execute(); err != nil {
			return fmt.Errorf("failed to save jobs: %w", err)
		}
		return nil
	})
}

func (s *SupabaseStore) Get(ctx context.Context, jobID string) (*models.JobRecord, error) {
	var rows []models.JobRow
	if _, err := s.client.From(jobsTable).Select("*", "", false).Eq("job_id", jobID).ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("failed to get job by ID: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].ToRecord(), nil
}

// applyCriteria narrows a request to the rows matching c.
func applyCriteria(fb *postgrest.FilterBuilder, c filter.Criteria) *postgrest.FilterBuilder {
	if c.Category != "" {
		fb = fb.Eq("category", string(c.Category))
	}
	if len(c.JobTypes) > 0 {
		types := make([]string, 0, len(c.JobTypes))
		for _, jt := range c.JobTypes {
			types = append(types, string(jt))
		}
		fb = fb.In("job_type", types)
	}
	if c.Status != "" {
		fb = fb.Eq("status", string(c.Status))
	}
	if c.Source != "" {
		fb = fb.Eq("source", string(c.Source))
	}
	return fb
}

func (s *SupabaseStore) Query(ctx context.Context, c filter.Criteria) ([]*models.JobRecord, error) {
	fb := applyCriteria(s.client.From(jobsTable).Select("*", "", false), c).
		Order("scraped_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(c.EffectiveLimit(), "")

	var rows []models.JobRow
	if _, err := fb.ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	return toRecords(rows), nil
}

func (s *SupabaseStore) deleteWhere(narrow func(*postgrest.FilterBuilder) *postgrest.FilterBuilder) (int, error) {
	var deleted []struct {
		JobID string `json:"job_id"`
	}
	fb := narrow(s.client.From(jobsTable).Delete("representation", ""))
	if _, err := fb.ExecuteTo(&deleted); err != nil {
		return 0, fmt.Errorf("failed to delete jobs: %w", err)
	}
	return len(deleted), nil
}

func (s *SupabaseStore) Delete(ctx context.Context, c filter.Criteria) (int, error) {
	return s.deleteWhere(func(fb *postgrest.FilterBuilder) *postgrest.FilterBuilder {
		// PostgREST refuses an unfiltered DELETE
		return applyCriteria(fb.Neq("job_id", ""), c)
	})
}

func (s *SupabaseStore) CleanupExpired(ctx context.Context) (int, error) {
	byDays, err := s.deleteWhere(func(fb *postgrest.FilterBuilder) *postgrest.FilterBuilder {
		return fb.Lte("remaining_days", "0")
	})
	if err != nil {
		return 0, err
	}
	byStatus, err := s.deleteWhere(func(fb *postgrest.FilterBuilder) *postgrest.FilterBuilder {
		return fb.Eq("status", string(models.StatusClosed))
	})
	return byDays + byStatus, err
}

func (s *SupabaseStore) Stats(ctx context.Context) (Stats, error) {
	var rows []models.JobRow
	if _, err := s.client.From(jobsTable).Select("job_id,category,scraped_at", "", false).ExecuteTo(&rows); err != nil {
		return Stats{}, fmt.Errorf("failed to count jobs: %w", err)
	}
	return ComputeStats(toRecords(rows), time.Now()), nil
}

func (s *SupabaseStore) Close() error {
	return nil
}

func toRecords(rows []models.JobRow) []*models.JobRecord {
	jobs := make([]*models.JobRecord, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.ToRecord())
	}
	return jobs
}
