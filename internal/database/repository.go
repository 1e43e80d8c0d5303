package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-lancers-scout/internal/filter"
	"go-lancers-scout/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

type Repository struct {
	db *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Supabase pooler (PgBouncer, transaction mode) breaks prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

// Migrate creates the jobs table when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		r.db.Close()
	}
	return nil
}

const jobColumns = `job_id, title, description, category, subcategory, budget_type, job_type, status,
	budget_min, budget_max, deadline, remaining_days, required_skills, tags, feature_tags,
	proposal_count, recruitment_count, source, url,
	client_name, client_rating, client_review_count, client_order_history, scraped_at`

const upsertJobSQL = `
	INSERT INTO jobs (` + jobColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	ON CONFLICT (job_id)
	DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description, category = EXCLUDED.category,
		subcategory = EXCLUDED.subcategory, budget_type = EXCLUDED.budget_type, job_type = EXCLUDED.job_type,
		status = EXCLUDED.status, budget_min = EXCLUDED.budget_min, budget_max = EXCLUDED.budget_max,
		deadline = EXCLUDED.deadline, remaining_days = EXCLUDED.remaining_days,
		required_skills = EXCLUDED.required_skills, tags = EXCLUDED.tags, feature_tags = EXCLUDED.feature_tags,
		proposal_count = EXCLUDED.proposal_count, recruitment_count = EXCLUDED.recruitment_count,
		source = EXCLUDED.source, url = EXCLUDED.url, client_name = EXCLUDED.client_name,
		client_rating = EXCLUDED.client_rating, client_review_count = EXCLUDED.client_review_count,
		client_order_history = EXCLUDED.client_order_history, scraped_at = EXCLUDED.scraped_at,
		updated_at = now()`

func rowArgs(row models.JobRow) []any {
	return []any{
		row.JobID, row.Title, row.Description, string(row.Category), row.Subcategory,
		string(row.BudgetType), string(row.JobType), string(row.Status),
		row.BudgetMin, row.BudgetMax, row.Deadline, row.RemainingDays,
		row.RequiredSkills, row.Tags, row.FeatureTags,
		row.ProposalCount, row.RecruitmentCount, string(row.Source), row.URL,
		row.ClientName, row.ClientRating, row.ClientReviewCount, row.ClientOrderHistory, row.ScrapedAt,
	}
}

func scanJob(row pgx.Row) (*models.JobRecord, error) {
	var (
		r                                         models.JobRow
		category, budgetType, jobType, status, src string
	)
	err := row.Scan(&r.JobID, &r.Title, &r.Description, &category, &r.Subcategory, &budgetType, &jobType, &status,
		&r.BudgetMin, &r.BudgetMax, &r.Deadline, &r.RemainingDays, &r.RequiredSkills, &r.Tags, &r.FeatureTags,
		&r.ProposalCount, &r.RecruitmentCount, &src, &r.URL,
		&r.ClientName, &r.ClientRating, &r.ClientReviewCount, &r.ClientOrderHistory, &r.ScrapedAt)
	if err != nil {
		return nil, err
	}
	r.Category = models.Category(category)
	r.BudgetType = models.BudgetType(budgetType)
	r.JobType = models.JobType(jobType)
	r.Status = models.JobStatus(status)
	r.Source = models.Service(src)
	return r.ToRecord(), nil
}

func (r *Repository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	rows, err := r.db.Query(ctx, "SELECT job_id FROM jobs WHERE job_id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read existing ids: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read existing ids: %w", err)
	}

	existing := make(map[string]bool, len(found))
	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

// Upsert writes the batch in one round trip, updating rows that share a job_id.
func (r *Repository) Upsert(ctx context.Context, jobs []*models.JobRecord) (UpsertResult, error) {
	return upsertWith(ctx, r, jobs, func(ctx context.Context, batch []*models.JobRecord) error {
		b := &pgx.Batch{}
		for _, job := range batch {
			b.Queue(upsertJobSQL, rowArgs(job.ToRow())...)
		}
		if err := r.db.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("failed to save jobs: %w", err)
		}
		return nil
	})
}

func (r *Repository) Get(ctx context.Context, jobID string) (*models.JobRecord, error) {
	job, err := scanJob(r.db.QueryRow(ctx, "SELECT "+jobColumns+" FROM jobs WHERE job_id = $1", jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job by ID: %w", err)
	}
	return job, nil
}

// whereClause renders c as a SQL condition with positional args.
func whereClause(c filter.Criteria) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if c.Category != "" {
		add("category = ?", string(c.Category))
	}
	if len(c.JobTypes) > 0 {
		types := make([]string, 0, len(c.JobTypes))
		for _, jt := range c.JobTypes {
			types = append(types, string(jt))
		}
		add("job_type = ANY(?)", types)
	}
	if c.Status != "" {
		add("status = ?", string(c.Status))
	}
	if c.Source != "" {
		add("source = ?", string(c.Source))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repository) Query(ctx context.Context, c filter.Criteria) ([]*models.JobRecord, error) {
	where, args := whereClause(c)
	args = append(args, c.EffectiveLimit())
	query := "SELECT " + jobColumns + " FROM jobs" + where +
		" ORDER BY scraped_at DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*models.JobRecord{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, c filter.Criteria) (int, error) {
	where, args := whereClause(c)
	tag, err := r.db.Exec(ctx, "DELETE FROM jobs"+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) CleanupExpired(ctx context.Context) (int, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM jobs WHERE remaining_days <= 0 OR status = $1", string(models.StatusClosed))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	now := time.Now()
	stats := Stats{ByCategory: map[models.Category]int{}}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE scraped_at >= $1),
		       COUNT(*) FILTER (WHERE scraped_at >= $2),
		       COUNT(*)
		FROM jobs`, filter.StartOfDay(now), filter.StartOfWeek(now)).
		Scan(&stats.Today, &stats.ThisWeek, &stats.Total)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count jobs: %w", err)
	}

	rows, err := r.db.Query(ctx, "SELECT category, COUNT(*) FROM jobs GROUP BY category")
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return Stats{}, fmt.Errorf("failed to count categories: %w", err)
		}
		stats.ByCategory[models.Category(category)] = count
	}
	return stats, rows.Err()
}
