// Package runner drives multi-category, multi-page scrape runs and keeps the
// progress and history of the latest runs.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/browser"
	"go-lancers-scout/internal/config"
	"go-lancers-scout/internal/database"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/scraper"
	"go-lancers-scout/internal/taxonomy"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrAlreadyRunning = errors.New("a scrape run is already in progress")

const (
	// MaxPagesAll caps a run that asks for every page.
	MaxPagesAll = 100
	// DefaultLastPageThreshold is the page size below which a page is the last.
	DefaultLastPageThreshold = 20
	estimatedJobsPerPage     = 30
)

type Options struct {
	LastPageThreshold int
	PageTimeout       time.Duration
	DetailTimeout     time.Duration
	PageDelayMin      time.Duration
	PageDelayMax      time.Duration
	Concurrency       int
	MaxItems          int
	RetryAttempts     int
	RetryDelay        time.Duration
	// OutputDir receives a JSON export of every completed run. Empty disables it.
	OutputDir string
}

func OptionsFromConfig(cfg *config.Config) Options {
	s := cfg.Scraping
	return Options{
		LastPageThreshold: s.LastPageThreshold,
		PageTimeout:       time.Duration(s.Timeout.Page) * time.Millisecond,
		DetailTimeout:     time.Duration(s.Timeout.Detail) * time.Millisecond,
		PageDelayMin:      time.Second,
		PageDelayMax:      2 * time.Second,
		Concurrency:       s.Concurrency,
		MaxItems:          s.MaxItems,
		RetryAttempts:     s.Retry.MaxAttempts,
		RetryDelay:        time.Duration(s.Retry.Delay) * time.Second,
	}
}

func (o Options) withDefaults() Options {
	if o.LastPageThreshold <= 0 {
		o.LastPageThreshold = DefaultLastPageThreshold
	}
	if o.PageTimeout <= 0 {
		o.PageTimeout = 90 * time.Second
	}
	if o.DetailTimeout <= 0 {
		o.DetailTimeout = 60 * time.Second
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 1
	}
	return o
}

type Request struct {
	// Categories are "category" or "category/subcategory" selections.
	Categories   []string         `json:"categories"`
	JobTypes     []models.JobType `json:"job_types" binding:"dive,oneof=project task competition"`
	MaxPages     int              `json:"max_pages" binding:"gte=0,lte=100"`
	FetchDetails bool             `json:"fetch_details"`
	Save         bool             `json:"save_to_database"`
}

// ItemResult records a failed item of a batch step.
type ItemResult struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
}

type Result struct {
	RunID        string                `json:"run_id"`
	Jobs         []*models.JobRecord   `json:"jobs"`
	Saved        database.UpsertResult `json:"saved"`
	DetailErrors []ItemResult          `json:"-"`
	Cancelled    bool                  `json:"cancelled"`
	ExportPath   string                `json:"export_path,omitempty"`
}

type Runner struct {
	scraper scraper.Scraper
	store   database.Store
	opts    Options

	running   atomic.Bool
	cancelled atomic.Bool
	progress  atomic.Pointer[Progress]

	mu      sync.Mutex
	history []HistoryEntry
}

// New builds a Runner. store may be nil, in which case nothing is saved.
func New(s scraper.Scraper, store database.Store, opts Options) *Runner {
	r := &Runner{scraper: s, store: store, opts: opts.withDefaults()}
	r.progress.Store(&Progress{Phase: PhaseIdle})
	return r
}

// Progress returns the latest snapshot.
func (r *Runner) Progress() Progress {
	return *r.progress.Load()
}

func (r *Runner) Running() bool {
	return r.running.Load()
}

// update applies fn to a copy of the snapshot and publishes it.
func (r *Runner) update(fn func(p *Progress)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := *r.progress.Load()
	fn(&next)
	r.progress.Store(&next)
}

// Cancel asks the current run to stop after the in-flight page or item.
func (r *Runner) Cancel() bool {
	if !r.running.Load() {
		return false
	}
	r.cancelled.Store(true)
	r.update(func(p *Progress) {
		p.Cancelled = true
		p.Message = "Cancelling..."
	})
	log.Println("🛑 Cancel requested")
	return true
}

func (r *Runner) stopped(ctx context.Context) bool {
	return r.cancelled.Load() || ctx.Err() != nil
}

// History returns the latest runs, newest first.
func (r *Runner) History() []HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]HistoryEntry{}, r.history...)
}

func (r *Runner) record(entry HistoryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append([]HistoryEntry{entry}, r.history...)
	if len(r.history) > maxHistory {
		r.history = r.history[:maxHistory]
	}
}

// Start launches Run in the background. The run is detached from ctx and
// stops early only through Cancel.
func (r *Runner) Start(ctx context.Context, req Request) error {
	if r.running.Load() {
		return ErrAlreadyRunning
	}
	started := make(chan error, 1)
	go func() {
		_, err := r.run(context.WithoutCancel(ctx), req, started)
		if err != nil && !errors.Is(err, ErrAlreadyRunning) {
			log.WithError(err).Error("❌ Background scrape failed")
		}
	}()
	return <-started
}

// Run executes one scrape run. A failed run still returns what was gathered.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	return r.run(ctx, req, nil)
}

func (r *Runner) run(ctx context.Context, req Request, started chan<- error) (*Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		if started != nil {
			started <- ErrAlreadyRunning
		}
		return nil, ErrAlreadyRunning
	}
	defer r.running.Store(false)
	r.cancelled.Store(false)
	if started != nil {
		started <- nil
	}

	selections := taxonomy.ParseSelections(req.Categories)
	maxPages, unbounded := req.MaxPages, req.MaxPages <= 0
	if unbounded || maxPages > MaxPagesAll {
		maxPages = MaxPagesAll
	}

	now := time.Now()
	result := &Result{RunID: uuid.NewString(), Jobs: []*models.JobRecord{}}
	labels := selectionLabels(selections)

	r.update(func(p *Progress) {
		*p = Progress{
			Running:       true,
			Phase:         PhaseFetching,
			Category:      labels,
			CategoryTotal: len(selections),
			Message:       "Preparing...",
			StartedAt:     &now,
		}
		if !unbounded {
			p.TotalPages = maxPages * len(selections)
			p.EstimatedTotal = maxPages * estimatedJobsPerPage * len(selections)
		}
	})
	log.WithFields(log.Fields{
		"run_id":        result.RunID,
		"categories":    labels,
		"job_types":     req.JobTypes,
		"max_pages":     maxPages,
		"fetch_details": req.FetchDetails,
		"save":          req.Save,
	}).Info("🚀 Scrape run started")

	jobs := r.fetchAll(ctx, selections, req.JobTypes, maxPages)
	result.Jobs = jobs

	var err error
	if req.FetchDetails && len(jobs) > 0 && !r.stopped(ctx) {
		result.DetailErrors = r.enrichDetails(ctx, jobs)
	}

	result.Cancelled = r.stopped(ctx)
	if ctx.Err() != nil {
		err = apperr.Interrupted()
	}
	if err == nil && req.Save && r.store != nil && len(jobs) > 0 && !result.Cancelled {
		r.update(func(p *Progress) {
			p.Phase = PhaseSaving
			p.Message = fmt.Sprintf("Saving %d jobs...", len(jobs))
		})
		result.Saved, err = r.store.Upsert(ctx, jobs)
		if err == nil {
			log.Printf("💾 Saved: %d new, %d updated", result.Saved.Added, result.Saved.Updated)
		}
	}

	if err == nil && !result.Cancelled && r.opts.OutputDir != "" {
		path, exportErr := r.export(req, jobs)
		if exportErr != nil {
			log.WithError(exportErr).Warn("⚠️ Failed to export jobs")
		}
		result.ExportPath = path
	}

	r.finish(result, req, now, err)
	return result, err
}

func selectionLabels(selections []taxonomy.Selection) string {
	labels := make([]string, 0, len(selections))
	for _, sel := range selections {
		labels = append(labels, sel.Label)
	}
	return strings.Join(labels, ", ")
}

// fetchAll scrapes every selection and merges the results in selection order,
// dropping jobs already seen in an earlier selection.
func (r *Runner) fetchAll(ctx context.Context, selections []taxonomy.Selection, jobTypes []models.JobType, maxPages int) []*models.JobRecord {
	perSelection := make([][]*models.JobRecord, len(selections))
	var fetched atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, sel := range selections {
		g.Go(func() error {
			if r.stopped(gctx) {
				return nil
			}
			perSelection[i] = r.fetchSelection(gctx, i, sel, jobTypes, maxPages, &fetched)
			return nil
		})
	}
	_ = g.Wait()
	return merge(perSelection)
}

func merge(perSelection [][]*models.JobRecord) []*models.JobRecord {
	seen := make(map[string]bool)
	jobs := []*models.JobRecord{}
	for _, batch := range perSelection {
		for _, job := range batch {
			if seen[job.JobID] {
				continue
			}
			seen[job.JobID] = true
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// fetchSelection walks the pages of one selection until a short or empty
// page, a failed page, maxPages or cancellation.
func (r *Runner) fetchSelection(ctx context.Context, index int, sel taxonomy.Selection, jobTypes []models.JobType, maxPages int, fetched *atomic.Int64) []*models.JobRecord {
	var jobs []*models.JobRecord
	label := sel.Label
	logger := log.WithField("category", label)

	for page := 1; page <= maxPages; page++ {
		if r.stopped(ctx) {
			break
		}

		r.update(func(p *Progress) {
			p.CategoryIndex = index + 1
			p.Category = label
			p.CurrentPage = index*maxPages + page
			p.Message = fmt.Sprintf("%s - fetching page %d...", label, page)
		})

		url := r.scraper.BuildSearchURL(scraper.SearchParams{
			Category:    sel.Category,
			Subcategory: sel.Subcategory,
			JobTypes:    jobTypes,
			OpenOnly:    true,
			Page:        page,
		})
		logger.Infof("📋 Fetching %s", url)

		pctx, cancel := context.WithTimeout(ctx, r.opts.PageTimeout)
		pageJobs, err := r.scraper.ScrapeList(pctx, url, r.opts.MaxItems)
		cancel()
		if err != nil {
			logger.WithError(err).Warnf("⚠️ Page %d failed, stopping this category", page)
			break
		}

		if len(pageJobs) == 0 {
			logger.Infof("  → page %d: 0 jobs, done", page)
			break
		}
		if sel.Subcategory != "" {
			for _, job := range pageJobs {
				job.Subcategory = models.String(sel.Subcategory)
			}
		}
		jobs = append(jobs, pageJobs...)
		total := fetched.Add(int64(len(pageJobs)))
		r.update(func(p *Progress) { p.JobsFetched = int(total) })
		logger.Infof("  → page %d: %d jobs", page, len(pageJobs))

		if len(pageJobs) < r.opts.LastPageThreshold {
			logger.Infof("  → last page reached (%d < %d)", len(pageJobs), r.opts.LastPageThreshold)
			break
		}
		if page < maxPages {
			if err := browser.RandomDelay(ctx, r.opts.PageDelayMin, r.opts.PageDelayMax); err != nil {
				break
			}
		}
	}
	return jobs
}

// enrichDetails merges description and required skills from each detail page
// into the listing records. Failures are collected per item.
func (r *Runner) enrichDetails(ctx context.Context, jobs []*models.JobRecord) []ItemResult {
	r.update(func(p *Progress) {
		p.Phase = PhaseDetails
		p.DetailTotal = len(jobs)
		p.DetailCurrent = 0
	})
	log.Printf("🔎 Fetching details for %d jobs", len(jobs))

	var (
		mu       sync.Mutex
		failures []ItemResult
		done     atomic.Int64
	)

	g := new(errgroup.Group)
	g.SetLimit(r.opts.Concurrency)
	for _, job := range jobs {
		if r.stopped(ctx) {
			break
		}
		g.Go(func() error {
			if r.stopped(ctx) {
				return nil
			}
			detail, err := r.scrapeDetail(ctx, job.URL)
			n := done.Add(1)
			r.update(func(p *Progress) {
				p.DetailCurrent = int(n)
				p.Message = fmt.Sprintf("Fetching details... (%d/%d)", n, len(jobs))
			})
			if err != nil {
				log.WithError(err).WithField("job_id", job.JobID).Warn("⚠️ Detail fetch failed")
				mu.Lock()
				failures = append(failures, ItemResult{ID: job.JobID, Err: err})
				mu.Unlock()
				return nil
			}
			job.MergeDetail(detail)
			return nil
		})
	}
	_ = g.Wait()
	return failures
}

// scrapeDetail retries transient failures. Access restrictions and bad URLs
// are final.
func (r *Runner) scrapeDetail(ctx context.Context, url string) (*models.JobRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= r.opts.RetryAttempts; attempt++ {
		dctx, cancel := context.WithTimeout(ctx, r.opts.DetailTimeout)
		detail, err := r.scraper.Scrape(dctx, url)
		cancel()
		if err == nil {
			return detail, nil
		}
		lastErr = err
		if errors.Is(err, apperr.ErrAccessDenied) || errors.Is(err, apperr.ErrInvalidURL) || r.stopped(ctx) {
			break
		}
		if attempt < r.opts.RetryAttempts {
			if err := browser.Sleep(ctx, r.opts.RetryDelay); err != nil {
				break
			}
		}
	}
	return nil, lastErr
}

func (r *Runner) export(req Request, jobs []*models.JobRecord) (string, error) {
	if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
		return "", err
	}
	name := "all"
	if len(req.Categories) > 0 {
		name = strings.NewReplacer("/", "-", " ", "").Replace(strings.Join(req.Categories, "_"))
	}
	path := filepath.Join(r.opts.OutputDir, fmt.Sprintf("%s_jobs_%s.json", name, time.Now().Format("20060102_150405")))

	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	log.Printf("📝 Exported %d jobs to %s", len(jobs), path)
	return path, nil
}

func (r *Runner) finish(result *Result, req Request, startedAt time.Time, err error) {
	entry := HistoryEntry{
		ID:              result.RunID,
		Timestamp:       time.Now(),
		Category:        strings.Join(req.Categories, ", "),
		Count:           len(result.Jobs),
		Added:           result.Saved.Added,
		Updated:         result.Saved.Updated,
		Status:          StatusCompleted,
		DurationSeconds: time.Since(startedAt).Seconds(),
	}
	if entry.Category == "" {
		entry.Category = "all"
	}

	var message string
	switch {
	case result.Cancelled:
		entry.Status = StatusCancelled
		message = fmt.Sprintf("Cancelled (%d jobs fetched)", len(result.Jobs))
	case err != nil:
		entry.Status = StatusFailed
		entry.Error = err.Error()
		message = fmt.Sprintf("Failed: %v", err)
	default:
		message = fmt.Sprintf("Done: %d jobs", len(result.Jobs))
		if req.Save && r.store != nil {
			message += fmt.Sprintf(" (%d new, %d updated)", result.Saved.Added, result.Saved.Updated)
		}
	}
	r.record(entry)

	r.update(func(p *Progress) {
		p.Running = false
		p.Phase = PhaseDone
		p.Message = message
		p.Cancelled = result.Cancelled
		if err != nil {
			p.Error = err.Error()
		}
	})
	log.WithFields(log.Fields{"run_id": result.RunID, "status": entry.Status, "jobs": entry.Count}).Info("🏁 " + message)
}
