package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go-lancers-scout/internal/filter"
	"go-lancers-scout/internal/models"

	log "github.com/sirupsen/logrus"
)

// FileStore keeps jobs in one JSON file. It is the fallback when no database
// is configured.
type FileStore struct {
	mu   sync.Mutex
	path string
	jobs map[string]*models.JobRecord
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	fs := &FileStore{path: path, jobs: make(map[string]*models.JobRecord)}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", fs.path, err)
	}

	var jobs []*models.JobRecord
	if err := json.Unmarshal(data, &jobs); err != nil {
		return fmt.Errorf("parse %s: %w", fs.path, err)
	}
	for _, job := range jobs {
		fs.jobs[job.JobID] = job
	}
	log.Debugf("loaded %d jobs from %s", len(jobs), fs.path)
	return nil
}

// save writes jobs to disk. The caller holds mu.
func (fs *FileStore) save(jobs map[string]*models.JobRecord) error {
	data, err := json.MarshalIndent(sorted(jobs), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal jobs: %w", err)
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, fs.path)
}

// commit saves next and swaps it in. On error the store keeps its old
// contents, so memory never holds rows that did not reach disk.
func (fs *FileStore) commit(next map[string]*models.JobRecord) error {
	if err := fs.save(next); err != nil {
		return err
	}
	fs.jobs = next
	return nil
}

// snapshot returns a shallow copy of the job map. The caller holds mu.
func (fs *FileStore) snapshot() map[string]*models.JobRecord {
	next := make(map[string]*models.JobRecord, len(fs.jobs))
	for id, job := range fs.jobs {
		next[id] = job
	}
	return next
}

// all must be called with mu held.
func (fs *FileStore) all() []*models.JobRecord {
	return sorted(fs.jobs)
}

func sorted(m map[string]*models.JobRecord) []*models.JobRecord {
	jobs := make([]*models.JobRecord, 0, len(m))
	for _, job := range m {
		jobs = append(jobs, job)
	}
	sortNewestFirst(jobs)
	return jobs
}

func (fs *FileStore) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	existing := make(map[string]bool)
	for _, id := range ids {
		if _, ok := fs.jobs[id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func (fs *FileStore) Upsert(ctx context.Context, jobs []*models.JobRecord) (UpsertResult, error) {
	return upsertWith(ctx, fs, jobs, func(_ context.Context, batch []*models.JobRecord) error {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		next := fs.snapshot()
		for _, job := range batch {
			copied := *job
			next[job.JobID] = &copied
		}
		return fs.commit(next)
	})
}

func (fs *FileStore) Get(ctx context.Context, jobID string) (*models.JobRecord, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	job, ok := fs.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (fs *FileStore) Query(ctx context.Context, c filter.Criteria) ([]*models.JobRecord, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	limit := c.EffectiveLimit()
	out := []*models.JobRecord{}
	for _, job := range fs.all() {
		if len(out) >= limit {
			break
		}
		if c.Matches(job) {
			copied := *job
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (fs *FileStore) deleteWhere(match func(*models.JobRecord) bool) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	next := fs.snapshot()
	removed := 0
	for id, job := range next {
		if match(job) {
			delete(next, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := fs.commit(next); err != nil {
		return 0, err
	}
	return removed, nil
}

func (fs *FileStore) Delete(ctx context.Context, c filter.Criteria) (int, error) {
	return fs.deleteWhere(c.Matches)
}

func (fs *FileStore) CleanupExpired(ctx context.Context) (int, error) {
	return fs.deleteWhere(filter.IsExpired)
}

func (fs *FileStore) Stats(ctx context.Context) (Stats, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return ComputeStats(fs.all(), time.Now()), nil
}

func (fs *FileStore) Close() error {
	return nil
}
