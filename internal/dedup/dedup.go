package dedup

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go-lancers-scout/internal/models"

	log "github.com/sirupsen/logrus"
)

const (
	cacheFile = "notified_jobs.json"
	// Expiry is how long a notified job stays in the cache.
	Expiry = 30 * 24 * time.Hour
)

type seenEntry struct {
	Key       string `json:"key"`
	Timestamp int64  `json:"timestamp"`
}

// JobCache remembers which jobs were already notified, keyed by JobRecord.Key.
type JobCache struct {
	mu       sync.Mutex
	filePath string
	seen     map[string]int64
	now      func() time.Time
}

// NewJobCache creates or loads the cache under cacheDir. Entries older than
// Expiry are dropped on load.
func NewJobCache(cacheDir string) *JobCache {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Printf("⚠️ Failed to create cache directory: %v", err)
	}
	cache := &JobCache{
		filePath: filepath.Join(cacheDir, cacheFile),
		seen:     make(map[string]int64),
		now:      time.Now,
	}
	cache.load()
	return cache
}

func (jc *JobCache) IsSeen(job *models.JobRecord) bool {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	_, exists := jc.seen[job.Key()]
	return exists
}

// Unseen returns the jobs not notified yet, in input order.
func (jc *JobCache) Unseen(jobs []*models.JobRecord) []*models.JobRecord {
	jc.mu.Lock()
	defer jc.mu.Unlock()

	fresh := make([]*models.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		if _, exists := jc.seen[job.Key()]; !exists {
			fresh = append(fresh, job)
		}
	}
	return fresh
}

// MarkSeen records jobs and persists the cache when anything changed.
func (jc *JobCache) MarkSeen(jobs []*models.JobRecord) error {
	jc.mu.Lock()
	defer jc.mu.Unlock()

	now := jc.now().UnixMilli()
	changed := false
	for _, job := range jobs {
		if _, exists := jc.seen[job.Key()]; !exists {
			jc.seen[job.Key()] = now
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return jc.save()
}

func (jc *JobCache) Len() int {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	return len(jc.seen)
}

func (jc *JobCache) load() {
	data, err := os.ReadFile(jc.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("⚠️ Failed to read %s: %v", cacheFile, err)
		}
		return
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("⚠️ Failed to parse %s: %v", cacheFile, err)
		return
	}

	cutoff := jc.now().Add(-Expiry).UnixMilli()
	loaded := 0
	for _, e := range entries {
		if e.Timestamp > cutoff {
			jc.seen[e.Key] = e.Timestamp
			loaded++
		}
	}
	log.Printf("📋 Loaded %d notified jobs (%d expired and removed)", loaded, len(entries)-loaded)
}

// save must be called with mu held.
func (jc *JobCache) save() error {
	entries := make([]seenEntry, 0, len(jc.seen))
	for key, ts := range jc.seen {
		entries = append(entries, seenEntry{Key: key, Timestamp: ts})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := jc.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, jc.filePath); err != nil {
		return err
	}
	log.Debugf("💾 Saved %d notified jobs to cache", len(entries))
	return nil
}
