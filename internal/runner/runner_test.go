package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/database"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScraper serves listing pages from sizes, keyed by "category/page".
type fakeScraper struct {
	mu      sync.Mutex
	sizes   map[string][]int
	shared  map[string]string // page key -> job id repeated on that page
	fail    map[string]bool
	hang    map[string]bool // pages that never load
	details map[string]error
	calls   []string
	scrapes map[string]int

	onList func(key string)
	block  chan struct{}
}

func newFake(sizes map[string][]int) *fakeScraper {
	return &fakeScraper{
		sizes:   sizes,
		shared:  map[string]string{},
		fail:    map[string]bool{},
		hang:    map[string]bool{},
		details: map[string]error{},
		scrapes: map[string]int{},
	}
}

func (f *fakeScraper) Name() string { return "Fake" }
func (f *fakeScraper) Service() models.Service { return models.ServiceLancers }
func (f *fakeScraper) CanHandle(url string) bool { return true }
func (f *fakeScraper) CanHandleList(url string) bool { return true }
func (f *fakeScraper) BuildSearchURL(p scraper.SearchParams) string {
	name := p.Category
	if p.Subcategory != "" {
		name += "/" + p.Subcategory
	}
	if name == "" {
		name = "all"
	}
	return fmt.Sprintf("%s#%d", name, p.Page)
}

func (f *fakeScraper) ScrapeList(ctx context.Context, url string, maxItems int) ([]*models.JobRecord, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, url)
	onList := f.onList
	f.mu.Unlock()
	if onList != nil {
		onList(url)
	}

	if f.hang[url] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.fail[url] {
		return nil, apperr.Network(errors.New("timeout"), "load %s", url)
	}
	name, pageStr, _ := strings.Cut(url, "#")
	var page int
	fmt.Sscanf(pageStr, "%d", &page)

	sizes := f.sizes[name]
	if page > len(sizes) {
		return []*models.JobRecord{}, nil
	}
	jobs := make([]*models.JobRecord, 0, sizes[page-1])
	for i := 0; i < sizes[page-1]; i++ {
		id := fmt.Sprintf("%s-%d-%d", name, page, i)
		if i == 0 && f.shared[url] != "" {
			id = f.shared[url]
		}
		job := models.NewJobRecord(models.ServiceLancers, id, "https://www.lancers.jp/work/detail/"+id)
		job.Title = "job " + id
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (f *fakeScraper) Scrape(ctx context.Context, url string) (*models.JobRecord, error) {
	f.mu.Lock()
	f.scrapes[url]++
	f.mu.Unlock()
	if err := f.details[url]; err != nil {
		return nil, err
	}
	detail := models.NewJobRecord(models.ServiceLancers, "", url)
	detail.Description = "detail of " + url
	detail.RequiredSkills = []string{"Go"}
	return detail, nil
}

func (f *fakeScraper) listCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func testOptions() Options {
	return Options{
		LastPageThreshold: 20,
		PageTimeout:       time.Second,
		DetailTimeout:     time.Second,
		Concurrency:       1,
		MaxItems:          50,
		RetryAttempts:     3,
	}
}

func TestRun_PageTimeoutStopsOnlyThatCategory(t *testing.T) {
	fake := newFake(map[string][]int{
		"a": {20, 10},
		"b": {20, 20, 20},
		"c": {15},
	})
	fake.hang["b#2"] = true
	opts := testOptions()
	opts.PageTimeout = 50 * time.Millisecond
	r := New(fake, nil, opts)

	start := time.Now()
	result, err := r.Run(context.Background(), Request{Categories: []string{"a", "b", "c"}, MaxPages: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"a#1", "a#2", "b#1", "b#2", "c#1"}, fake.listCalls())
	assert.Len(t, result.Jobs, 65)
	assert.False(t, result.Cancelled)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, PhaseDone, r.Progress().Phase)
}

func TestRun_StopsCategoryOnShortPage(t *testing.T) {
	fake := newFake(map[string][]int{
		"a": {20, 20, 20},
		"b": {20, 15, 20},
		"c": {20, 20, 20},
	})
	r := New(fake, nil, testOptions())

	result, err := r.Run(context.Background(), Request{Categories: []string{"a", "b", "c"}, MaxPages: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"a#1", "a#2", "a#3", "b#1", "b#2", "c#1", "c#2", "c#3"}, fake.listCalls())
	assert.Len(t, result.Jobs, 155)
	assert.False(t, result.Cancelled)
	assert.NotEmpty(t, result.RunID)

	p := r.Progress()
	assert.False(t, p.Running)
	assert.Equal(t, PhaseDone, p.Phase)
	assert.Equal(t, 9, p.TotalPages)
	assert.Equal(t, 270, p.EstimatedTotal)
	assert.Equal(t, 155, p.JobsFetched)
	assert.Equal(t, 3, p.CategoryIndex)
}

func TestRun_StopConditions(t *testing.T) {
	tests := []struct {
		name     string
		sizes    []int
		fail     string
		maxPages int
		expected []string
	}{
		{"empty page", []int{20, 0, 20}, "", 3, []string{"x#1", "x#2"}},
		{"failed page", []int{20, 20, 20}, "x#2", 3, []string{"x#1", "x#2"}},
		{"max pages", []int{20, 20, 20}, "", 2, []string{"x#1", "x#2"}},
		{"unbounded stops at short page", []int{20, 20, 20, 3}, "", 0, []string{"x#1", "x#2", "x#3", "x#4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake(map[string][]int{"x": tt.sizes})
			if tt.fail != "" {
				fake.fail[tt.fail] = true
			}
			r := New(fake, nil, testOptions())

			_, err := r.Run(context.Background(), Request{Categories: []string{"x"}, MaxPages: tt.maxPages})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fake.listCalls())
		})
	}
}

func TestRun_UnboundedHasNoPageTotals(t *testing.T) {
	r := New(newFake(map[string][]int{"x": {5}}), nil, testOptions())

	_, err := r.Run(context.Background(), Request{Categories: []string{"x"}})
	require.NoError(t, err)
	assert.Zero(t, r.Progress().TotalPages)
	assert.Zero(t, r.Progress().EstimatedTotal)
}

func TestRun_DedupAcrossCategories(t *testing.T) {
	fake := newFake(map[string][]int{"a": {3}, "b": {3}})
	fake.shared["b#1"] = "a-1-0"
	r := New(fake, nil, testOptions())

	result, err := r.Run(context.Background(), Request{Categories: []string{"a", "b"}, MaxPages: 1})
	require.NoError(t, err)

	require.Len(t, result.Jobs, 5)
	assert.Equal(t, "a-1-0", result.Jobs[0].JobID)
	assert.Equal(t, "b-1-1", result.Jobs[3].JobID)
}

func TestRun_SetsSubcategoryAndAll(t *testing.T) {
	fake := newFake(map[string][]int{"system/ai": {2}, "all": {1}})
	r := New(fake, nil, testOptions())

	result, err := r.Run(context.Background(), Request{Categories: []string{"system/ai"}, MaxPages: 1})
	require.NoError(t, err)
	require.Len(t, result.Jobs, 2)
	require.NotNil(t, result.Jobs[0].Subcategory)
	assert.Equal(t, "ai", *result.Jobs[0].Subcategory)

	result, err = r.Run(context.Background(), Request{MaxPages: 1})
	require.NoError(t, err)
	require.Len(t, result.Jobs, 1)
	assert.Nil(t, result.Jobs[0].Subcategory)
	assert.Equal(t, "all", r.History()[0].Category)
}

func TestRun_SavesToStore(t *testing.T) {
	store, err := database.NewFileStore(filepath.Join(t.TempDir(), "jobs.json"))
	require.NoError(t, err)
	fake := newFake(map[string][]int{"a": {4}})
	r := New(fake, store, testOptions())

	req := Request{Categories: []string{"a"}, MaxPages: 1, Save: true}
	result, err := r.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, database.UpsertResult{Added: 4}, result.Saved)

	result, err = r.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, database.UpsertResult{Updated: 4}, result.Saved)

	history := r.History()
	require.Len(t, history, 2)
	assert.Equal(t, result.RunID, history[0].ID)
	assert.Equal(t, StatusCompleted, history[0].Status)
	assert.Equal(t, 4, history[0].Updated)
	assert.Equal(t, 4, history[1].Added)
	assert.Contains(t, r.Progress().Message, "0 new, 4 updated")
}

func TestRun_CancelSkipsSave(t *testing.T) {
	store, err := database.NewFileStore(filepath.Join(t.TempDir(), "jobs.json"))
	require.NoError(t, err)
	fake := newFake(map[string][]int{"a": {20, 20, 20}, "b": {20}})
	r := New(fake, store, testOptions())
	fake.onList = func(url string) {
		if url == "a#2" {
			assert.True(t, r.Cancel())
		}
	}

	result, err := r.Run(context.Background(), Request{Categories: []string{"a", "b"}, MaxPages: 3, Save: true})
	require.NoError(t, err)

	assert.True(t, result.Cancelled)
	assert.Equal(t, []string{"a#1", "a#2"}, fake.listCalls())
	assert.Len(t, result.Jobs, 40)
	assert.Zero(t, result.Saved.Added)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)

	assert.Equal(t, StatusCancelled, r.History()[0].Status)
	assert.True(t, r.Progress().Cancelled)
	assert.False(t, r.Cancel())
}

func TestRun_ContextCancelled(t *testing.T) {
	fake := newFake(map[string][]int{"a": {20, 20}})
	r := New(fake, nil, testOptions())
	ctx, cancel := context.WithCancel(context.Background())
	fake.onList = func(string) { cancel() }

	result, err := r.Run(ctx, Request{Categories: []string{"a"}, MaxPages: 2})
	assert.ErrorIs(t, err, apperr.ErrInterrupted)
	assert.True(t, result.Cancelled)
	assert.Equal(t, StatusCancelled, r.History()[0].Status)
}

func TestRun_FetchDetails(t *testing.T) {
	fake := newFake(map[string][]int{"a": {3}})
	denied := "https://www.lancers.jp/work/detail/a-1-1"
	flaky := "https://www.lancers.jp/work/detail/a-1-2"
	fake.details[denied] = apperr.AccessDenied("restricted")
	fake.details[flaky] = apperr.Network(errors.New("reset"), "load")
	r := New(fake, nil, testOptions())

	result, err := r.Run(context.Background(), Request{Categories: []string{"a"}, MaxPages: 1, FetchDetails: true})
	require.NoError(t, err)

	assert.Equal(t, "detail of https://www.lancers.jp/work/detail/a-1-0", result.Jobs[0].Description)
	assert.Equal(t, []string{"Go"}, result.Jobs[0].RequiredSkills)
	assert.Empty(t, result.Jobs[1].Description)

	require.Len(t, result.DetailErrors, 2)
	ids := []string{result.DetailErrors[0].ID, result.DetailErrors[1].ID}
	assert.ElementsMatch(t, []string{"a-1-1", "a-1-2"}, ids)

	assert.Equal(t, 1, fake.scrapes[denied])
	assert.Equal(t, 3, fake.scrapes[flaky])

	p := r.Progress()
	assert.Equal(t, 3, p.DetailTotal)
	assert.Equal(t, 3, p.DetailCurrent)
}

func TestRun_HistoryCapped(t *testing.T) {
	r := New(newFake(map[string][]int{"a": {1}}), nil, testOptions())

	var last string
	for i := 0; i < maxHistory+5; i++ {
		result, err := r.Run(context.Background(), Request{Categories: []string{"a"}, MaxPages: 1})
		require.NoError(t, err)
		last = result.RunID
	}

	history := r.History()
	assert.Len(t, history, maxHistory)
	assert.Equal(t, last, history[0].ID)
}

func TestStart_RejectsConcurrentRuns(t *testing.T) {
	fake := newFake(map[string][]int{"a": {1}})
	fake.block = make(chan struct{})
	r := New(fake, nil, testOptions())
	req := Request{Categories: []string{"a"}, MaxPages: 1}

	require.NoError(t, r.Start(context.Background(), req))
	assert.True(t, r.Running())
	assert.ErrorIs(t, r.Start(context.Background(), req), ErrAlreadyRunning)
	_, err := r.Run(context.Background(), req)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(fake.block)
	require.Eventually(t, func() bool { return !r.Running() }, 2*time.Second, 10*time.Millisecond)
	require.Len(t, r.History(), 1)
	assert.Equal(t, 1, r.History()[0].Count)
}

func TestRun_ExportsJSON(t *testing.T) {
	opts := testOptions()
	opts.OutputDir = t.TempDir()
	r := New(newFake(map[string][]int{"system/ai": {2}}), nil, opts)

	result, err := r.Run(context.Background(), Request{Categories: []string{"system/ai"}, MaxPages: 1})
	require.NoError(t, err)
	require.NotEmpty(t, result.ExportPath)
	assert.True(t, strings.HasPrefix(filepath.Base(result.ExportPath), "system-ai_jobs_"))

	data, err := os.ReadFile(result.ExportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"job_id": "system/ai-1-0"`)
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, DefaultLastPageThreshold, opts.LastPageThreshold)
	assert.Equal(t, 1, opts.Concurrency)
	assert.Equal(t, 1, opts.RetryAttempts)
	assert.Positive(t, opts.PageTimeout)
}
