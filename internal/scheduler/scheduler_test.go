package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-lancers-scout/internal/config"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu   sync.Mutex
	reqs []runner.Request
	err  error
	// release blocks Run until closed when set
	release chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, req runner.Request) (*runner.Result, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &runner.Result{Jobs: []*models.JobRecord{}}, nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakeCleaner struct{ calls int }

func (c *fakeCleaner) CleanupExpired(ctx context.Context) (int, error) {
	c.calls++
	return 2, nil
}

func TestRequestFromConfig(t *testing.T) {
	req := RequestFromConfig(config.ScheduleConfig{
		Categories:   []string{"system", "web/site"},
		JobTypes:     []string{"project", "task"},
		MaxPages:     3,
		FetchDetails: true,
	})

	assert.Equal(t, []string{"system", "web/site"}, req.Categories)
	assert.Equal(t, []models.JobType{models.JobTypeProject, models.JobTypeTask}, req.JobTypes)
	assert.Equal(t, 3, req.MaxPages)
	assert.True(t, req.FetchDetails)
	assert.True(t, req.Save)
}

func TestRunOnce(t *testing.T) {
	r := &fakeRunner{}
	c := &fakeCleaner{}
	var got []error
	s := New(r, "@every 1h", runner.Request{MaxPages: 2}).
		WithCleaner(c).
		OnRun(func(result *runner.Result, err error) { got = append(got, err) })

	s.RunOnce(context.Background())
	assert.Equal(t, 1, r.count())
	assert.Equal(t, 2, r.reqs[0].MaxPages)
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, []error{nil}, got)

	r.err = errors.New("boom")
	s.RunOnce(context.Background())
	require.Len(t, got, 2)
	assert.EqualError(t, got[1], "boom")

	// a cycle skipped because another run is active is not reported
	r.err = runner.ErrAlreadyRunning
	s.RunOnce(context.Background())
	assert.Len(t, got, 2)
}

func TestRunOnce_CancelledContext(t *testing.T) {
	r := &fakeRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	New(r, "@every 1h", runner.Request{}).RunOnce(ctx)
	assert.Zero(t, r.count())
}

func TestStart_RunsImmediately(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, "@every 1h", runner.Request{})

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return r.count() == 1 }, time.Second, 10*time.Millisecond)
	s.Stop()
}

func TestStop_WaitsForFirstRun(t *testing.T) {
	tests := []struct {
		name    string
		release time.Duration
	}{
		{name: "run finishes quickly", release: 0},
		{name: "run still in progress at stop", release: 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{release: make(chan struct{})}
			var reported atomic.Int32
			s := New(r, "@every 1h", runner.Request{}).
				OnRun(func(*runner.Result, error) { reported.Add(1) })

			require.NoError(t, s.Start(context.Background()))
			require.Eventually(t, func() bool { return r.count() == 1 }, time.Second, 5*time.Millisecond)

			time.AfterFunc(tt.release, func() { close(r.release) })
			s.Stop()
			assert.Equal(t, int32(1), reported.Load(), "first run finished before Stop returned")
		})
	}
}

func TestStart_InvalidSpec(t *testing.T) {
	s := New(&fakeRunner{}, "not a spec", runner.Request{})
	assert.Error(t, s.Start(context.Background()))
}
