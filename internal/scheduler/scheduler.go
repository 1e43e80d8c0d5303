// Package scheduler runs the configured scrape on a cron spec.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go-lancers-scout/internal/config"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/runner"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scrapes is the runner surface the scheduler needs.
type Scrapes interface {
	Run(ctx context.Context, req runner.Request) (*runner.Result, error)
}

// Cleaner drops expired jobs before each cycle. Optional.
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// AfterRun receives every cycle's outcome, e.g. to notify.
type AfterRun func(result *runner.Result, err error)

type Scheduler struct {
	cron    *cron.Cron
	runner  Scrapes
	cleaner Cleaner
	after   AfterRun
	spec    string
	req     runner.Request

	// first tracks the immediate run started by Start.
	first sync.WaitGroup
}

func New(r Scrapes, spec string, req runner.Request) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		runner: r,
		spec:   spec,
		req:    req,
	}
}

// RequestFromConfig builds the scheduled request from the schedule section.
func RequestFromConfig(cfg config.ScheduleConfig) runner.Request {
	types := make([]models.JobType, 0, len(cfg.JobTypes))
	for _, t := range cfg.JobTypes {
		types = append(types, models.JobType(t))
	}
	return runner.Request{
		Categories:   cfg.Categories,
		JobTypes:     types,
		MaxPages:     cfg.MaxPages,
		FetchDetails: cfg.FetchDetails,
		Save:         true,
	}
}

func (s *Scheduler) WithCleaner(c Cleaner) *Scheduler {
	s.cleaner = c
	return s
}

func (s *Scheduler) OnRun(fn AfterRun) *Scheduler {
	s.after = fn
	return s
}

// Start registers the job, starts the cron loop and runs one cycle right
// away so results do not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", s.spec, err)
	}
	s.cron.Start()
	log.Printf("⏰ Scheduler started, spec: %s", s.spec)

	s.first.Add(1)
	go func() {
		defer s.first.Done()
		s.RunOnce(ctx)
	}()
	return nil
}

// Stop waits for running cycles to finish, including the first one.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.first.Wait()
	log.Println("⏰ Scheduler stopped")
}

// RunOnce runs one cleanup and scrape cycle.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	log.Println("🔄 Scheduled scrape cycle started")

	if s.cleaner != nil {
		if n, err := s.cleaner.CleanupExpired(ctx); err != nil {
			log.WithError(err).Warn("⚠️ Cleanup failed")
		} else if n > 0 {
			log.Printf("🧹 Removed %d expired jobs", n)
		}
	}

	result, err := s.runner.Run(ctx, s.req)
	if errors.Is(err, runner.ErrAlreadyRunning) {
		log.Println("⏭️ A scrape is already running, skipping this cycle")
		return
	}
	if err != nil {
		log.WithError(err).Error("❌ Scheduled scrape failed")
	} else {
		log.Printf("✅ Scheduled scrape complete: %d jobs", len(result.Jobs))
	}

	if s.after != nil {
		s.after(result, err)
	}
}
