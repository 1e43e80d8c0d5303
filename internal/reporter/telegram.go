package reporter

import (
	"errors"
	"fmt"
	"strings"

	"go-lancers-scout/internal/dedup"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/priority"
	"go-lancers-scout/internal/runner"

	log "github.com/sirupsen/logrus"
)

// Notifier is implemented by telegram.Bot.
type Notifier interface {
	SendJob(rj priority.RankedJob) error
	SendStatus(message string) error
	SendError(err error) error
}

// RunReporter sends a run summary plus the best new jobs, each job once.
type RunReporter struct {
	notifier Notifier
	cache    *dedup.JobCache
	analyzer *priority.Analyzer
	topN     int
}

func NewRunReporter(n Notifier, cache *dedup.JobCache, analyzer *priority.Analyzer, topN int) *RunReporter {
	return &RunReporter{notifier: n, cache: cache, analyzer: analyzer, topN: topN}
}

// Report notifies about result. A failed run sends the error first and then
// whatever jobs it collected. A nil runErr with a nil result is a no-op.
func (r *RunReporter) Report(result *runner.Result, runErr error) error {
	var errs []error
	if runErr != nil {
		if err := r.notifier.SendError(runErr); err != nil {
			errs = append(errs, fmt.Errorf("send error: %w", err))
		}
		if result == nil || len(result.Jobs) == 0 {
			return errors.Join(errs...)
		}
	}
	if result == nil {
		return nil
	}
	if err := r.reportJobs(result); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *RunReporter) reportJobs(result *runner.Result) error {
	fresh := r.cache.Unseen(result.Jobs)
	ranked := r.analyzer.Rank(fresh)
	if r.topN >= 0 && len(ranked) > r.topN {
		ranked = ranked[:r.topN]
	}

	if err := r.notifier.SendStatus(Summary(result, len(fresh))); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}

	sent := make([]*priority.RankedJob, 0, len(ranked))
	for i := range ranked {
		if err := r.notifier.SendJob(ranked[i]); err != nil {
			log.WithError(err).WithField("job_id", ranked[i].Job.JobID).Warn("⚠️ Failed to send job")
			continue
		}
		sent = append(sent, &ranked[i])
	}

	//only notified jobs are remembered, the rest may surface next run
	notified := make([]*models.JobRecord, 0, len(sent))
	for _, rj := range sent {
		notified = append(notified, rj.Job)
	}
	if err := r.cache.MarkSeen(notified); err != nil {
		log.WithError(err).Warn("⚠️ Failed to update notification cache")
	}
	log.Printf("📨 Notified %d of %d new jobs", len(sent), len(fresh))
	return nil
}

// Summary is the one-line status sent before the job cards.
func Summary(result *runner.Result, fresh int) string {
	var sb strings.Builder
	if result.Cancelled {
		sb.WriteString("Scrape cancelled: ")
	} else {
		sb.WriteString("Scrape finished: ")
	}
	fmt.Fprintf(&sb, "%d jobs", len(result.Jobs))
	if result.Saved.Added+result.Saved.Updated > 0 {
		fmt.Fprintf(&sb, " (%d new, %d updated)", result.Saved.Added, result.Saved.Updated)
	}
	fmt.Fprintf(&sb, ", %d not notified yet", fresh)
	if n := len(result.DetailErrors); n > 0 {
		fmt.Fprintf(&sb, ", %d detail pages failed", n)
	}
	return sb.String()
}
