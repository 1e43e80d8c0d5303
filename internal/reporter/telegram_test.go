package reporter

import (
	"errors"
	"testing"

	"go-lancers-scout/internal/database"
	"go-lancers-scout/internal/dedup"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/priority"
	"go-lancers-scout/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	statuses []string
	jobs     []string
	errs     []error
	failJob  string
}

func (f *fakeNotifier) SendJob(rj priority.RankedJob) error {
	if rj.Job.JobID == f.failJob {
		return errors.New("send failed")
	}
	f.jobs = append(f.jobs, rj.Job.JobID)
	return nil
}

func (f *fakeNotifier) SendStatus(message string) error {
	f.statuses = append(f.statuses, message)
	return nil
}

func (f *fakeNotifier) SendError(err error) error {
	f.errs = append(f.errs, err)
	return nil
}

func jobWithSkills(id string, skills ...string) *models.JobRecord {
	job := models.NewJobRecord(models.ServiceLancers, id, "https://www.lancers.jp/work/detail/"+id)
	job.Title = "job " + id
	job.RequiredSkills = skills
	return job
}

func newReporter(t *testing.T, n Notifier, topN int) *RunReporter {
	profile := models.DefaultProfile()
	profile.Skills = []string{"Go", "PostgreSQL", "Playwright"}
	return NewRunReporter(n, dedup.NewJobCache(t.TempDir()), priority.NewAnalyzer(profile), topN)
}

func TestReport_SendsTopNewJobsOnce(t *testing.T) {
	n := &fakeNotifier{}
	r := newReporter(t, n, 2)
	result := &runner.Result{
		Jobs: []*models.JobRecord{
			jobWithSkills("1", "PHP"),
			jobWithSkills("2", "Go", "PostgreSQL", "Playwright"),
			jobWithSkills("3", "Go"),
		},
		Saved: database.UpsertResult{Added: 3},
	}

	require.NoError(t, r.Report(result, nil))
	assert.Equal(t, []string{"2", "3"}, n.jobs)
	require.Len(t, n.statuses, 1)
	assert.Equal(t, "Scrape finished: 3 jobs (3 new, 0 updated), 3 not notified yet", n.statuses[0])

	n.jobs = nil
	require.NoError(t, r.Report(result, nil))
	assert.Equal(t, []string{"1"}, n.jobs)
	assert.Contains(t, n.statuses[1], "1 not notified yet")
}

func TestReport_FailedSendIsRetriedNextRun(t *testing.T) {
	n := &fakeNotifier{failJob: "2"}
	r := newReporter(t, n, 5)
	result := &runner.Result{Jobs: []*models.JobRecord{jobWithSkills("1"), jobWithSkills("2")}}

	require.NoError(t, r.Report(result, nil))
	assert.Equal(t, []string{"1"}, n.jobs)

	n.failJob = ""
	n.jobs = nil
	require.NoError(t, r.Report(result, nil))
	assert.Equal(t, []string{"2"}, n.jobs)
}

func TestReport_RunError(t *testing.T) {
	tests := []struct {
		name         string
		result       *runner.Result
		wantStatuses int
		wantJobs     []string
	}{
		{name: "no result", result: nil},
		{name: "empty result", result: &runner.Result{}},
		{
			name: "partial result",
			result: &runner.Result{
				Jobs:      []*models.JobRecord{jobWithSkills("1", "PHP"), jobWithSkills("2", "Go")},
				Cancelled: true,
			},
			wantStatuses: 1,
			wantJobs:     []string{"2", "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &fakeNotifier{}
			r := newReporter(t, n, 5)

			require.NoError(t, r.Report(tt.result, errors.New("browser crashed")))
			require.Len(t, n.errs, 1)
			assert.EqualError(t, n.errs[0], "browser crashed")
			assert.Len(t, n.statuses, tt.wantStatuses)
			assert.Equal(t, tt.wantJobs, n.jobs)
		})
	}
}

func TestReport_RunErrorMarksSentJobsSeen(t *testing.T) {
	n := &fakeNotifier{}
	r := newReporter(t, n, 5)
	result := &runner.Result{Jobs: []*models.JobRecord{jobWithSkills("1"), jobWithSkills("2")}}

	require.NoError(t, r.Report(result, errors.New("page 3 timed out")))
	assert.ElementsMatch(t, []string{"1", "2"}, n.jobs)

	n.jobs = nil
	require.NoError(t, r.Report(result, nil))
	assert.Empty(t, n.jobs)
	assert.Contains(t, n.statuses[1], "0 not notified yet")
}

func TestReport_NothingToReport(t *testing.T) {
	n := &fakeNotifier{}
	r := newReporter(t, n, 5)

	require.NoError(t, r.Report(nil, nil))
	assert.Empty(t, n.statuses)
	assert.Empty(t, n.errs)
}

func TestSummary(t *testing.T) {
	result := &runner.Result{
		Jobs:         []*models.JobRecord{jobWithSkills("1")},
		Cancelled:    true,
		DetailErrors: []runner.ItemResult{{ID: "1"}},
	}
	assert.Equal(t, "Scrape cancelled: 1 jobs, 0 not notified yet, 1 detail pages failed", Summary(result, 0))
}
