package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loadsynth/pkg/logger"
)

type testJob struct {
	name     string
	schedule string
	failures int32 // fail this many times before succeeding
	calls    atomic.Int32
}

func (j *testJob) Name() string     { return j.name }
func (j *testJob) Schedule() string { return j.schedule }

func (j *testJob) Run(context.Context) error {
	if j.calls.Add(1) <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func newScheduler() *Scheduler {
	return New(logger.Nop(), Options{MaxRetries: 2, RetryDelay: time.Millisecond})
}

func TestAddJob(t *testing.T) {
	s := newScheduler()

	require.NoError(t, s.AddJob(&testJob{name: "weekly", schedule: "0 3 * * 1"}))
	require.NoError(t, s.AddJob(&testJob{name: "seconds", schedule: "0 */5 * * * *"}))
	require.NoError(t, s.AddJob(&testJob{name: "descriptor", schedule: "@daily"}))

	assert.Error(t, s.AddJob(&testJob{name: "weekly", schedule: "@hourly"}), "duplicate")
	assert.Error(t, s.AddJob(&testJob{name: "bad", schedule: "every tuesday"}))

	assert.Equal(t, []string{"descriptor", "seconds", "weekly"}, s.GetAllJobs())
}

func TestRunJob_Retry(t *testing.T) {
	s := newScheduler()
	job := &testJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
}

func TestRunJob_Exhausted(t *testing.T) {
	s := newScheduler()
	require.NoError(t, s.AddJob(&testJob{name: "broken", schedule: "@daily", failures: 100}))

	result, err := s.RunJob(context.Background(), "broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "transient", result.Error)

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	require.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJob_Cancelled(t *testing.T) {
	s := New(logger.Nop(), Options{MaxRetries: 5, RetryDelay: time.Hour})
	job := &testJob{name: "broken", schedule: "@daily", failures: 100}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.RunJob(ctx, "broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestRemoveJob(t *testing.T) {
	s := newScheduler()
	require.NoError(t, s.AddJob(&testJob{name: "weekly", schedule: "0 3 * * 1"}))

	next, err := s.NextRun("weekly")
	require.NoError(t, err)
	_ = next

	require.NoError(t, s.RemoveJob("weekly"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("weekly"))

	_, err = s.RunJob(context.Background(), "weekly")
	assert.Error(t, err)
	_, err = s.NextRun("weekly")
	assert.Error(t, err)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+5; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(3))
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 0.01)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
}
