package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name  string
	runs  atomic.Int32
	block chan struct{}
	err   error
	panic bool
}

func (j *stubJob) Name() string        { return j.name }
func (j *stubJob) Description() string { return "stub " + j.name }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.panic {
		panic("boom")
	}
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

// everyTick is due again as soon as it has run.
type everyTick struct{}

func (everyTick) Next(t time.Time) time.Time { return t.Add(time.Millisecond) }
func (everyTick) String() string             { return "@tick" }

func newTestScheduler() *Scheduler {
	cfg := DefaultConfig()
	cfg.TickInterval = 5 * time.Millisecond
	return New(cfg)
}

func TestRegister_Validation(t *testing.T) {
	s := newTestScheduler()

	assert.ErrorIs(t, s.Register(nil, everyTick{}), ErrNilJob)
	assert.ErrorIs(t, s.Register(&stubJob{name: "a"}, nil), ErrNilSchedule)
	require.NoError(t, s.Register(&stubJob{name: "a"}, everyTick{}))
	assert.ErrorIs(t, s.Register(&stubJob{name: "a"}, everyTick{}), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.SetEnabled("missing", true), ErrJobNotFound)
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "sync"}
	require.NoError(t, s.Register(job, everyTick{}))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	assert.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "sync", infos[0].Name)
	assert.Equal(t, "@tick", infos[0].Schedule)
	assert.GreaterOrEqual(t, infos[0].RunCount, int64(2))
}

func TestScheduler_RunOnStart(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "sync"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	assert.ErrorIs(t, s.Start(context.Background(), "other"), ErrJobNotFound)
	require.NoError(t, s.Start(context.Background(), "sync"))
	defer s.Stop()

	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.Register(job, everyTick{}))
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return s.ListJobs()[0].SkipCount > 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), job.runs.Load())

	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobBusy)

	close(job.block)
	require.NoError(t, s.Stop())
}

func TestScheduler_DisabledJobDoesNotRun(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "sync"}
	require.NoError(t, s.Register(job, everyTick{}))
	require.NoError(t, s.SetEnabled("sync", false))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Zero(t, job.runs.Load())
}

func TestRunNow_RecordsResult(t *testing.T) {
	s := newTestScheduler()
	failing := &stubJob{name: "fail", err: errors.New("remote down")}
	require.NoError(t, s.Register(failing, NewIntervalSchedule(time.Hour)))

	var hooked JobResult
	s.OnJobComplete(func(r JobResult) { hooked = r })

	result, err := s.RunNow(context.Background(), "fail")

	assert.EqualError(t, err, "remote down")
	assert.False(t, result.Success)
	assert.True(t, result.Manual)
	assert.Equal(t, "fail", hooked.JobName)
	assert.Equal(t, int64(1), s.ListJobs()[0].FailCount)
	require.Len(t, s.History(0), 1)

	_, err = s.RunNow(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunNow_RecoversPanics(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(&stubJob{name: "bad", panic: true}, NewIntervalSchedule(time.Hour)))

	_, err := s.RunNow(context.Background(), "bad")

	assert.ErrorIs(t, err, ErrJobPanicked)
	assert.False(t, s.ListJobs()[0].Running)
}

func TestRunNow_AppliesJobTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JobTimeout = 10 * time.Millisecond
	s := New(cfg)
	require.NoError(t, s.Register(&stubJob{name: "hang", block: make(chan struct{})}, NewIntervalSchedule(time.Hour)))

	_, err := s.RunNow(context.Background(), "hang")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHistory_Limit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistorySize = 2
	s := New(cfg)
	require.NoError(t, s.Register(&stubJob{name: "a"}, NewIntervalSchedule(time.Hour)))

	for i := 0; i < 3; i++ {
		_, err := s.RunNow(context.Background(), "a")
		require.NoError(t, err)
	}

	assert.Len(t, s.History(0), 2)
	assert.Len(t, s.History(1), 1)
}

func TestIntervalSchedule(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	s := NewIntervalSchedule(5 * time.Minute)
	assert.Equal(t, at.Add(5*time.Minute), s.Next(at))
	assert.Equal(t, "@every 5m0s", s.String())

	assert.Equal(t, MinInterval, NewIntervalSchedule(0).Interval)
}
