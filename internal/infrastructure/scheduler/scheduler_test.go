package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testJob struct {
	name  string
	err   error
	runs  atomic.Int32
	block chan struct{}
}

func (j *testJob) Name() string        { return j.name }
func (j *testJob) Description() string { return "test job " + j.name }

func (j *testJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

func every(t *testing.T, d time.Duration) Schedule {
	t.Helper()
	s, err := NewIntervalSchedule(d)
	require.NoError(t, err)
	return s
}

func TestIntervalSchedule(t *testing.T) {
	_, err := NewIntervalSchedule(0)
	assert.Error(t, err)

	s, err := NewIntervalSchedule(time.Minute)
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(time.Minute), s.Next(base))
	assert.Equal(t, "@every 1m0s", s.String())
}

func TestRegister(t *testing.T) {
	s := New(Config{})

	assert.ErrorIs(t, s.Register(nil, every(t, time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&testJob{name: "a"}, nil), ErrNilSchedule)

	require.NoError(t, s.Register(&testJob{name: "a"}, every(t, time.Minute)))
	assert.ErrorIs(t, s.Register(&testJob{name: "a"}, every(t, time.Minute)), ErrJobAlreadyExists)

	require.NoError(t, s.Register(&testJob{name: "b"}, every(t, time.Hour)))
	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, "@every 1h0m0s", jobs[1].Schedule)

	require.NoError(t, s.Unregister("a"))
	assert.ErrorIs(t, s.Unregister("a"), ErrJobNotFound)
	assert.Len(t, s.ListJobs(), 1)
}

func TestRunNow(t *testing.T) {
	s := New(Config{})
	failing := &testJob{name: "failing", err: errors.New("boom")}
	require.NoError(t, s.Register(failing, every(t, time.Hour)))

	res, err := s.RunNow(context.Background(), "failing")
	require.Error(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.True(t, res.Manual)
	assert.Equal(t, "failing", res.JobName)

	info := s.ListJobs()[0]
	assert.EqualValues(t, 1, info.RunCount)
	assert.EqualValues(t, 1, info.FailCount)
	assert.Equal(t, failing.err, info.LastResult.Error)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestStart_RunsDueJobs(t *testing.T) {
	s := New(Config{TickInterval: 5 * time.Millisecond})
	job := &testJob{name: "tick"}
	require.NoError(t, s.Register(job, every(t, 10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.Eventually(t, func() bool { return job.runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestStart_NoOverlappingRuns(t *testing.T) {
	s := New(Config{TickInterval: time.Millisecond})
	job := &testJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.Register(job, every(t, time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, 2*time.Second, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 1, job.runs.Load())

	close(job.block)
	require.NoError(t, s.Stop())
}

func TestStop_CancelsRunningJobs(t *testing.T) {
	s := New(Config{TickInterval: time.Millisecond})
	job := &testJob{name: "stuck", block: make(chan struct{})}
	require.NoError(t, s.Register(job, every(t, time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, 2*time.Second, time.Millisecond)

	require.NoError(t, s.Stop())

	info := s.ListJobs()[0]
	require.NotNil(t, info.LastResult)
	assert.ErrorIs(t, info.LastResult.Error, context.Canceled)
}
