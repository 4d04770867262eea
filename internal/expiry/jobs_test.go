package expiry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ticketing/internal/bookings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocker struct {
	acquired bool
	err      error
	calls    atomic.Int32
	released atomic.Int32
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	l.calls.Add(1)
	if l.err != nil || !l.acquired {
		return nil, false, l.err
	}
	return func() { l.released.Add(1) }, true, nil
}

func testJobConfig() *JobConfig {
	return &JobConfig{
		PollInterval:  10 * time.Millisecond,
		MaxPendingAge: 2 * time.Minute,
		LockTTL:       5 * time.Millisecond,
	}
}

func TestRunOnceSweepsUnderLock(t *testing.T) {
	sweeper, repo, show, _ := newTestSweeper(t)
	stale := repo.AddBooking(bookings.Booking{ShowID: show.ID, Status: bookings.StatusPending, CreatedAt: sweepNow.Add(-time.Hour)}, 1)
	locker := &fakeLocker{acquired: true}

	NewJobProcessor(sweeper, locker, testJobConfig(), quietLogger()).RunOnce(context.Background())

	got, err := repo.GetBooking(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusFailed, got.Status)
	assert.EqualValues(t, 1, locker.released.Load())
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	sweeper, repo, show, _ := newTestSweeper(t)
	stale := repo.AddBooking(bookings.Booking{ShowID: show.ID, Status: bookings.StatusPending, CreatedAt: sweepNow.Add(-time.Hour)}, 1)

	NewJobProcessor(sweeper, &fakeLocker{acquired: false}, testJobConfig(), quietLogger()).RunOnce(context.Background())

	got, err := repo.GetBooking(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusPending, got.Status)
}

func TestRunOnceSweepsWhenLockUnavailable(t *testing.T) {
	sweeper, repo, show, _ := newTestSweeper(t)
	stale := repo.AddBooking(bookings.Booking{ShowID: show.ID, Status: bookings.StatusPending, CreatedAt: sweepNow.Add(-time.Hour)}, 1)

	NewJobProcessor(sweeper, &fakeLocker{err: errors.New("redis down")}, testJobConfig(), quietLogger()).RunOnce(context.Background())

	got, err := repo.GetBooking(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusFailed, got.Status)
}

func TestRunSweepsOnEveryTickUntilCancelled(t *testing.T) {
	sweeper, repo, show, _ := newTestSweeper(t)
	locker := &fakeLocker{acquired: true}
	jobs := NewJobProcessor(sweeper, locker, testJobConfig(), quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- jobs.Run(ctx) }()

	stale := repo.AddBooking(bookings.Booking{ShowID: show.ID, Status: bookings.StatusPending, CreatedAt: sweepNow.Add(-time.Hour)}, 2)
	assert.Eventually(t, func() bool {
		got, err := repo.GetBooking(context.Background(), stale.ID)
		return err == nil && got.Status == bookings.StatusFailed
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.GreaterOrEqual(t, locker.calls.Load(), int32(1))
}

func TestStopEndsRun(t *testing.T) {
	sweeper, _, _, _ := newTestSweeper(t)
	jobs := NewJobProcessor(sweeper, nil, testJobConfig(), quietLogger())

	done := make(chan error, 1)
	go func() { done <- jobs.Run(context.Background()) }()

	jobs.Stop()
	jobs.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Equal(t, false, jobs.GetJobStatus()["locking"])
}
