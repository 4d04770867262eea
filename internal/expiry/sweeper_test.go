package expiry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"ticketing/internal/bookings"
	"ticketing/internal/notifications"
	"ticketing/internal/shows"
	"ticketing/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sweepNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]notifications.BookingEvent
	err     error
}

func (r *batchRecorder) Publish(ctx context.Context, event notifications.BookingEvent) error {
	return r.PublishBatch(ctx, []notifications.BookingEvent{event})
}

func (r *batchRecorder) PublishBatch(_ context.Context, events []notifications.BookingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, events)
	return r.err
}

func (r *batchRecorder) Close() error { return nil }

func quietLogger() *logger.Logger {
	return logger.NewWithHandler(slog.NewTextHandler(io.Discard, nil))
}

func newTestSweeper(t *testing.T) (*Sweeper, *bookings.MemoryRepository, shows.Show, *batchRecorder) {
	t.Helper()
	repo := bookings.NewMemoryRepository()
	show := repo.AddShow(shows.Show{Name: "City Express", StartTime: sweepNow.Add(time.Hour), TotalSeats: 40})

	recorder := &batchRecorder{}
	sweeper := NewSweeper(repo, recorder, quietLogger())
	sweeper.now = func() time.Time { return sweepNow }
	return sweeper, repo, show, recorder
}

func TestSweepExpiresOldPendingAndReleasesSeats(t *testing.T) {
	sweeper, repo, show, recorder := newTestSweeper(t)
	ctx := context.Background()

	stale := repo.AddBooking(bookings.Booking{ShowID: show.ID, Status: bookings.StatusPending, CreatedAt: sweepNow.Add(-5 * time.Minute)}, 1, 2)
	fresh := repo.AddBooking(bookings.Booking{ShowID: show.ID, Status: bookings.StatusPending, CreatedAt: sweepNow.Add(-30 * time.Second)}, 3)
	held := repo.AddBooking(bookings.Booking{ShowID: show.ID, Status: bookings.StatusConfirmed, CreatedAt: sweepNow.Add(-time.Hour)}, 4)

	expired, err := sweeper.Sweep(ctx, 2*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got, err := repo.GetBooking(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusFailed, got.Status)
	assert.Equal(t, sweepNow, got.UpdatedAt)

	got, err = repo.GetBooking(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusPending, got.Status)

	got, err = repo.GetBooking(ctx, held.ID)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusConfirmed, got.Status)

	seats, err := repo.ClaimedSeats(ctx, show.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, seats)

	require.Len(t, recorder.batches, 1)
	require.Len(t, recorder.batches[0], 1)
	event := recorder.batches[0][0]
	assert.Equal(t, notifications.EventBookingExpired, event.Type)
	assert.Equal(t, stale.ID, event.BookingID)
	assert.Equal(t, ReasonExpired, event.Reason)
}

func TestSweepFreedSeatsCanBeReservedAgain(t *testing.T) {
	sweeper, repo, show, _ := newTestSweeper(t)
	ctx := context.Background()
	repo.AddBooking(bookings.Booking{ShowID: show.ID, Status: bookings.StatusPending, CreatedAt: sweepNow.Add(-10 * time.Minute)}, 8)

	svc := bookings.NewService(repo)
	svc.SetLogger(quietLogger())

	blocked, err := svc.Reserve(ctx, show.ID, []int{8}, nil)
	require.NoError(t, err)
	assert.False(t, blocked.Confirmed())

	_, err = sweeper.Sweep(ctx, 2*time.Minute)
	require.NoError(t, err)

	retry, err := svc.Reserve(ctx, show.ID, []int{8}, nil)
	require.NoError(t, err)
	assert.True(t, retry.Confirmed())
}

func TestSweepIsIdempotent(t *testing.T) {
	sweeper, repo, show, recorder := newTestSweeper(t)
	repo.AddBooking(bookings.Booking{ShowID: show.ID, Status: bookings.StatusPending, CreatedAt: sweepNow.Add(-3 * time.Minute)}, 5)

	first, err := sweeper.Sweep(context.Background(), 2*time.Minute)
	require.NoError(t, err)
	second, err := sweeper.Sweep(context.Background(), 2*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)
	assert.Len(t, recorder.batches, 1)
}

func TestSweepFailureRollsBack(t *testing.T) {
	sweeper, repo, show, recorder := newTestSweeper(t)
	stale := repo.AddBooking(bookings.Booking{ShowID: show.ID, Status: bookings.StatusPending, CreatedAt: sweepNow.Add(-3 * time.Minute)}, 6)
	repo.FailOn("ReleaseSeats", errors.New("lock timeout"))

	expired, err := sweeper.Sweep(context.Background(), 2*time.Minute)

	assert.Zero(t, expired)
	assert.ErrorIs(t, err, ErrSweepFailed)

	got, getErr := repo.GetBooking(context.Background(), stale.ID)
	require.NoError(t, getErr)
	assert.Equal(t, bookings.StatusPending, got.Status)
	assert.Len(t, repo.Claims(), 1)
	assert.Empty(t, recorder.batches)

	// The next tick converges.
	expired, err = sweeper.Sweep(context.Background(), 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Empty(t, repo.Claims())
}

func TestSweepPublishFailureKeepsResult(t *testing.T) {
	sweeper, repo, show, recorder := newTestSweeper(t)
	recorder.err = errors.New("broker unavailable")
	repo.AddBooking(bookings.Booking{ShowID: show.ID, Status: bookings.StatusPending, CreatedAt: sweepNow.Add(-3 * time.Minute)}, 6)

	expired, err := sweeper.Sweep(context.Background(), 2*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Empty(t, repo.Claims())
}
