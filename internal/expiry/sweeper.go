package expiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketing/internal/bookings"
	"ticketing/internal/notifications"
	"ticketing/pkg/logger"

	"github.com/google/uuid"
)

// ErrSweepFailed wraps a sweep that rolled back. It is logged and retried on
// the next tick, never returned to request callers.
var ErrSweepFailed = errors.New("sweep failed")

// ReasonExpired is attached to booking.expired events
const ReasonExpired = "Booking was not completed in time"

// Sweeper fails PENDING bookings that outlived the allowed age and frees their seats
type Sweeper struct {
	repo      bookings.Repository
	publisher notifications.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewSweeper(repo bookings.Repository, publisher notifications.Publisher, log *logger.Logger) *Sweeper {
	if publisher == nil {
		publisher = notifications.NopPublisher{}
	}
	return &Sweeper{
		repo:      repo,
		publisher: publisher,
		log:       log.WithComponent("expiry"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Sweep expires every PENDING booking older than maxAge in one transaction
// and returns how many it expired
func (s *Sweeper) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	start := time.Now()
	now := s.now()
	cutoff := now.Add(-maxAge)

	var expired []bookings.Booking
	err := s.repo.WithTx(ctx, func(tx bookings.Tx) error {
		stale, err := tx.ExpirePending(cutoff, now)
		if err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(stale))
		for i := range stale {
			ids[i] = stale[i].ID
		}
		if _, err := tx.ReleaseSeats(ids...); err != nil {
			return err
		}

		expired = stale
		return nil
	})
	if err != nil {
		s.log.LogSweepFailure(ctx, err)
		return 0, fmt.Errorf("%w: %w", ErrSweepFailed, err)
	}

	if len(expired) == 0 {
		return 0, nil
	}

	s.log.LogSweep(ctx, len(expired), maxAge, time.Since(start))
	s.announce(ctx, expired, now)
	return len(expired), nil
}

func (s *Sweeper) announce(ctx context.Context, expired []bookings.Booking, at time.Time) {
	events := make([]notifications.BookingEvent, 0, len(expired))
	for _, b := range expired {
		events = append(events, notifications.NewBookingEvent(notifications.EventBookingExpired, b.ID, b.ShowID, nil, ReasonExpired, at))
	}

	if err := s.publisher.PublishBatch(ctx, events); err != nil {
		s.log.Logger.WarnContext(ctx, "Failed to publish expiry events",
			"count", len(events),
			"error", err.Error(),
		)
	}
}
