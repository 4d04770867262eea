package bookings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ticketing/internal/notifications"
	"ticketing/pkg/logger"

	"github.com/google/uuid"
)

// Service is the reservation engine plus the booking query side
type Service interface {
	// Service dependency injection
	SetPublisher(publisher notifications.Publisher)
	SetLogger(log *logger.Logger)

	// Reserve claims all requested seats for one new booking or none of them.
	// Seat conflicts come back as a FAILED Outcome, not as an error.
	Reserve(ctx context.Context, showID uuid.UUID, seats []int, userName *string) (*Outcome, error)

	GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDetails, error)
	GetShowAvailability(ctx context.Context, showID uuid.UUID) (*Availability, error)

	// Committed claim lookups for the shows package
	ReservedSeats(ctx context.Context, showID uuid.UUID) ([]int, error)
	ReservedCounts(ctx context.Context, showIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type service struct {
	repo      Repository
	publisher notifications.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewService(repo Repository) Service {
	return &service{
		repo:      repo,
		publisher: notifications.NopPublisher{},
		log:       logger.GetDefault().WithComponent("bookings"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) SetPublisher(publisher notifications.Publisher) {
	s.publisher = publisher
}

func (s *service) SetLogger(log *logger.Logger) {
	s.log = log.WithComponent("bookings")
}

func (s *service) Reserve(ctx context.Context, showID uuid.UUID, seats []int, userName *string) (*Outcome, error) {
	start := time.Now()

	requested := uniqueSeats(seats)
	if len(requested) == 0 {
		return nil, ErrNoSeatsRequested
	}

	var outcome *Outcome
	err := s.repo.WithTx(ctx, func(tx Tx) error {
		// Capacity is read under the show lock so the range check and the
		// claims below see the same value.
		show, err := tx.LockShow(showID)
		if err != nil {
			return err
		}

		if bad := outOfRange(requested, show.TotalSeats); len(bad) > 0 {
			return &InvalidSeatRangeError{Seats: bad, TotalSeats: show.TotalSeats}
		}

		now := s.now()
		booking := &Booking{
			ID:             uuid.New(),
			ShowID:         showID,
			SeatsRequested: len(requested),
			Status:         StatusPending,
			UserName:       userName,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.CreateBooking(booking); err != nil {
			return err
		}

		claimed, err := tx.ClaimSeats(booking, requested, now)
		if err != nil {
			return err
		}

		if len(claimed) == len(requested) {
			if err := tx.SetStatus(booking.ID, StatusConfirmed, now); err != nil {
				return err
			}
			outcome = &Outcome{
				Status:         StatusConfirmed,
				BookingID:      booking.ID,
				ShowID:         showID,
				SeatsConfirmed: claimed,
			}
			return nil
		}

		// Short claim: give back what we did get and keep the booking as an audit record.
		if _, err := tx.ReleaseSeats(booking.ID); err != nil {
			return err
		}
		if err := tx.SetStatus(booking.ID, StatusFailed, now); err != nil {
			return err
		}
		outcome = &Outcome{
			Status:      StatusFailed,
			BookingID:   booking.ID,
			ShowID:      showID,
			FailedSeats: difference(requested, claimed),
			Reason:      ReasonSeatsUnavailable,
		}
		return nil
	})
	if err != nil {
		var rangeErr *InvalidSeatRangeError
		if errors.Is(err, ErrShowNotFound) || errors.As(err, &rangeErr) {
			return nil, err
		}
		s.log.LogReservationError(ctx, showID.String(), err)
		return nil, fmt.Errorf("%w: %w", ErrReservationFailed, err)
	}

	s.announce(ctx, outcome)
	seatsForLog := outcome.SeatsConfirmed
	if !outcome.Confirmed() {
		seatsForLog = outcome.FailedSeats
	}
	s.log.LogReservation(ctx, outcome.BookingID.String(), showID.String(), outcome.Status.String(), seatsForLog, time.Since(start))

	return outcome, nil
}

// announce publishes the committed outcome; a publish failure never undoes a booking
func (s *service) announce(ctx context.Context, outcome *Outcome) {
	event := notifications.NewBookingEvent(notifications.EventBookingConfirmed, outcome.BookingID, outcome.ShowID, outcome.SeatsConfirmed, "", s.now())
	if !outcome.Confirmed() {
		event = notifications.NewBookingEvent(notifications.EventBookingFailed, outcome.BookingID, outcome.ShowID, outcome.FailedSeats, outcome.Reason, s.now())
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Logger.WarnContext(ctx, "Failed to publish booking event",
			"booking_id", outcome.BookingID.String(),
			"type", string(event.Type),
			"error", err.Error(),
		)
	}
}

// uniqueSeats drops duplicates and returns the seats ascending
func uniqueSeats(seats []int) []int {
	seen := make(map[int]struct{}, len(seats))
	unique := make([]int, 0, len(seats))
	for _, seat := range seats {
		if _, dup := seen[seat]; dup {
			continue
		}
		seen[seat] = struct{}{}
		unique = append(unique, seat)
	}
	sort.Ints(unique)
	return unique
}

func outOfRange(seats []int, total int) []int {
	var bad []int
	for _, seat := range seats {
		if seat < 1 || seat > total {
			bad = append(bad, seat)
		}
	}
	return bad
}

// difference returns requested seats missing from claimed; both are ascending
func difference(requested, claimed []int) []int {
	held := make(map[int]struct{}, len(claimed))
	for _, seat := range claimed {
		held[seat] = struct{}{}
	}
	missing := make([]int, 0, len(requested)-len(claimed))
	for _, seat := range requested {
		if _, ok := held[seat]; !ok {
			missing = append(missing, seat)
		}
	}
	return missing
}
