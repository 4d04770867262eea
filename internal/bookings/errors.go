package bookings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ticketing/internal/shows"
)

var (
	// ErrShowNotFound is returned when the referenced show does not exist
	ErrShowNotFound = shows.ErrShowNotFound

	ErrBookingNotFound = errors.New("booking not found")

	ErrNoSeatsRequested = errors.New("at least one seat must be requested")

	// ErrReservationFailed wraps any unexpected fault during a reservation.
	// The attempt was rolled back and may be retried.
	ErrReservationFailed = errors.New("reservation failed")

	// ErrInvalidTransition is returned when a status change would leave a terminal state
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// InvalidSeatRangeError lists requested seats outside 1..total_seats
type InvalidSeatRangeError struct {
	Seats      []int
	TotalSeats int
}

func (e *InvalidSeatRangeError) Error() string {
	parts := make([]string, len(e.Seats))
	for i, seat := range e.Seats {
		parts[i] = strconv.Itoa(seat)
	}
	return fmt.Sprintf("seats out of range 1..%d: %s", e.TotalSeats, strings.Join(parts, ", "))
}
