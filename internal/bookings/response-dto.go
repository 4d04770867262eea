package bookings

import (
	"time"

	"github.com/google/uuid"
)

// ReasonSeatsUnavailable is reported on every conflict outcome
const ReasonSeatsUnavailable = "Requested seats are no longer available"

// Outcome is the terminal result of one reservation attempt. A conflict is
// not an error: it is an Outcome with Status FAILED and the seats that were
// already taken.
type Outcome struct {
	Status         Status    `json:"status"`
	BookingID      uuid.UUID `json:"booking_id"`
	ShowID         uuid.UUID `json:"show_id"`
	SeatsConfirmed []int     `json:"seats_confirmed,omitempty"`
	FailedSeats    []int     `json:"failed_seats,omitempty"`
	Reason         string    `json:"reason,omitempty"`
}

func (o *Outcome) Confirmed() bool {
	return o.Status == StatusConfirmed
}

// BookingDetails is a booking with its show and resolved seat numbers
type BookingDetails struct {
	ID             uuid.UUID `json:"id"`
	ShowID         uuid.UUID `json:"show_id"`
	ShowName       string    `json:"show_name"`
	StartTime      time.Time `json:"start_time"`
	Status         Status    `json:"status"`
	SeatsRequested int       `json:"seats_requested"`
	UserName       *string   `json:"user_name,omitempty"`
	Seats          []int     `json:"seats"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Availability is a show's seat map from committed claims
type Availability struct {
	ShowID         uuid.UUID `json:"show_id"`
	TotalSeats     int       `json:"total_seats"`
	ReservedSeats  []int     `json:"reserved_seats"`
	AvailableSeats []int     `json:"available_seats"`
}
