package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking is one reservation attempt for one or more seats on one show
type Booking struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShowID         uuid.UUID `gorm:"type:uuid;index:idx_bookings_show_id;not null" json:"show_id"`
	SeatsRequested int       `gorm:"not null;check:seats_requested > 0" json:"seats_requested"`
	Status         Status    `gorm:"type:varchar(16);not null;check:status IN ('PENDING', 'CONFIRMED', 'FAILED');index:idx_bookings_status_created,priority:1" json:"status"`
	UserName       *string   `gorm:"type:varchar(255)" json:"user_name,omitempty"`
	CreatedAt      time.Time `gorm:"not null;index:idx_bookings_status_created,priority:2" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// SeatClaim is exclusive ownership of one seat on one show by one booking.
// The (show_id, seat_number) unique index is what prevents double booking.
type SeatClaim struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID  uuid.UUID `gorm:"type:uuid;index:idx_seat_claims_booking_id;not null" json:"booking_id"`
	ShowID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_seat_claims_show_seat,priority:1" json:"show_id"`
	SeatNumber int       `gorm:"not null;check:seat_number > 0;uniqueIndex:uq_seat_claims_show_seat,priority:2" json:"seat_number"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (SeatClaim) TableName() string {
	return "seat_claims"
}
