package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingFailed    EventType = "booking.failed"
	EventBookingExpired   EventType = "booking.expired"
)

// BookingEvent announces a booking reaching a terminal status
type BookingEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	BookingID  uuid.UUID `json:"booking_id"`
	ShowID     uuid.UUID `json:"show_id"`
	Seats      []int     `json:"seats,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType EventType, bookingID, showID uuid.UUID, seats []int, reason string, at time.Time) BookingEvent {
	return BookingEvent{
		ID:         uuid.New(),
		Type:       eventType,
		BookingID:  bookingID,
		ShowID:     showID,
		Seats:      seats,
		Reason:     reason,
		OccurredAt: at.UTC(),
	}
}

// PartitionKey keeps every event of one show on one partition, in order
func (e BookingEvent) PartitionKey() string {
	return e.ShowID.String()
}

func (e BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func FromJSON(data []byte) (BookingEvent, error) {
	var e BookingEvent
	err := json.Unmarshal(data, &e)
	return e, err
}
