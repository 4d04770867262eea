package notifications

import (
	"context"

	"ticketing/pkg/logger"
)

// Publisher delivers booking events after the transaction that produced
// them has committed. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	PublishBatch(ctx context.Context, events []BookingEvent) error
	Close() error
}

// LogPublisher writes events to the structured log. It is used when Kafka is disabled.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.WithComponent("notifications")}
}

func (p *LogPublisher) Publish(ctx context.Context, event BookingEvent) error {
	p.log.InfoWithContext(ctx, "Booking Event", map[string]interface{}{
		"type":       string(event.Type),
		"booking_id": event.BookingID.String(),
		"show_id":    event.ShowID.String(),
		"seats":      event.Seats,
	})
	return nil
}

func (p *LogPublisher) PublishBatch(ctx context.Context, events []BookingEvent) error {
	for _, event := range events {
		_ = p.Publish(ctx, event)
	}
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) error        { return nil }
func (NopPublisher) PublishBatch(context.Context, []BookingEvent) error { return nil }
func (NopPublisher) Close() error                                       { return nil }
