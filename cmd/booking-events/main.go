// Command booking-events tails the booking event topic and writes each event
// to the structured log.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ticketing/internal/notifications"
	"ticketing/internal/shared/config"
	"ticketing/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	appLogger := logger.GetDefault().WithComponent("booking-events")

	if err := godotenv.Load(); err != nil {
		appLogger.Info("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	if !cfg.Kafka.Enabled {
		appLogger.Error("Kafka is disabled; set KAFKA_ENABLED=true to tail booking events")
		os.Exit(1)
	}

	consumerConfig := notifications.DefaultConsumerConfig(cfg.Kafka)
	if group := os.Getenv("KAFKA_CONSUMER_GROUP"); group != "" {
		consumerConfig.GroupID = group
	}

	consumer, err := notifications.NewConsumer(consumerConfig, func(ctx context.Context, event notifications.BookingEvent) error {
		appLogger.InfoWithContext(ctx, "Booking Event Received", map[string]interface{}{
			"event_id":    event.ID.String(),
			"type":        string(event.Type),
			"booking_id":  event.BookingID.String(),
			"show_id":     event.ShowID.String(),
			"seats":       event.Seats,
			"reason":      event.Reason,
			"occurred_at": event.OccurredAt,
		})
		return nil
	}, appLogger)
	if err != nil {
		appLogger.Error("Failed to start consumer", slog.Any("error", err))
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Tailing booking events",
		slog.Any("brokers", consumerConfig.Brokers),
		slog.String("topic", consumerConfig.Topic),
		slog.String("group", consumerConfig.GroupID),
	)
	if err := consumer.Run(ctx); err != nil {
		appLogger.Error("Consumer stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}
