package bookings

import (
	"context"
	"fmt"

	"ticketing/internal/shows"

	"github.com/google/uuid"
)

func (s *service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDetails, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	show, err := s.repo.GetShow(ctx, booking.ShowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load show for booking: %w", err)
	}

	seats, err := s.repo.SeatsForBooking(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking seats: %w", err)
	}

	return &BookingDetails{
		ID:             booking.ID,
		ShowID:         booking.ShowID,
		ShowName:       show.Name,
		StartTime:      show.StartTime,
		Status:         booking.Status,
		SeatsRequested: booking.SeatsRequested,
		UserName:       booking.UserName,
		Seats:          seats,
		CreatedAt:      booking.CreatedAt,
		UpdatedAt:      booking.UpdatedAt,
	}, nil
}

func (s *service) GetShowAvailability(ctx context.Context, showID uuid.UUID) (*Availability, error) {
	show, err := s.repo.GetShow(ctx, showID)
	if err != nil {
		return nil, err
	}

	reserved, err := s.repo.ClaimedSeats(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reserved seats: %w", err)
	}

	return &Availability{
		ShowID:         show.ID,
		TotalSeats:     show.TotalSeats,
		ReservedSeats:  reserved,
		AvailableSeats: shows.AvailableSeats(show.TotalSeats, reserved),
	}, nil
}

func (s *service) ReservedSeats(ctx context.Context, showID uuid.UUID) ([]int, error) {
	return s.repo.ClaimedSeats(ctx, showID)
}

func (s *service) ReservedCounts(ctx context.Context, showIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return s.repo.ClaimCounts(ctx, showIDs)
}
