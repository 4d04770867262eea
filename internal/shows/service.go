package shows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketing/internal/shared/constants"
	"ticketing/pkg/cache"

	"github.com/google/uuid"
)

type Service interface {
	// Service dependency injection
	SetSeatSource(source SeatSource)
	SetCacheService(cacheService cache.Service)

	CreateShow(ctx context.Context, req CreateShowRequest) (*Show, error)
	GetShow(ctx context.Context, id uuid.UUID) (*ShowDetail, error)
	ListShows(ctx context.Context) ([]ShowSummary, error)
}

// SeatSource reports committed seat claims. It is implemented by the bookings
// package and injected to avoid an import cycle.
type SeatSource interface {
	ReservedSeats(ctx context.Context, showID uuid.UUID) ([]int, error)
	ReservedCounts(ctx context.Context, showIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type service struct {
	repo         Repository
	seats        SeatSource
	cacheService cache.Service
	cacheTTL     time.Duration
}

func NewService(repo Repository) Service {
	return &service{
		repo:         repo,
		cacheService: cache.NewService(nil),
		cacheTTL:     constants.TTL_SHOW_DETAIL,
	}
}

func (s *service) SetSeatSource(source SeatSource) {
	s.seats = source
}

// SetCacheService injects the cache service dependency
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) CreateShow(ctx context.Context, req CreateShowRequest) (*Show, error) {
	if req.TotalSeats <= 0 {
		return nil, fmt.Errorf("total_seats must be positive")
	}

	show := &Show{
		ID:         uuid.New(),
		Name:       req.Name,
		StartTime:  req.StartTime.UTC(),
		TotalSeats: req.TotalSeats,
	}
	if err := s.repo.Create(ctx, show); err != nil {
		return nil, fmt.Errorf("failed to create show: %w", err)
	}
	return show, nil
}

func (s *service) GetShow(ctx context.Context, id uuid.UUID) (*ShowDetail, error) {
	show, err := s.getShowMetadata(ctx, id)
	if err != nil {
		return nil, err
	}

	reserved, err := s.seats.ReservedSeats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load reserved seats: %w", err)
	}

	return &ShowDetail{
		ID:             show.ID,
		Name:           show.Name,
		StartTime:      show.StartTime,
		TotalSeats:     show.TotalSeats,
		ReservedSeats:  reserved,
		AvailableSeats: AvailableSeats(show.TotalSeats, reserved),
	}, nil
}

func (s *service) ListShows(ctx context.Context) ([]ShowSummary, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shows: %w", err)
	}

	ids := make([]uuid.UUID, len(list))
	for i, show := range list {
		ids[i] = show.ID
	}

	counts, err := s.seats.ReservedCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count reserved seats: %w", err)
	}

	summaries := make([]ShowSummary, 0, len(list))
	for _, show := range list {
		summaries = append(summaries, summaryOf(show, counts[show.ID]))
	}
	return summaries, nil
}

// getShowMetadata reads the immutable show row through the cache
func (s *service) getShowMetadata(ctx context.Context, id uuid.UUID) (*Show, error) {
	var show Show
	err := s.cacheService.GetOrSet(ctx, constants.BuildShowDetailKey(id.String()), s.cacheTTL, func() (interface{}, error) {
		return s.repo.GetByID(ctx, id)
	}, &show)
	if err != nil {
		if errors.Is(err, ErrShowNotFound) {
			return nil, ErrShowNotFound
		}
		return nil, fmt.Errorf("failed to load show: %w", err)
	}
	return &show, nil
}
