package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketing/internal/shows"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the seat ledger. Every mutation goes through WithTx; the
// read methods each observe the latest committed state.
type Repository interface {
	// WithTx runs fn in one transaction. A non-nil error from fn rolls back
	// everything fn did.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetShow(ctx context.Context, id uuid.UUID) (*shows.Show, error)
	SeatsForBooking(ctx context.Context, bookingID uuid.UUID) ([]int, error)
	ClaimedSeats(ctx context.Context, showID uuid.UUID) ([]int, error)
	ClaimCounts(ctx context.Context, showIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// Tx is the set of ledger operations available inside a transaction
type Tx interface {
	// LockShow reads the show and holds it exclusively until the transaction ends
	LockShow(showID uuid.UUID) (*shows.Show, error)

	CreateBooking(booking *Booking) error

	// ClaimSeats inserts one claim per seat, skipping seats another booking
	// already holds, and returns the seats this booking now owns, ascending.
	ClaimSeats(booking *Booking, seats []int, now time.Time) ([]int, error)

	// ReleaseSeats deletes every claim owned by the given bookings
	ReleaseSeats(bookingIDs ...uuid.UUID) (int, error)

	// SetStatus moves a PENDING booking to a terminal status
	SetStatus(bookingID uuid.UUID, to Status, now time.Time) error

	// ExpirePending flips PENDING bookings created before cutoff to FAILED
	// and returns them. Their claims are left for ReleaseSeats.
	ExpirePending(cutoff, now time.Time) ([]Booking, error)
}

type repository struct {
	db               *gorm.DB
	statementTimeout time.Duration
}

// NewRepository returns the Postgres ledger. A positive statementTimeout is
// applied to every transaction so a stuck reservation aborts cleanly.
func NewRepository(db *gorm.DB, statementTimeout time.Duration) Repository {
	return &repository{db: db, statementTimeout: statementTimeout}
}

func (r *repository) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.statementTimeout > 0 {
			timeout := fmt.Sprintf("%dms", r.statementTimeout.Milliseconds())
			if err := tx.Exec("SELECT set_config('statement_timeout', ?, true)", timeout).Error; err != nil {
				return fmt.Errorf("failed to set statement timeout: %w", err)
			}
		}
		return fn(&pgTx{db: tx})
	})
}

func (r *repository) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetShow(ctx context.Context, id uuid.UUID) (*shows.Show, error) {
	var show shows.Show
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &show, nil
}

func (r *repository) SeatsForBooking(ctx context.Context, bookingID uuid.UUID) ([]int, error) {
	seats := []int{}
	err := r.db.WithContext(ctx).
		Model(&SeatClaim{}).
		Where("booking_id = ?", bookingID).
		Order("seat_number ASC").
		Pluck("seat_number", &seats).Error
	return seats, err
}

func (r *repository) ClaimedSeats(ctx context.Context, showID uuid.UUID) ([]int, error) {
	seats := []int{}
	err := r.db.WithContext(ctx).
		Model(&SeatClaim{}).
		Where("show_id = ?", showID).
		Order("seat_number ASC").
		Pluck("seat_number", &seats).Error
	return seats, err
}

func (r *repository) ClaimCounts(ctx context.Context, showIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(showIDs))
	if len(showIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ShowID   uuid.UUID
		Reserved int
	}
	err := r.db.WithContext(ctx).
		Model(&SeatClaim{}).
		Select("show_id, COUNT(*) AS reserved").
		Where("show_id IN ?", showIDs).
		Group("show_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.ShowID] = row.Reserved
	}
	return counts, nil
}

// pgTx implements Tx on a gorm transaction
type pgTx struct {
	db *gorm.DB
}

func (t *pgTx) LockShow(showID uuid.UUID) (*shows.Show, error) {
	var show shows.Show
	err := t.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", showID).
		First(&show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShowNotFound
		}
		return nil, fmt.Errorf("failed to lock show: %w", err)
	}
	return &show, nil
}

func (t *pgTx) CreateBooking(booking *Booking) error {
	if err := t.db.Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (t *pgTx) ClaimSeats(booking *Booking, seats []int, now time.Time) ([]int, error) {
	if len(seats) == 0 {
		return []int{}, nil
	}

	claims := make([]SeatClaim, len(seats))
	for i, seat := range seats {
		claims[i] = SeatClaim{
			ID:         uuid.New(),
			BookingID:  booking.ID,
			ShowID:     booking.ShowID,
			SeatNumber: seat,
			CreatedAt:  now,
		}
	}

	err := t.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "show_id"}, {Name: "seat_number"}},
			DoNothing: true,
		}).
		Create(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("failed to insert seat claims: %w", err)
	}

	// Skipped rows are silent, so read back what this booking actually holds.
	owned := []int{}
	err = t.db.
		Model(&SeatClaim{}).
		Where("booking_id = ?", booking.ID).
		Order("seat_number ASC").
		Pluck("seat_number", &owned).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read back seat claims: %w", err)
	}
	return owned, nil
}

func (t *pgTx) ReleaseSeats(bookingIDs ...uuid.UUID) (int, error) {
	if len(bookingIDs) == 0 {
		return 0, nil
	}
	res := t.db.Where("booking_id IN ?", bookingIDs).Delete(&SeatClaim{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to release seat claims: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (t *pgTx) SetStatus(bookingID uuid.UUID, to Status, now time.Time) error {
	if !CanTransition(StatusPending, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, StatusPending, to)
	}

	res := t.db.Model(&Booking{}).
		Where("id = ? AND status = ?", bookingID, StatusPending).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("%w: booking %s is not pending", ErrInvalidTransition, bookingID)
	}
	return nil
}

func (t *pgTx) ExpirePending(cutoff, now time.Time) ([]Booking, error) {
	var stale []Booking
	// SKIP LOCKED lets a concurrent sweep on another instance take disjoint rows.
	err := t.db.
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND created_at < ?", StatusPending, cutoff).
		Order("created_at ASC").
		Find(&stale).Error
	if err != nil {
		return nil, fmt.Errorf("failed to select stale bookings: %w", err)
	}
	if len(stale) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(stale))
	for i := range stale {
		ids[i] = stale[i].ID
	}

	err = t.db.Model(&Booking{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":     StatusFailed,
			"updated_at": now,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to expire bookings: %w", err)
	}

	for i := range stale {
		stale[i].Status = StatusFailed
		stale[i].UpdatedAt = now
	}
	return stale, nil
}
