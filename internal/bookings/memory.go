package bookings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"ticketing/internal/shows"

	"github.com/google/uuid"
)

// ErrUniqueViolation is returned at commit when a staged claim collides with a committed one
var ErrUniqueViolation = errors.New("duplicate seat claim")

// ErrSerialization is returned at commit when a staged status change lost a race
var ErrSerialization = errors.New("concurrent update to booking")

type claimKey struct {
	showID uuid.UUID
	seat   int
}

// MemoryRepository is an in-process ledger with the same transactional
// contract as the Postgres one. Writes are staged per transaction and applied
// atomically on commit; LockShow holds a per-show mutex until the
// transaction ends.
type MemoryRepository struct {
	mu        sync.RWMutex
	shows     map[uuid.UUID]shows.Show
	bookings  map[uuid.UUID]Booking
	claims    map[claimKey]SeatClaim
	showLocks map[uuid.UUID]*sync.Mutex
	faults    map[string]error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		shows:     make(map[uuid.UUID]shows.Show),
		bookings:  make(map[uuid.UUID]Booking),
		claims:    make(map[claimKey]SeatClaim),
		showLocks: make(map[uuid.UUID]*sync.Mutex),
		faults:    make(map[string]error),
	}
}

// AddShow stores a show, assigning an ID when it has none
func (m *MemoryRepository) AddShow(show shows.Show) shows.Show {
	m.mu.Lock()
	defer m.mu.Unlock()

	if show.ID == uuid.Nil {
		show.ID = uuid.New()
	}
	if show.CreatedAt.IsZero() {
		show.CreatedAt = time.Now().UTC()
	}
	m.shows[show.ID] = show
	return show
}

// AddBooking stores a committed booking together with claims on the given seats
func (m *MemoryRepository) AddBooking(booking Booking, seats ...int) Booking {
	m.mu.Lock()
	defer m.mu.Unlock()

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.SeatsRequested == 0 {
		booking.SeatsRequested = len(seats)
	}
	m.bookings[booking.ID] = booking
	for _, seat := range seats {
		m.claims[claimKey{showID: booking.ShowID, seat: seat}] = SeatClaim{
			ID:         uuid.New(),
			BookingID:  booking.ID,
			ShowID:     booking.ShowID,
			SeatNumber: seat,
			CreatedAt:  booking.CreatedAt,
		}
	}
	return booking
}

// FailOn makes the next call to the named Tx method return err
func (m *MemoryRepository) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[op] = err
}

// Bookings returns every committed booking, oldest first
func (m *MemoryRepository) Bookings() []Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Claims returns every committed seat claim
func (m *MemoryRepository) Claims() []SeatClaim {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SeatClaim, 0, len(m.claims))
	for _, c := range m.claims {
		out = append(out, c)
	}
	return out
}

func (m *MemoryRepository) fault(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err, ok := m.faults[op]
	if !ok {
		return nil
	}
	delete(m.faults, op)
	return err
}

func (m *MemoryRepository) showLock(id uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.showLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.showLocks[id] = lock
	}
	return lock
}

func (m *MemoryRepository) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		repo:     m,
		locked:   make(map[uuid.UUID]*sync.Mutex),
		inserted: make(map[uuid.UUID]*Booking),
		updated:  make(map[uuid.UUID]stagedUpdate),
		added:    make(map[claimKey]SeatClaim),
		removed:  make(map[claimKey]uuid.UUID),
	}
	defer tx.unlock()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

func (m *MemoryRepository) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (m *MemoryRepository) GetShow(ctx context.Context, id uuid.UUID) (*shows.Show, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	show, ok := m.shows[id]
	if !ok {
		return nil, ErrShowNotFound
	}
	return &show, nil
}

func (m *MemoryRepository) SeatsForBooking(ctx context.Context, bookingID uuid.UUID) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seats := []int{}
	for key, c := range m.claims {
		if c.BookingID == bookingID {
			seats = append(seats, key.seat)
		}
	}
	sort.Ints(seats)
	return seats, nil
}

func (m *MemoryRepository) ClaimedSeats(ctx context.Context, showID uuid.UUID) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seats := []int{}
	for key := range m.claims {
		if key.showID == showID {
			seats = append(seats, key.seat)
		}
	}
	sort.Ints(seats)
	return seats, nil
}

func (m *MemoryRepository) ClaimCounts(ctx context.Context, showIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[uuid.UUID]struct{}, len(showIDs))
	for _, id := range showIDs {
		wanted[id] = struct{}{}
	}

	counts := make(map[uuid.UUID]int, len(showIDs))
	for key := range m.claims {
		if _, ok := wanted[key.showID]; ok {
			counts[key.showID]++
		}
	}
	return counts, nil
}

type stagedUpdate struct {
	booking  Booking
	expected Status
}

// memTx sees committed state overlaid with its own staged writes
type memTx struct {
	repo     *MemoryRepository
	locked   map[uuid.UUID]*sync.Mutex
	inserted map[uuid.UUID]*Booking
	updated  map[uuid.UUID]stagedUpdate
	added    map[claimKey]SeatClaim
	removed  map[claimKey]uuid.UUID
}

func (t *memTx) unlock() {
	for _, lock := range t.locked {
		lock.Unlock()
	}
	t.locked = nil
}

func (t *memTx) lockShow(showID uuid.UUID) {
	if _, ok := t.locked[showID]; ok {
		return
	}
	lock := t.repo.showLock(showID)
	lock.Lock()
	t.locked[showID] = lock
}

func (t *memTx) booking(id uuid.UUID) (Booking, bool) {
	if b, ok := t.inserted[id]; ok {
		return *b, true
	}
	if u, ok := t.updated[id]; ok {
		return u.booking, true
	}
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	b, ok := t.repo.bookings[id]
	return b, ok
}

func (t *memTx) LockShow(showID uuid.UUID) (*shows.Show, error) {
	if err := t.repo.fault("LockShow"); err != nil {
		return nil, err
	}

	t.repo.mu.RLock()
	show, ok := t.repo.shows[showID]
	t.repo.mu.RUnlock()
	if !ok {
		return nil, ErrShowNotFound
	}

	t.lockShow(showID)
	return &show, nil
}

func (t *memTx) CreateBooking(booking *Booking) error {
	if err := t.repo.fault("CreateBooking"); err != nil {
		return err
	}
	if _, exists := t.booking(booking.ID); exists {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}

	staged := *booking
	t.inserted[booking.ID] = &staged
	return nil
}

func (t *memTx) ClaimSeats(booking *Booking, seats []int, now time.Time) ([]int, error) {
	if err := t.repo.fault("ClaimSeats"); err != nil {
		return nil, err
	}
	t.lockShow(booking.ShowID)

	t.repo.mu.RLock()
	for _, seat := range seats {
		key := claimKey{showID: booking.ShowID, seat: seat}
		if _, ok := t.added[key]; ok {
			continue
		}
		if _, committed := t.repo.claims[key]; committed {
			if _, released := t.removed[key]; !released {
				continue
			}
		}
		t.added[key] = SeatClaim{
			ID:         uuid.New(),
			BookingID:  booking.ID,
			ShowID:     booking.ShowID,
			SeatNumber: seat,
			CreatedAt:  now,
		}
	}
	t.repo.mu.RUnlock()

	owned := []int{}
	for key, c := range t.added {
		if c.BookingID == booking.ID {
			owned = append(owned, key.seat)
		}
	}
	sort.Ints(owned)
	return owned, nil
}

func (t *memTx) ReleaseSeats(bookingIDs ...uuid.UUID) (int, error) {
	if err := t.repo.fault("ReleaseSeats"); err != nil {
		return 0, err
	}

	owners := make(map[uuid.UUID]struct{}, len(bookingIDs))
	for _, id := range bookingIDs {
		owners[id] = struct{}{}
	}

	released := 0
	for key, c := range t.added {
		if _, ok := owners[c.BookingID]; ok {
			delete(t.added, key)
			released++
		}
	}

	t.repo.mu.RLock()
	for key, c := range t.repo.claims {
		if _, ok := owners[c.BookingID]; !ok {
			continue
		}
		if _, already := t.removed[key]; already {
			continue
		}
		t.removed[key] = c.BookingID
		released++
	}
	t.repo.mu.RUnlock()

	return released, nil
}

func (t *memTx) SetStatus(bookingID uuid.UUID, to Status, now time.Time) error {
	if err := t.repo.fault("SetStatus"); err != nil {
		return err
	}

	b, ok := t.booking(bookingID)
	if !ok {
		return ErrBookingNotFound
	}
	if !CanTransition(b.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	t.stage(b, to, now)
	return nil
}

func (t *memTx) stage(b Booking, to Status, now time.Time) {
	if staged, ok := t.inserted[b.ID]; ok {
		staged.Status = to
		staged.UpdatedAt = now
		return
	}

	expected := b.Status
	if u, ok := t.updated[b.ID]; ok {
		expected = u.expected
	}
	b.Status = to
	b.UpdatedAt = now
	t.updated[b.ID] = stagedUpdate{booking: b, expected: expected}
}

func (t *memTx) ExpirePending(cutoff, now time.Time) ([]Booking, error) {
	if err := t.repo.fault("ExpirePending"); err != nil {
		return nil, err
	}

	var stale []Booking
	t.repo.mu.RLock()
	for id, b := range t.repo.bookings {
		if _, staged := t.updated[id]; staged {
			continue
		}
		if b.Status == StatusPending && b.CreatedAt.Before(cutoff) {
			stale = append(stale, b)
		}
	}
	t.repo.mu.RUnlock()

	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	for i := range stale {
		t.stage(stale[i], StatusFailed, now)
		stale[i].Status = StatusFailed
		stale[i].UpdatedAt = now
	}
	return stale, nil
}

func (t *memTx) commit() error {
	m := t.repo
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, u := range t.updated {
		current, ok := m.bookings[id]
		if !ok || current.Status != u.expected {
			return fmt.Errorf("%w: %s", ErrSerialization, id)
		}
	}
	for key := range t.added {
		if existing, ok := m.claims[key]; ok {
			if owner, released := t.removed[key]; !released || owner != existing.BookingID {
				return fmt.Errorf("%w: show %s seat %d", ErrUniqueViolation, key.showID, key.seat)
			}
		}
	}

	for key, owner := range t.removed {
		if c, ok := m.claims[key]; ok && c.BookingID == owner {
			delete(m.claims, key)
		}
	}
	for id, b := range t.inserted {
		m.bookings[id] = *b
	}
	for id, u := range t.updated {
		m.bookings[id] = u.booking
	}
	for key, c := range t.added {
		m.claims[key] = c
	}
	return nil
}
