// Package memory is an in-process implementation of the repository
// interfaces.  It backs STORE_DRIVER=memory and the service and handler
// tests.  A single mutex serialises every operation, which gives the
// same uniqueness guarantees the MySQL unique indexes give: at most one
// hold row per seat and at most one reservation per seat.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/repository"
)

// Store holds all tables.  Use the accessor methods to obtain the
// per-table views the service layer consumes.
type Store struct {
	mu sync.Mutex

	concerts map[string]model.Concert
	grades   map[string]model.SeatGrade
	seats    map[string]model.Seat

	holds       map[string]model.SeatHold // by hold id
	holdBySeat  map[string]string         // seat id -> hold id
	holdByToken map[string]string         // token -> hold id

	reservations map[string]model.Reservation
	resSeats     map[string][]string // reservation id -> seat ids
	seatRes      map[string]string   // seat id -> reservation id
}

// New returns an empty store.
func New() *Store {
	return &Store{
		concerts:     make(map[string]model.Concert),
		grades:       make(map[string]model.SeatGrade),
		seats:        make(map[string]model.Seat),
		holds:        make(map[string]model.SeatHold),
		holdBySeat:   make(map[string]string),
		holdByToken:  make(map[string]string),
		reservations: make(map[string]model.Reservation),
		resSeats:     make(map[string][]string),
		seatRes:      make(map[string]string),
	}
}

// AddConcert stores c, replacing any concert with the same id.
func (s *Store) AddConcert(c model.Concert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.concerts[c.ID] = c
}

// AddGrade stores g.
func (s *Store) AddGrade(g model.SeatGrade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grades[g.ID] = g
}

// AddSeat stores seat.
func (s *Store) AddSeat(seat model.Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seats[seat.ID] = seat
}

// Concerts returns the concert table view.
func (s *Store) Concerts() *ConcertTable { return &ConcertTable{s} }

// Seats returns the seat and grade table view.
func (s *Store) Seats() *SeatTable { return &SeatTable{s} }

// Holds returns the seat_holds table view.
func (s *Store) Holds() *HoldTable { return &HoldTable{s} }

// Reservations returns the reservations table view.
func (s *Store) Reservations() *ReservationTable { return &ReservationTable{s} }

// ConcertTable implements the concert store.
type ConcertTable struct{ s *Store }

func (t *ConcertTable) List(_ context.Context, sortBy model.ConcertSortField, desc bool) ([]model.Concert, error) {
	t.s.mu.Lock()
	out := make([]model.Concert, 0, len(t.s.concerts))
	for _, c := range t.s.concerts {
		out = append(out, c)
	}
	t.s.mu.Unlock()

	cmp := func(a, b model.Concert) int {
		switch sortBy {
		case model.SortByTitle:
			return strings.Compare(a.Title, b.Title)
		case model.SortByVenue:
			return strings.Compare(a.Venue, b.Venue)
		default:
			return a.EventAt.Compare(b.EventAt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *ConcertTable) GetByID(_ context.Context, id string) (*model.Concert, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c, ok := t.s.concerts[id]
	if !ok {
		return nil, repository.ErrConcertNotFound
	}
	return &c, nil
}

func (t *ConcertTable) ListByIDs(_ context.Context, ids []string) ([]model.Concert, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make([]model.Concert, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if c, ok := t.s.concerts[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// SeatTable implements the seat store.
type SeatTable struct{ s *Store }

func lessSeat(a, b model.Seat) bool {
	if a.Zone != b.Zone {
		return a.Zone < b.Zone
	}
	if a.RowLabel != b.RowLabel {
		return a.RowLabel < b.RowLabel
	}
	return a.SeatNumber < b.SeatNumber
}

func (t *SeatTable) ListByConcert(_ context.Context, concertID string) ([]model.Seat, error) {
	t.s.mu.Lock()
	out := make([]model.Seat, 0)
	for _, seat := range t.s.seats {
		if seat.ConcertID == concertID {
			out = append(out, seat)
		}
	}
	t.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return lessSeat(out[i], out[j]) })
	return out, nil
}

func (t *SeatTable) CountByConcerts(_ context.Context, concertIDs []string) (map[string]int, error) {
	want := toSet(concertIDs)
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make(map[string]int)
	for _, seat := range t.s.seats {
		if want[seat.ConcertID] {
			out[seat.ConcertID]++
		}
	}
	return out, nil
}

func (t *SeatTable) GetByID(_ context.Context, id string) (*model.Seat, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	seat, ok := t.s.seats[id]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	return &seat, nil
}

func (t *SeatTable) ListWithGrades(_ context.Context, ids []string) ([]model.SeatWithGrade, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make([]model.SeatWithGrade, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seat, ok := t.s.seats[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, t.s.withGrade(seat))
	}
	return out, nil
}

func (t *SeatTable) ListGrades(_ context.Context, concertID string) ([]model.SeatGrade, error) {
	t.s.mu.Lock()
	out := make([]model.SeatGrade, 0)
	for _, g := range t.s.grades {
		if g.ConcertID == concertID {
			out = append(out, g)
		}
	}
	t.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price > out[j].Price
		}
		return out[i].GradeCode < out[j].GradeCode
	})
	return out, nil
}

// withGrade must be called with mu held.
func (s *Store) withGrade(seat model.Seat) model.SeatWithGrade {
	g := s.grades[seat.GradeID]
	return model.SeatWithGrade{Seat: seat, GradeCode: g.GradeCode, Price: g.Price}
}

// HoldTable implements the hold store.
type HoldTable struct{ s *Store }

func (t *HoldTable) GetBySeat(_ context.Context, seatID string) (*model.SeatHold, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	id, ok := t.s.holdBySeat[seatID]
	if !ok {
		return nil, repository.ErrHoldNotFound
	}
	h := t.s.holds[id]
	return &h, nil
}

func (t *HoldTable) ListBySeats(_ context.Context, seatIDs []string) ([]model.SeatHold, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make([]model.SeatHold, 0)
	for seatID := range toSet(seatIDs) {
		if id, ok := t.s.holdBySeat[seatID]; ok {
			out = append(out, t.s.holds[id])
		}
	}
	return out, nil
}

func (t *HoldTable) ListLiveByConcert(_ context.Context, concertID string, now time.Time) ([]model.SeatHold, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make([]model.SeatHold, 0)
	for _, h := range t.s.holds {
		if seat, ok := t.s.seats[h.SeatID]; ok && seat.ConcertID == concertID && h.LiveAt(now) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (t *HoldTable) Create(_ context.Context, h *model.SeatHold) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, taken := t.s.holdBySeat[h.SeatID]; taken {
		return repository.ErrDuplicate
	}
	if _, taken := t.s.holdByToken[h.HoldToken]; taken {
		return repository.ErrDuplicate
	}
	if _, taken := t.s.holds[h.ID]; taken {
		return repository.ErrDuplicate
	}
	row := *h
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	row.UpdatedAt = row.CreatedAt
	t.s.holds[row.ID] = row
	t.s.holdBySeat[row.SeatID] = row.ID
	t.s.holdByToken[row.HoldToken] = row.ID
	return nil
}

func (t *HoldTable) Extend(_ context.Context, id string, now, expiresAt time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	h, ok := t.s.holds[id]
	if !ok || !h.LiveAt(now) {
		return repository.ErrHoldNotFound
	}
	h.ExpiresAt = expiresAt
	h.UpdatedAt = now
	t.s.holds[id] = h
	return nil
}

func (t *HoldTable) Delete(_ context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.dropHold(id)
	return nil
}

func (t *HoldTable) DeleteByToken(_ context.Context, token string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	id, ok := t.s.holdByToken[token]
	if !ok {
		return repository.ErrHoldNotFound
	}
	t.s.dropHold(id)
	return nil
}

func (t *HoldTable) DeleteByTokens(_ context.Context, tokens []string) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var n int64
	for _, token := range tokens {
		if id, ok := t.s.holdByToken[token]; ok {
			t.s.dropHold(id)
			n++
		}
	}
	return n, nil
}

func (t *HoldTable) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var n int64
	for id, h := range t.s.holds {
		if !h.LiveAt(now) {
			t.s.dropHold(id)
			n++
		}
	}
	return n, nil
}

// dropHold must be called with mu held.
func (s *Store) dropHold(id string) {
	h, ok := s.holds[id]
	if !ok {
		return
	}
	delete(s.holds, id)
	delete(s.holdBySeat, h.SeatID)
	delete(s.holdByToken, h.HoldToken)
}

// ReservationTable implements the reservation store.
type ReservationTable struct{ s *Store }

// Create links every seat to the reservation or, if any seat is already
// reserved, changes nothing and returns repository.ErrDuplicate.
func (t *ReservationTable) Create(_ context.Context, res *model.Reservation, seatIDs []string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, taken := t.s.reservations[res.ID]; taken {
		return repository.ErrDuplicate
	}
	seen := make(map[string]bool, len(seatIDs))
	for _, id := range seatIDs {
		if _, taken := t.s.seatRes[id]; taken || seen[id] {
			return repository.ErrDuplicate
		}
		seen[id] = true
	}
	t.s.reservations[res.ID] = *res
	t.s.resSeats[res.ID] = append([]string(nil), seatIDs...)
	for _, id := range seatIDs {
		t.s.seatRes[id] = res.ID
	}
	return nil
}

func (t *ReservationTable) ReservedSeatIDs(_ context.Context, seatIDs []string) (map[string]bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make(map[string]bool)
	for _, id := range seatIDs {
		if _, ok := t.s.seatRes[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (t *ReservationTable) ReservedSeatIDsByConcert(_ context.Context, concertID string) (map[string]bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make(map[string]bool)
	for seatID := range t.s.seatRes {
		if seat, ok := t.s.seats[seatID]; ok && seat.ConcertID == concertID {
			out[seatID] = true
		}
	}
	return out, nil
}

func (t *ReservationTable) CountByConcerts(_ context.Context, concertIDs []string) (map[string]int, error) {
	want := toSet(concertIDs)
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make(map[string]int)
	for seatID := range t.s.seatRes {
		if seat, ok := t.s.seats[seatID]; ok && want[seat.ConcertID] {
			out[seat.ConcertID]++
		}
	}
	return out, nil
}

func (t *ReservationTable) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	res, ok := t.s.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return &res, nil
}

func (t *ReservationTable) ListByPhone(_ context.Context, phone string) ([]model.Reservation, error) {
	t.s.mu.Lock()
	out := make([]model.Reservation, 0)
	for _, res := range t.s.reservations {
		if res.PhoneNumber == phone {
			out = append(out, res)
		}
	}
	t.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *ReservationTable) SeatsByReservations(_ context.Context, reservationIDs []string) (map[string][]model.SeatWithGrade, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make(map[string][]model.SeatWithGrade)
	for _, resID := range reservationIDs {
		ids, ok := t.s.resSeats[resID]
		if !ok {
			continue
		}
		seats := make([]model.SeatWithGrade, 0, len(ids))
		for _, id := range ids {
			if seat, ok := t.s.seats[id]; ok {
				seats = append(seats, t.s.withGrade(seat))
			}
		}
		sort.Slice(seats, func(i, j int) bool { return lessSeat(seats[i].Seat, seats[j].Seat) })
		out[resID] = seats
	}
	return out, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
