package service

import (
	"context"
	"time"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/queue"
)

// ConcertStore reads concerts.
type ConcertStore interface {
	List(ctx context.Context, sortBy model.ConcertSortField, desc bool) ([]model.Concert, error)
	GetByID(ctx context.Context, id string) (*model.Concert, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Concert, error)
}

// SeatStore reads the immutable seat layout and grades.
type SeatStore interface {
	ListByConcert(ctx context.Context, concertID string) ([]model.Seat, error)
	CountByConcerts(ctx context.Context, concertIDs []string) (map[string]int, error)
	GetByID(ctx context.Context, id string) (*model.Seat, error)
	ListWithGrades(ctx context.Context, ids []string) ([]model.SeatWithGrade, error)
	ListGrades(ctx context.Context, concertID string) ([]model.SeatGrade, error)
}

// HoldStore manages seat_holds rows.  Create must fail with
// repository.ErrDuplicate when the seat already has a row, and Extend
// with repository.ErrHoldNotFound when the row is gone or no longer live.
type HoldStore interface {
	GetBySeat(ctx context.Context, seatID string) (*model.SeatHold, error)
	ListBySeats(ctx context.Context, seatIDs []string) ([]model.SeatHold, error)
	ListLiveByConcert(ctx context.Context, concertID string, now time.Time) ([]model.SeatHold, error)
	Create(ctx context.Context, h *model.SeatHold) error
	Extend(ctx context.Context, id string, now, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteByTokens(ctx context.Context, tokens []string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ReservationStore manages reservations.  Create is all-or-nothing and
// fails with repository.ErrDuplicate if any seat is already reserved.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation, seatIDs []string) error
	ReservedSeatIDs(ctx context.Context, seatIDs []string) (map[string]bool, error)
	ReservedSeatIDsByConcert(ctx context.Context, concertID string) (map[string]bool, error)
	CountByConcerts(ctx context.Context, concertIDs []string) (map[string]int, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	ListByPhone(ctx context.Context, phone string) ([]model.Reservation, error)
	SeatsByReservations(ctx context.Context, reservationIDs []string) (map[string][]model.SeatWithGrade, error)
}

// Stores bundles the four stores a service set is built from.
type Stores struct {
	Concerts     ConcertStore
	Seats        SeatStore
	Holds        HoldStore
	Reservations ReservationStore
}

// EventPublisher delivers reservation events.  queue.Publisher satisfies it.
type EventPublisher interface {
	PublishReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}
