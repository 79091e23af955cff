package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// ReservationRepo provides access to reservations and their seats.
// Seats reserved under a reservation are stored in the reservation_seats
// table, whose unique index on seat_id is the final guard against two
// reservations claiming the same seat.  Reservations are immutable once
// created.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationSelect = `SELECT id, reserver_name, phone_number, pin_hash, total_amount, created_at FROM reservations`

func scanReservation(sc interface{ Scan(...interface{}) error }) (model.Reservation, error) {
	var r model.Reservation
	if err := sc.Scan(&r.ID, &r.ReserverName, &r.PhoneNumber, &r.PINHash, &r.TotalAmount, &r.CreatedAt); err != nil {
		return r, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

// Create inserts the reservation row and one reservation_seats row per
// seat inside a single transaction.  Either every row is written or none
// is: if any seat is already linked to another reservation the unique
// index rejects the bulk insert, the transaction is rolled back and
// ErrDuplicate is returned.  res.CreatedAt must be set by the caller.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return errors.New("reservation without seats")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reservation tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const insRes = `INSERT INTO reservations (id, reserver_name, phone_number, pin_hash, total_amount, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insRes, res.ID, res.ReserverName, res.PhoneNumber, res.PINHash, res.TotalAmount, res.CreatedAt.UTC()); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert reservation: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO reservation_seats (reservation_id, seat_id) VALUES `)
	args := make([]interface{}, 0, len(seatIDs)*2)
	for i, id := range seatIDs {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?)")
		args = append(args, res.ID, id)
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert reservation seats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reservation: %w", err)
	}
	committed = true
	return nil
}

// ReservedSeatIDs returns the subset of seatIDs that already belong to a
// reservation, as a set.
func (r *ReservationRepo) ReservedSeatIDs(ctx context.Context, seatIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(seatIDs) == 0 {
		return out, nil
	}
	ph, args := inClause(seatIDs)
	rows, err := r.db.QueryContext(ctx, `SELECT seat_id FROM reservation_seats WHERE seat_id IN (`+ph+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// ReservedSeatIDsByConcert returns the set of reserved seat ids of a concert.
func (r *ReservationRepo) ReservedSeatIDsByConcert(ctx context.Context, concertID string) (map[string]bool, error) {
	const q = `SELECT rs.seat_id FROM reservation_seats rs JOIN seats s ON s.id = rs.seat_id WHERE s.concert_id = ?`
	rows, err := r.db.QueryContext(ctx, q, concertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// CountByConcerts returns the number of reserved seats per concert id.
// Concerts without reservations are absent from the map.
func (r *ReservationRepo) CountByConcerts(ctx context.Context, concertIDs []string) (map[string]int, error) {
	out := make(map[string]int)
	if len(concertIDs) == 0 {
		return out, nil
	}
	ph, args := inClause(concertIDs)
	q := `SELECT s.concert_id, COUNT(*) FROM reservation_seats rs JOIN seats s ON s.id = rs.seat_id
          WHERE s.concert_id IN (` + ph + `) GROUP BY s.concert_id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// GetByID returns a reservation or ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, reservationSelect+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ListByPhone returns every reservation made with the given normalized
// phone number, newest first.
func (r *ReservationRepo) ListByPhone(ctx context.Context, phone string) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, reservationSelect+` WHERE phone_number = ? ORDER BY created_at DESC, id ASC`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// SeatsByReservations returns the seats (with grade information) linked
// to each reservation id, ordered by zone, row and number.
func (r *ReservationRepo) SeatsByReservations(ctx context.Context, reservationIDs []string) (map[string][]model.SeatWithGrade, error) {
	out := make(map[string][]model.SeatWithGrade)
	if len(reservationIDs) == 0 {
		return out, nil
	}
	ph, args := inClause(reservationIDs)
	q := `SELECT rs.reservation_id, s.id, s.concert_id, s.grade_id, s.zone, s.row_label, s.seat_number, g.grade_code, g.price
          FROM reservation_seats rs
          JOIN seats s ON s.id = rs.seat_id
          JOIN seat_grades g ON g.id = s.grade_id
          WHERE rs.reservation_id IN (` + ph + `)
          ORDER BY s.zone, s.row_label, s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var resID string
		var s model.SeatWithGrade
		if err := rows.Scan(&resID, &s.ID, &s.ConcertID, &s.GradeID, &s.Zone, &s.RowLabel, &s.SeatNumber, &s.GradeCode, &s.Price); err != nil {
			return nil, err
		}
		out[resID] = append(out[resID], s)
	}
	return out, rows.Err()
}
