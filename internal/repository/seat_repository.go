package repository // repository for seat and seat grade persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// SeatRepo encapsulates read operations for seats and seat_grades.  Seats
// are immutable once created so no write path is exposed here.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// ListByConcert returns every seat of a concert ordered by zone, row and
// seat number so seat maps render deterministically.
func (r *SeatRepo) ListByConcert(ctx context.Context, concertID string) ([]model.Seat, error) {
	const q = `SELECT id, concert_id, grade_id, zone, row_label, seat_number
               FROM seats
               WHERE concert_id = ?
               ORDER BY zone, row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, concertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.ConcertID, &s.GradeID, &s.Zone, &s.RowLabel, &s.SeatNumber); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// CountByConcerts returns the number of seats per concert ID.  Concerts
// without seats are absent from the map.
func (r *SeatRepo) CountByConcerts(ctx context.Context, concertIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(concertIDs))
	if len(concertIDs) == 0 {
		return counts, nil
	}
	ph, args := inClause(concertIDs)
	rows, err := r.db.QueryContext(ctx,
		`SELECT concert_id, COUNT(*) FROM seats WHERE concert_id IN (`+ph+`) GROUP BY concert_id`, args...)
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
		counts[id] = n
	}
	return counts, rows.Err()
}

// GetByID retrieves a seat by its ID.  It returns ErrSeatNotFound if no
// seat exists.
func (r *SeatRepo) GetByID(ctx context.Context, id string) (*model.Seat, error) {
	const q = `SELECT id, concert_id, grade_id, zone, row_label, seat_number FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.ConcertID, &s.GradeID, &s.Zone, &s.RowLabel, &s.SeatNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListWithGrades loads the requested seats joined with their grade code
// and price.  Unknown IDs are skipped, so callers compare lengths to
// detect missing seats.
func (r *SeatRepo) ListWithGrades(ctx context.Context, ids []string) ([]model.SeatWithGrade, error) {
	if len(ids) == 0 {
		return []model.SeatWithGrade{}, nil
	}
	ph, args := inClause(ids)
	q := `SELECT s.id, s.concert_id, s.grade_id, s.zone, s.row_label, s.seat_number, g.grade_code, g.price
          FROM seats s
          JOIN seat_grades g ON g.id = s.grade_id
          WHERE s.id IN (` + ph + `)
          ORDER BY s.zone, s.row_label, s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SeatWithGrade, 0, len(ids))
	for rows.Next() {
		var s model.SeatWithGrade
		if err := rows.Scan(&s.ID, &s.ConcertID, &s.GradeID, &s.Zone, &s.RowLabel, &s.SeatNumber, &s.GradeCode, &s.Price); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListGrades returns the seat grades of a concert ordered by descending
// price, which matches how grades are presented to customers.
func (r *SeatRepo) ListGrades(ctx context.Context, concertID string) ([]model.SeatGrade, error) {
	const q = `SELECT id, concert_id, grade_code, price
               FROM seat_grades
               WHERE concert_id = ?
               ORDER BY price DESC, grade_code`
	rows, err := r.db.QueryContext(ctx, q, concertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	grades := make([]model.SeatGrade, 0)
	for rows.Next() {
		var g model.SeatGrade
		if err := rows.Scan(&g.ID, &g.ConcertID, &g.GradeCode, &g.Price); err != nil {
			return nil, err
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}
