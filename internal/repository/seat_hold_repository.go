package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// SeatHoldRepo provides data access to the seat_holds table.  The table
// carries a unique index on seat_id, which is what guarantees at most one
// hold row per seat under concurrent inserts; Create reports a lost race
// as ErrDuplicate.  All timestamps are written and compared in UTC and
// "now" is always supplied by the caller so one request evaluates expiry
// against a single clock reading.
type SeatHoldRepo struct {
	db *sql.DB
}

// NewSeatHoldRepo returns a new SeatHoldRepo bound to the provided database.
func NewSeatHoldRepo(db *sql.DB) *SeatHoldRepo { return &SeatHoldRepo{db: db} }

const holdSelect = `SELECT id, seat_id, hold_token, session_hint, expires_at, created_at, updated_at FROM seat_holds`

func scanHold(sc interface{ Scan(...interface{}) error }) (model.SeatHold, error) {
	var h model.SeatHold
	var hint sql.NullString
	if err := sc.Scan(&h.ID, &h.SeatID, &h.HoldToken, &hint, &h.ExpiresAt, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return h, err
	}
	h.SessionHint = hint.String
	h.ExpiresAt = h.ExpiresAt.UTC()
	h.CreatedAt = h.CreatedAt.UTC()
	h.UpdatedAt = h.UpdatedAt.UTC()
	return h, nil
}

func (r *SeatHoldRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.SeatHold, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	holds := make([]model.SeatHold, 0)
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return holds, nil
}

// GetBySeat returns the hold row for a seat regardless of whether it has
// expired.  It returns ErrHoldNotFound when the seat has no row.
func (r *SeatHoldRepo) GetBySeat(ctx context.Context, seatID string) (*model.SeatHold, error) {
	h, err := scanHold(r.db.QueryRowContext(ctx, holdSelect+` WHERE seat_id = ?`, seatID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	return &h, nil
}

// ListBySeats returns the hold rows (live or expired) for the given seats.
func (r *SeatHoldRepo) ListBySeats(ctx context.Context, seatIDs []string) ([]model.SeatHold, error) {
	if len(seatIDs) == 0 {
		return []model.SeatHold{}, nil
	}
	ph, args := inClause(seatIDs)
	return r.list(ctx, holdSelect+` WHERE seat_id IN (`+ph+`)`, args...)
}

// ListLiveByConcert returns the holds on seats of a concert that are
// still live at now.
func (r *SeatHoldRepo) ListLiveByConcert(ctx context.Context, concertID string, now time.Time) ([]model.SeatHold, error) {
	const q = `SELECT h.id, h.seat_id, h.hold_token, h.session_hint, h.expires_at, h.created_at, h.updated_at
               FROM seat_holds h
               JOIN seats s ON s.id = h.seat_id
               WHERE s.concert_id = ? AND h.expires_at > ?`
	return r.list(ctx, q, concertID, now.UTC())
}

// Create inserts a new hold.  ID, SeatID, HoldToken and ExpiresAt must be
// set; CreatedAt and UpdatedAt are filled from the database defaults.  A
// unique index violation (another row for the same seat) is returned as
// ErrDuplicate.
func (r *SeatHoldRepo) Create(ctx context.Context, h *model.SeatHold) error {
	const q = `INSERT INTO seat_holds (id, seat_id, hold_token, session_hint, expires_at) VALUES (?, ?, ?, ?, ?)`
	var hint sql.NullString
	if h.SessionHint != "" {
		hint = sql.NullString{String: h.SessionHint, Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, q, h.ID, h.SeatID, h.HoldToken, hint, h.ExpiresAt.UTC()); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Extend moves the expiry of a hold that is still live at now.  It
// returns ErrHoldNotFound when the row has disappeared or expired in the
// meantime, so the caller can re-run its decision instead of reviving a
// dead hold.  The DSN sets clientFoundRows so RowsAffected counts matched
// rows even when the timestamp is unchanged.
func (r *SeatHoldRepo) Extend(ctx context.Context, id string, now, expiresAt time.Time) error {
	const q = `UPDATE seat_holds SET expires_at = ?, updated_at = ? WHERE id = ? AND expires_at > ?`
	res, err := r.db.ExecContext(ctx, q, expiresAt.UTC(), now.UTC(), id, now.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrHoldNotFound
	}
	return nil
}

// Delete removes a hold by primary key.  Deleting a row that no longer
// exists is not an error; concurrent replacers may race on stale rows.
func (r *SeatHoldRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM seat_holds WHERE id = ?`, id)
	return err
}

// DeleteByToken removes the hold identified by token and returns
// ErrHoldNotFound when nothing was deleted.
func (r *SeatHoldRepo) DeleteByToken(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seat_holds WHERE hold_token = ?`, token)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrHoldNotFound
	}
	return nil
}

// DeleteByTokens removes every hold whose token is in tokens and returns
// how many rows were deleted.
func (r *SeatHoldRepo) DeleteByTokens(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	ph, args := inClause(tokens)
	res, err := r.db.ExecContext(ctx, `DELETE FROM seat_holds WHERE hold_token IN (`+ph+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired removes all holds that are no longer live at now.  It is
// only used for storage hygiene; every read path re-checks expiry.
func (r *SeatHoldRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seat_holds WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
