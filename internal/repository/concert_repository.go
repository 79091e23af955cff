package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// ConcertRepo provides read access to the concerts table.
type ConcertRepo struct {
	db *sql.DB
}

// NewConcertRepo returns a new ConcertRepo bound to the provided database.
func NewConcertRepo(db *sql.DB) *ConcertRepo { return &ConcertRepo{db: db} }

// concertColumns maps public sort fields to columns.  Only values in this
// map are ever interpolated into ORDER BY.
var concertColumns = map[model.ConcertSortField]string{
	model.SortByEventAt: "event_at",
	model.SortByTitle:   "title",
	model.SortByVenue:   "venue",
}

const concertSelect = `SELECT id, title, description, event_at, venue, created_at FROM concerts`

func scanConcert(sc interface{ Scan(...interface{}) error }) (model.Concert, error) {
	var c model.Concert
	var desc sql.NullString
	if err := sc.Scan(&c.ID, &c.Title, &desc, &c.EventAt, &c.Venue, &c.CreatedAt); err != nil {
		return c, err
	}
	c.Description = desc.String
	c.EventAt = c.EventAt.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

// List returns every concert ordered by the given field.  Unknown fields
// fall back to event_at.  The id column breaks ties so paging through
// equal titles stays stable.
func (r *ConcertRepo) List(ctx context.Context, sortBy model.ConcertSortField, desc bool) ([]model.Concert, error) {
	col, ok := concertColumns[sortBy]
	if !ok {
		col = "event_at"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	rows, err := r.db.QueryContext(ctx, concertSelect+` ORDER BY `+col+` `+dir+`, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Concert, 0)
	for rows.Next() {
		c, err := scanConcert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID fetches a single concert.  It returns ErrConcertNotFound when
// no row matches.
func (r *ConcertRepo) GetByID(ctx context.Context, id string) (*model.Concert, error) {
	c, err := scanConcert(r.db.QueryRowContext(ctx, concertSelect+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConcertNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByIDs returns the concerts whose IDs are in ids.  Missing IDs are
// silently skipped.
func (r *ConcertRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Concert, error) {
	if len(ids) == 0 {
		return []model.Concert{}, nil
	}
	ph, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx, concertSelect+` WHERE id IN (`+ph+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Concert, 0, len(ids))
	for rows.Next() {
		c, err := scanConcert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
