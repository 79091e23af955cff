package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

var concertCols = []string{"id", "title", "description", "event_at", "venue", "created_at"}

func TestConcertRepo_ListOrdersByWhitelistedColumn(t *testing.T) {
	db, mock := newMock(t)
	repo := NewConcertRepo(db)
	at := time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM concerts ORDER BY title DESC, id ASC")).
		WillReturnRows(sqlmock.NewRows(concertCols).AddRow("c1", "B", nil, at, "Hall", at))
	got, err := repo.List(context.Background(), model.SortByTitle, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Description)

	mock.ExpectQuery(regexp.QuoteMeta("FROM concerts ORDER BY event_at ASC, id ASC")).
		WillReturnRows(sqlmock.NewRows(concertCols))
	_, err = repo.List(context.Background(), model.ConcertSortField("venue; DROP TABLE concerts"), false)
	require.NoError(t, err)
}

func TestConcertRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewConcertRepo(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM concerts WHERE id = ?")).
		WithArgs("c9").
		WillReturnRows(sqlmock.NewRows(concertCols))
	_, err := repo.GetByID(context.Background(), "c9")
	assert.ErrorIs(t, err, ErrConcertNotFound)
}

func TestSeatRepo_CountByConcerts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSeatRepo(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT concert_id, COUNT(*) FROM seats WHERE concert_id IN (?,?) GROUP BY concert_id")).
		WithArgs("c1", "c2").
		WillReturnRows(sqlmock.NewRows([]string{"concert_id", "count"}).AddRow("c1", 40))
	got, err := repo.CountByConcerts(context.Background(), []string{"c1", "c2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"c1": 40}, got)
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, isDuplicateKey(nil))
	assert.False(t, isDuplicateKey(errors.New("boom")))
	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1213}))
	assert.True(t, isDuplicateKey(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
}
