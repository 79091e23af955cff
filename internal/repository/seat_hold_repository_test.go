package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

var holdCols = []string{"id", "seat_id", "hold_token", "session_hint", "expires_at", "created_at", "updated_at"}

func TestSeatHoldRepo_GetBySeat(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSeatHoldRepo(db)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, seat_id, hold_token, session_hint, expires_at, created_at, updated_at FROM seat_holds WHERE seat_id = ?")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(holdCols).AddRow("h1", "s1", "t1", nil, now.Add(time.Minute), now, now))
	h, err := repo.GetBySeat(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "t1", h.HoldToken)
	assert.Empty(t, h.SessionHint)
	assert.True(t, h.LiveAt(now))

	mock.ExpectQuery(regexp.QuoteMeta("FROM seat_holds WHERE seat_id = ?")).
		WithArgs("s2").
		WillReturnRows(sqlmock.NewRows(holdCols))
	_, err = repo.GetBySeat(context.Background(), "s2")
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestSeatHoldRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSeatHoldRepo(db)
	exp := time.Date(2026, 5, 1, 12, 5, 0, 0, time.UTC)
	h := &model.SeatHold{ID: "h1", SeatID: "s1", HoldToken: "t1", SessionHint: "a", ExpiresAt: exp}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_holds (id, seat_id, hold_token, session_hint, expires_at)")).
		WithArgs("h1", "s1", "t1", "a", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), h))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_holds")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 's1' for key 'uq_seat_holds_seat'"})
	assert.ErrorIs(t, repo.Create(context.Background(), h), ErrDuplicate)
}

func TestSeatHoldRepo_Extend(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSeatHoldRepo(db)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(5 * time.Minute)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE seat_holds SET expires_at = ?, updated_at = ? WHERE id = ? AND expires_at > ?")).
		WithArgs(exp, now, "h1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Extend(context.Background(), "h1", now, exp))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE seat_holds")).
		WithArgs(exp, now, "h1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Extend(context.Background(), "h1", now, exp), ErrHoldNotFound)
}

func TestSeatHoldRepo_Deletes(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSeatHoldRepo(db)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_holds WHERE hold_token = ?")).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteByToken(ctx, "t1"), ErrHoldNotFound)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_holds WHERE hold_token IN (?,?)")).
		WithArgs("t1", "t2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := repo.DeleteByTokens(ctx, []string{"t1", "t2"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.DeleteByTokens(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_holds WHERE expires_at <= ?")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err = repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
