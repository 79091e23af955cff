package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/repository"
)

func seeded(t *testing.T) (*Store, string) {
	t.Helper()
	s := New()
	ids := SeedDemo(s, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), 1, 2)
	require.Len(t, ids, 2)
	return s, ids[0]
}

func TestHoldTable_SeatUniqueness(t *testing.T) {
	s, concertID := seeded(t)
	ctx := context.Background()
	seats, err := s.Seats().ListByConcert(ctx, concertID)
	require.NoError(t, err)
	require.Len(t, seats, 8)

	now := time.Now().UTC()
	h := &model.SeatHold{ID: "h1", SeatID: seats[0].ID, HoldToken: "t1", ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, s.Holds().Create(ctx, h))
	err = s.Holds().Create(ctx, &model.SeatHold{ID: "h2", SeatID: seats[0].ID, HoldToken: "t2", ExpiresAt: now.Add(time.Minute)})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	live, err := s.Holds().ListLiveByConcert(ctx, concertID, now)
	require.NoError(t, err)
	assert.Len(t, live, 1)

	assert.ErrorIs(t, s.Holds().Extend(ctx, "h1", now.Add(2*time.Minute), now.Add(time.Hour)), repository.ErrHoldNotFound)

	n, err := s.Holds().DeleteExpired(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.ErrorIs(t, s.Holds().DeleteByToken(ctx, "t1"), repository.ErrHoldNotFound)
}

func TestReservationTable_CreateIsAllOrNothing(t *testing.T) {
	s, concertID := seeded(t)
	ctx := context.Background()
	seats, err := s.Seats().ListByConcert(ctx, concertID)
	require.NoError(t, err)

	first := &model.Reservation{ID: "r1", PhoneNumber: "01012345678", CreatedAt: time.Now()}
	require.NoError(t, s.Reservations().Create(ctx, first, []string{seats[0].ID}))

	second := &model.Reservation{ID: "r2", PhoneNumber: "01012345678", CreatedAt: time.Now()}
	err = s.Reservations().Create(ctx, second, []string{seats[1].ID, seats[0].ID})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = s.Reservations().GetByID(ctx, "r2")
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)
	reserved, err := s.Reservations().ReservedSeatIDs(ctx, []string{seats[0].ID, seats[1].ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{seats[0].ID: true}, reserved)

	counts, err := s.Reservations().CountByConcerts(ctx, []string{concertID})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[concertID])
}

func TestConcertTable_ListOrdering(t *testing.T) {
	s, _ := seeded(t)
	ctx := context.Background()
	asc, err := s.Concerts().List(ctx, model.SortByEventAt, false)
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.True(t, asc[0].EventAt.Before(asc[1].EventAt))

	byTitle, err := s.Concerts().List(ctx, model.SortByTitle, true)
	require.NoError(t, err)
	assert.Equal(t, "Spring Symphony Night", byTitle[0].Title)
}
