package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

func TestGradeName(t *testing.T) {
	assert.Equal(t, "Vip Floor", GradeName("VIP_FLOOR"))
	assert.Equal(t, "Special", GradeName("SPECIAL"))
	assert.Equal(t, "Regular", GradeName("regular"))
}

func TestListConcerts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.hold(t, f.seats[0].ID, "a")
	_, err := f.res.Create(ctx, f.reserveInput(Selection{SeatID: f.seats[0].ID, HoldToken: h.HoldToken}))
	require.NoError(t, err)

	list, err := f.avail.ListConcerts(ctx, ListConcertsInput{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, f.concertID, list[0].ID)
	assert.Equal(t, 1, list[0].AppliedCount)
	assert.Equal(t, 8, list[0].Capacity)
	assert.Equal(t, 0, list[1].AppliedCount)

	desc, err := f.avail.ListConcerts(ctx, ListConcertsInput{SortBy: "eventAt", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, f.otherID, desc[0].ID)

	_, err = f.avail.ListConcerts(ctx, ListConcertsInput{SortBy: "price"})
	requireCode(t, err, CodeInvalidParams)
	_, err = f.avail.ListConcerts(ctx, ListConcertsInput{SortOrder: "up"})
	requireCode(t, err, CodeInvalidParams)
}

func TestConcertDetail_GradeCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	special1, special2 := f.seats[0].ID, f.seats[1].ID

	h := f.hold(t, special1, "a")
	_, err := f.res.Create(ctx, f.reserveInput(Selection{SeatID: special1, HoldToken: h.HoldToken}))
	require.NoError(t, err)
	f.hold(t, special2, "b")

	detail, err := f.avail.ConcertDetail(ctx, f.concertID)
	require.NoError(t, err)
	assert.Equal(t, 8, detail.Capacity)
	assert.Equal(t, 1, detail.AppliedCount)
	require.Len(t, detail.Grades, 4)

	special := detail.Grades[0]
	assert.Equal(t, "SPECIAL", special.GradeCode)
	assert.Equal(t, "Special", special.GradeName)
	assert.Equal(t, 2, special.Total)
	assert.Equal(t, 1, special.Reserved)
	assert.Equal(t, 1, special.Held)
	assert.Equal(t, 0, special.Available)

	for _, g := range detail.Grades[1:] {
		assert.Equal(t, 2, g.Available, g.GradeCode)
	}

	// once the hold lapses the seat is available again
	f.clock.Advance(DefaultHoldTTL)
	detail, err = f.avail.ConcertDetail(ctx, f.concertID)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.Grades[0].Held)
	assert.Equal(t, 1, detail.Grades[0].Available)
}

func TestConcertDetail_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.avail.ConcertDetail(ctx, "nope")
	requireCode(t, err, CodeInvalidParams)
	_, err = f.avail.ConcertDetail(ctx, uuid.NewString())
	requireCode(t, err, CodeConcertNotFound)
}

func TestSeatMap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.hold(t, f.seats[0].ID, "a")
	_, err := f.res.Create(ctx, f.reserveInput(Selection{SeatID: f.seats[0].ID, HoldToken: h.HoldToken}))
	require.NoError(t, err)
	f.hold(t, f.seats[3].ID, "b")

	m, err := f.avail.SeatMap(ctx, f.concertID)
	require.NoError(t, err)
	require.Len(t, m.Seats, 8)
	for i, cell := range m.Seats {
		assert.Equal(t, f.seats[i].ID, cell.SeatID)
		want := model.SeatAvailable
		switch i {
		case 0:
			want = model.SeatReserved
		case 3:
			want = model.SeatHeld
		}
		assert.Equal(t, want, cell.Status, cell.SeatID)
	}
	assert.Equal(t, "SPECIAL", m.Seats[0].GradeCode)

	empty, err := f.avail.SeatMap(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, empty.Seats)

	_, err = f.avail.SeatMap(ctx, "bad")
	requireCode(t, err, CodeInvalidParams)
}

func TestSweeperTick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.hold(t, f.seats[0].ID, "a")
	f.hold(t, f.seats[1].ID, "a")

	sw := NewSweeper(f.store.Holds(), time.Minute, quietLogger())
	sw.now = f.clock.Now
	sw.tick(ctx)
	live, err := f.store.Holds().ListBySeats(ctx, []string{f.seats[0].ID, f.seats[1].ID})
	require.NoError(t, err)
	assert.Len(t, live, 2)

	f.clock.Advance(DefaultHoldTTL)
	sw.tick(ctx)
	live, err = f.store.Holds().ListBySeats(ctx, []string{f.seats[0].ID, f.seats[1].ID})
	require.NoError(t, err)
	assert.Empty(t, live)
}
