package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

func TestHoldCreate_RenewAndConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := f.seats[0].ID

	first := f.hold(t, s1, "session-a")
	assert.Equal(t, f.clock.Now().Add(DefaultHoldTTL), first.ExpiresAt)

	f.clock.Advance(10 * time.Second)
	again := f.hold(t, s1, "session-a")
	assert.Equal(t, first.HoldToken, again.HoldToken)
	assert.Equal(t, f.clock.Now().Add(DefaultHoldTTL), again.ExpiresAt)

	_, err := f.holds.Create(ctx, CreateHoldInput{SeatID: s1, SessionHint: "session-b"})
	se := requireCode(t, err, CodeSeatAlreadyHeld)
	assert.Equal(t, http.StatusConflict, se.Status)

	_, err = f.holds.Create(ctx, CreateHoldInput{SeatID: s1})
	requireCode(t, err, CodeSeatAlreadyHeld)
}

func TestHoldCreate_RenewNeverShortens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := f.seats[0].ID

	long, err := f.holds.Create(ctx, CreateHoldInput{SeatID: s1, SessionHint: "a", TTLSeconds: intPtr(600)})
	require.NoError(t, err)

	short, err := f.holds.Create(ctx, CreateHoldInput{SeatID: s1, SessionHint: "a", TTLSeconds: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, long.HoldToken, short.HoldToken)
	assert.Equal(t, long.ExpiresAt, short.ExpiresAt)
}

func TestHoldCreate_NoHintNeverRenews(t *testing.T) {
	f := newFixture(t)
	s1 := f.seats[0].ID
	f.hold(t, s1, "")
	_, err := f.holds.Create(context.Background(), CreateHoldInput{SeatID: s1})
	requireCode(t, err, CodeSeatAlreadyHeld)
}

func TestHoldCreate_ExpiredHoldIsReplaced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := f.seats[0].ID

	old := f.hold(t, s1, "a")
	f.clock.Advance(DefaultHoldTTL)

	conflicts, err := f.holds.Verify(ctx, VerifyInput{SeatIDs: []string{s1}})
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	fresh := f.hold(t, s1, "b")
	assert.NotEqual(t, old.HoldToken, fresh.HoldToken)

	// the expired token is gone
	err = f.holds.Release(ctx, old.HoldToken)
	requireCode(t, err, CodeReleaseFailed)
}

func TestHoldCreate_ReservedSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := f.seats[0].ID
	require.NoError(t, f.store.Reservations().Create(ctx, &model.Reservation{ID: uuid.NewString(), CreatedAt: f.clock.Now()}, []string{s1}))

	_, err := f.holds.Create(ctx, CreateHoldInput{SeatID: s1, SessionHint: "a"})
	requireCode(t, err, CodeSeatAlreadyReserved)
}

func TestHoldCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []CreateHoldInput{
		{SeatID: "not-a-uuid"},
		{SeatID: f.seats[0].ID, TTLSeconds: intPtr(0)},
		{SeatID: f.seats[0].ID, TTLSeconds: intPtr(3601)},
		{SeatID: f.seats[0].ID, SessionHint: string(make([]byte, 129))},
	}
	for _, in := range cases {
		_, err := f.holds.Create(ctx, in)
		se := requireCode(t, err, CodeInvalidPayload)
		assert.Equal(t, http.StatusBadRequest, se.Status)
		assert.NotEmpty(t, se.Details)
	}

	_, err := f.holds.Create(ctx, CreateHoldInput{SeatID: uuid.NewString()})
	se := requireCode(t, err, CodeSeatNotFound)
	assert.Equal(t, http.StatusNotFound, se.Status)
}

func TestHoldCreate_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	s1 := f.seats[0].ID

	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, held := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.holds.Create(context.Background(), CreateHoldInput{SeatID: s1, SessionHint: uuid.NewString()})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			if se, ok := AsError(err); ok && se.Code == CodeSeatAlreadyHeld {
				held++
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, held)
}

func TestHoldRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.hold(t, f.seats[0].ID, "a")

	require.NoError(t, f.holds.Release(ctx, h.HoldToken))
	se := requireCode(t, f.holds.Release(ctx, h.HoldToken), CodeReleaseFailed)
	assert.Equal(t, http.StatusNotFound, se.Status)

	requireCode(t, f.holds.Release(ctx, "nope"), CodeInvalidPayload)
}

func TestHoldVerify_InputOrderAndReservedFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1, s2, s3 := f.seats[0].ID, f.seats[1].ID, f.seats[2].ID

	f.hold(t, s1, "a")
	f.hold(t, s3, "a")
	require.NoError(t, f.store.Reservations().Create(ctx, &model.Reservation{ID: uuid.NewString(), CreatedAt: f.clock.Now()}, []string{s3}))

	conflicts, err := f.holds.Verify(ctx, VerifyInput{SeatIDs: []string{s3, s2, s1}})
	require.NoError(t, err)
	assert.Equal(t, []model.HoldConflict{
		{SeatID: s3, Status: model.SeatReserved},
		{SeatID: s1, Status: model.SeatHeld},
	}, conflicts)

	_, err = f.holds.Verify(ctx, VerifyInput{})
	requireCode(t, err, CodeInvalidPayload)
	_, err = f.holds.Verify(ctx, VerifyInput{SeatIDs: []string{"x"}})
	requireCode(t, err, CodeInvalidPayload)
}
