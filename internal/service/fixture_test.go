package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/queue"
	"github.com/iliyamo/concert-seat-reservation/internal/repository/memory"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakePublisher struct {
	events chan queue.ReservationConfirmedEvent
}

func (p *fakePublisher) PublishReservationConfirmed(_ context.Context, ev queue.ReservationConfirmedEvent) error {
	p.events <- ev
	return nil
}

type fixture struct {
	store     *memory.Store
	concertID string
	otherID   string
	seats     []model.Seat
	clock     *fakeClock
	pub       *fakePublisher

	avail *AvailabilityService
	holds *HoldService
	res   *ReservationService
}

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.New()
	ids := memory.SeedDemo(store, clock.Now(), 1, 2)
	require.Len(t, ids, 2)

	st := Stores{
		Concerts:     store.Concerts(),
		Seats:        store.Seats(),
		Holds:        store.Holds(),
		Reservations: store.Reservations(),
	}
	logger := quietLogger()
	pub := &fakePublisher{events: make(chan queue.ReservationConfirmedEvent, 16)}

	avail := NewAvailabilityService(st, logger)
	avail.now = clock.Now
	holds := NewHoldService(st, avail, 0, logger)
	holds.now = clock.Now
	res := NewReservationService(st, pub, 0, logger)
	res.now = clock.Now

	seats, err := store.Seats().ListByConcert(context.Background(), ids[0])
	require.NoError(t, err)
	require.Len(t, seats, 8)

	return &fixture{
		store:     store,
		concertID: ids[0],
		otherID:   ids[1],
		seats:     seats,
		clock:     clock,
		pub:       pub,
		avail:     avail,
		holds:     holds,
		res:       res,
	}
}

func (f *fixture) hold(t *testing.T, seatID, hint string) *model.HoldResult {
	t.Helper()
	res, err := f.holds.Create(context.Background(), CreateHoldInput{SeatID: seatID, SessionHint: hint})
	require.NoError(t, err)
	return res
}

func requireCode(t *testing.T, err error, code Code) *Error {
	t.Helper()
	require.Error(t, err)
	se, ok := AsError(err)
	require.True(t, ok, "expected *service.Error, got %T: %v", err, err)
	require.Equal(t, code, se.Code, se.Error())
	return se
}

func intPtr(v int) *int { return &v }
