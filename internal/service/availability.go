package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/repository"
)

// AvailabilityService derives seat statuses and per-grade counts from the
// seat layout, the reservations and the live holds.  It never writes.
type AvailabilityService struct {
	concerts     ConcertStore
	seats        SeatStore
	holds        HoldStore
	reservations ReservationStore
	validate     *validator.Validate
	logger       *log.Logger
	now          Clock
}

// NewAvailabilityService builds the resolver over st.
func NewAvailabilityService(st Stores, logger *log.Logger) *AvailabilityService {
	return &AvailabilityService{
		concerts:     st.Concerts,
		seats:        st.Seats,
		holds:        st.Holds,
		reservations: st.Reservations,
		validate:     newValidator(),
		logger:       logger,
	}
}

// ListConcertsInput carries the optional sort parameters of the concert
// listing.  Empty values select eventAt ascending.
type ListConcertsInput struct {
	SortBy    string `json:"sortBy" query:"sortBy" validate:"omitempty,oneof=eventAt title venue"`
	SortOrder string `json:"sortOrder" query:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// ListConcerts returns every concert with its seat capacity and the
// number of reserved seats.
func (s *AvailabilityService) ListConcerts(ctx context.Context, in ListConcertsInput) ([]model.ConcertSummary, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, invalidParams(fieldErrors(err))
	}
	sortBy := model.SortByEventAt
	if in.SortBy != "" {
		sortBy = model.ConcertSortField(in.SortBy)
	}
	concerts, err := s.concerts.List(ctx, sortBy, in.SortOrder == "desc")
	if err != nil {
		return nil, s.fetchFailed("list concerts", err)
	}
	ids := make([]string, len(concerts))
	for i, c := range concerts {
		ids[i] = c.ID
	}
	capacity, err := s.seats.CountByConcerts(ctx, ids)
	if err != nil {
		return nil, s.fetchFailed("count seats", err)
	}
	applied, err := s.reservations.CountByConcerts(ctx, ids)
	if err != nil {
		return nil, s.fetchFailed("count reservations", err)
	}
	out := make([]model.ConcertSummary, 0, len(concerts))
	for _, c := range concerts {
		out = append(out, model.ConcertSummary{
			ID:           c.ID,
			Title:        c.Title,
			EventAt:      c.EventAt,
			Venue:        c.Venue,
			AppliedCount: applied[c.ID],
			Capacity:     capacity[c.ID],
		})
	}
	return out, nil
}

// seatSnapshot is the state of every seat of one concert at one instant.
type seatSnapshot struct {
	seats    []model.Seat
	grades   []model.SeatGrade
	reserved map[string]bool
	held     map[string]bool
}

func (s *AvailabilityService) snapshot(ctx context.Context, concertID string) (*seatSnapshot, error) {
	now := s.now.read()
	seats, err := s.seats.ListByConcert(ctx, concertID)
	if err != nil {
		return nil, err
	}
	grades, err := s.seats.ListGrades(ctx, concertID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.reservations.ReservedSeatIDsByConcert(ctx, concertID)
	if err != nil {
		return nil, err
	}
	live, err := s.holds.ListLiveByConcert(ctx, concertID, now)
	if err != nil {
		return nil, err
	}
	held := make(map[string]bool, len(live))
	for _, h := range live {
		if h.LiveAt(now) && !reserved[h.SeatID] {
			held[h.SeatID] = true
		}
	}
	return &seatSnapshot{seats: seats, grades: grades, reserved: reserved, held: held}, nil
}

func (snap *seatSnapshot) status(seatID string) model.SeatStatus {
	switch {
	case snap.reserved[seatID]:
		return model.SeatReserved
	case snap.held[seatID]:
		return model.SeatHeld
	default:
		return model.SeatAvailable
	}
}

// ConcertDetail returns a concert with per-grade availability.
func (s *AvailabilityService) ConcertDetail(ctx context.Context, concertID string) (*model.ConcertDetail, error) {
	if !validateUUID(s.validate, concertID) {
		return nil, invalidParams([]FieldError{{Field: "concertId", Rule: "uuid"}})
	}
	c, err := s.concerts.GetByID(ctx, concertID)
	if err != nil {
		if errors.Is(err, repository.ErrConcertNotFound) {
			return nil, newError(http.StatusNotFound, CodeConcertNotFound, "concert not found")
		}
		return nil, s.fetchFailed("get concert", err)
	}
	snap, err := s.snapshot(ctx, concertID)
	if err != nil {
		return nil, s.fetchFailed("seat snapshot", err)
	}

	total := make(map[string]int)
	reserved := make(map[string]int)
	held := make(map[string]int)
	applied := 0
	for _, seat := range snap.seats {
		total[seat.GradeID]++
		switch snap.status(seat.ID) {
		case model.SeatReserved:
			reserved[seat.GradeID]++
			applied++
		case model.SeatHeld:
			held[seat.GradeID]++
		}
	}

	grades := make([]model.GradeAvailability, 0, len(snap.grades))
	for _, g := range snap.grades {
		grades = append(grades, model.GradeAvailability{
			GradeID:   g.ID,
			GradeCode: g.GradeCode,
			GradeName: GradeName(g.GradeCode),
			Price:     g.Price,
			Total:     total[g.ID],
			Reserved:  reserved[g.ID],
			Held:      held[g.ID],
			Available: max(total[g.ID]-reserved[g.ID]-held[g.ID], 0),
		})
	}
	return &model.ConcertDetail{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		EventAt:      c.EventAt,
		Venue:        c.Venue,
		Capacity:     len(snap.seats),
		AppliedCount: applied,
		Grades:       grades,
	}, nil
}

// SeatMap returns every seat of a concert with its status, ordered by
// zone, row and number.  An unknown concert yields an empty map.
func (s *AvailabilityService) SeatMap(ctx context.Context, concertID string) (*model.SeatMap, error) {
	if !validateUUID(s.validate, concertID) {
		return nil, invalidParams([]FieldError{{Field: "concertId", Rule: "uuid"}})
	}
	snap, err := s.snapshot(ctx, concertID)
	if err != nil {
		return nil, s.fetchFailed("seat snapshot", err)
	}
	codes := make(map[string]string, len(snap.grades))
	for _, g := range snap.grades {
		codes[g.ID] = g.GradeCode
	}
	cells := make([]model.SeatMapCell, 0, len(snap.seats))
	for _, seat := range snap.seats {
		cells = append(cells, model.SeatMapCell{
			SeatID:     seat.ID,
			GradeID:    seat.GradeID,
			GradeCode:  codes[seat.GradeID],
			Zone:       seat.Zone,
			RowLabel:   seat.RowLabel,
			SeatNumber: seat.SeatNumber,
			Status:     snap.status(seat.ID),
		})
	}
	return &model.SeatMap{ConcertID: concertID, Seats: cells}, nil
}

// Statuses reports, in input order, every seat that is reserved or held
// by a hold live at now.  Available seats are omitted.
func (s *AvailabilityService) Statuses(ctx context.Context, seatIDs []string, now time.Time) ([]model.HoldConflict, error) {
	reserved, err := s.reservations.ReservedSeatIDs(ctx, seatIDs)
	if err != nil {
		return nil, err
	}
	holds, err := s.holds.ListBySeats(ctx, seatIDs)
	if err != nil {
		return nil, err
	}
	held := make(map[string]bool, len(holds))
	for _, h := range holds {
		if h.LiveAt(now) {
			held[h.SeatID] = true
		}
	}
	out := make([]model.HoldConflict, 0)
	for _, id := range seatIDs {
		switch {
		case reserved[id]:
			out = append(out, model.HoldConflict{SeatID: id, Status: model.SeatReserved})
		case held[id]:
			out = append(out, model.HoldConflict{SeatID: id, Status: model.SeatHeld})
		}
	}
	return out, nil
}

func (s *AvailabilityService) fetchFailed(op string, err error) *Error {
	s.logger.Errorf("availability: %s: %v", op, err)
	return storeFailure(CodeFetchFailed, "failed to fetch concert data", err)
}

// GradeName turns a grade code such as "VIP_FLOOR" into "Vip Floor".
func GradeName(code string) string {
	parts := strings.Split(strings.ToLower(code), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
