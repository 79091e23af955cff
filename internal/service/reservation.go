package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/queue"
	"github.com/iliyamo/concert-seat-reservation/internal/repository"
	"github.com/iliyamo/concert-seat-reservation/internal/utils"
)

// DefaultMaxSeats caps the number of selections in one reservation.
const DefaultMaxSeats = 4

const publishTimeout = 5 * time.Second

// ReservationService converts held seats into permanent reservations and
// serves reservation summaries and phone/PIN lookups.
type ReservationService struct {
	concerts     ConcertStore
	seats        SeatStore
	holds        HoldStore
	reservations ReservationStore
	publisher    EventPublisher
	maxSeats     int
	validate     *validator.Validate
	logger       *log.Logger
	now          Clock
}

// NewReservationService builds the committer.  publisher may be nil, in
// which case no events are sent.  A non-positive maxSeats selects
// DefaultMaxSeats.
func NewReservationService(st Stores, publisher EventPublisher, maxSeats int, logger *log.Logger) *ReservationService {
	if maxSeats <= 0 {
		maxSeats = DefaultMaxSeats
	}
	return &ReservationService{
		concerts:     st.Concerts,
		seats:        st.Seats,
		holds:        st.Holds,
		reservations: st.Reservations,
		publisher:    publisher,
		maxSeats:     maxSeats,
		validate:     newValidator(),
		logger:       logger,
	}
}

// Selection pairs a seat with the hold token that claims it.
type Selection struct {
	SeatID    string `json:"seatId" validate:"required,uuid"`
	HoldToken string `json:"holdToken" validate:"required,uuid"`
}

// CreateReservationInput is the body of POST /api/reservations.
type CreateReservationInput struct {
	ConcertID    string      `json:"concertId" validate:"required,uuid"`
	ReserverName string      `json:"reserverName" validate:"min=2,max=50"`
	PhoneNumber  string      `json:"phoneNumber" validate:"required,phone"`
	PIN          string      `json:"pin" validate:"required,pin"`
	Selections   []Selection `json:"selections" validate:"required,min=1,unique=SeatID,dive"`
}

// Create validates the selections against the live holds and commits the
// reservation in one step.  Consumed holds are deleted afterwards and a
// reservation.confirmed event is published in the background.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (*model.ReservationSummary, error) {
	in.PhoneNumber = utils.NormalizePhone(in.PhoneNumber)
	if verr := validateStruct(s.validate, in); verr != nil {
		return nil, verr
	}
	if len(in.Selections) > s.maxSeats {
		return nil, invalidPayload([]FieldError{{Field: "selections", Rule: "max", Param: strconv.Itoa(s.maxSeats)}})
	}

	concert, err := s.concerts.GetByID(ctx, in.ConcertID)
	if err != nil {
		if errors.Is(err, repository.ErrConcertNotFound) {
			return nil, newError(http.StatusNotFound, CodeConcertNotFound, "concert not found")
		}
		return nil, s.creationFailed("get concert", err)
	}

	seatIDs := make([]string, len(in.Selections))
	for i, sel := range in.Selections {
		seatIDs[i] = sel.SeatID
	}
	seats, err := s.seats.ListWithGrades(ctx, seatIDs)
	if err != nil {
		return nil, s.creationFailed("load seats", err)
	}
	if len(seats) != len(seatIDs) {
		return nil, &Error{Status: http.StatusNotFound, Code: CodeSeatNotFound, Message: "one or more seats do not exist",
			Details: map[string]any{"missingSeatIds": missingSeats(seatIDs, seats)}}
	}
	for _, seat := range seats {
		if seat.ConcertID != in.ConcertID {
			return nil, invalidPayload([]FieldError{{Field: "selections", Rule: "concert", Param: seat.ID}})
		}
	}

	reserved, err := s.reservations.ReservedSeatIDs(ctx, seatIDs)
	if err != nil {
		return nil, s.creationFailed("check reservations", err)
	}
	for _, id := range seatIDs {
		if reserved[id] {
			return nil, seatConflict(id)
		}
	}

	if err := s.checkHolds(ctx, in.Selections); err != nil {
		return nil, err
	}

	var total int64
	for _, seat := range seats {
		total += seat.Price
	}

	pinHash, err := utils.HashPIN(in.PIN)
	if err != nil {
		return nil, s.creationFailed("hash pin", err)
	}
	res := &model.Reservation{
		ID:           uuid.NewString(),
		ReserverName: in.ReserverName,
		PhoneNumber:  in.PhoneNumber,
		PINHash:      pinHash,
		TotalAmount:  total,
		CreatedAt:    s.now.read(),
	}
	if err := s.reservations.Create(ctx, res, seatIDs); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &Error{Status: http.StatusConflict, Code: CodeSeatConflict, Message: "seat was reserved concurrently", Err: err}
		}
		return nil, s.creationFailed("commit reservation", err)
	}

	tokens := make([]string, len(in.Selections))
	for i, sel := range in.Selections {
		tokens[i] = sel.HoldToken
	}
	if _, err := s.holds.DeleteByTokens(ctx, tokens); err != nil {
		s.logger.Warnf("reservations: release consumed holds of %s: %v", res.ID, err)
	}

	summary := buildSummary(res, concert, seats)
	s.publish(ctx, summary)
	return summary, nil
}

// checkHolds runs the per-selection hold checks in selection order.  A
// missing or foreign hold on a seat that has since been reserved is
// reported as SEAT_CONFLICT.
func (s *ReservationService) checkHolds(ctx context.Context, selections []Selection) error {
	now := s.now.read()
	seatIDs := make([]string, len(selections))
	for i, sel := range selections {
		seatIDs[i] = sel.SeatID
	}
	holds, err := s.holds.ListBySeats(ctx, seatIDs)
	if err != nil {
		return s.creationFailed("load holds", err)
	}
	bySeat := make(map[string]model.SeatHold, len(holds))
	for _, h := range holds {
		bySeat[h.SeatID] = h
	}

	for _, sel := range selections {
		h, ok := bySeat[sel.SeatID]
		if !ok || h.HoldToken != sel.HoldToken {
			reserved, err := s.reservations.ReservedSeatIDs(ctx, []string{sel.SeatID})
			if err != nil {
				return s.creationFailed("recheck reservation", err)
			}
			if reserved[sel.SeatID] {
				return seatConflict(sel.SeatID)
			}
			if !ok {
				return holdError(CodeHoldMissing, "seat has no hold", sel.SeatID)
			}
			return holdError(CodeHoldMismatch, "hold token does not match", sel.SeatID)
		}
		if !h.LiveAt(now) {
			return holdError(CodeHoldExpired, "hold has expired", sel.SeatID)
		}
	}
	return nil
}

func (s *ReservationService) publish(ctx context.Context, summary *model.ReservationSummary) {
	if s.publisher == nil {
		return
	}
	labels := make([]string, len(summary.Seats))
	for i, seat := range summary.Seats {
		labels[i] = fmt.Sprintf("%s-%s-%d", seat.Zone, seat.RowLabel, seat.SeatNumber)
	}
	ev := queue.ReservationConfirmedEvent{
		ReservationID: summary.ReservationID,
		ConcertID:     summary.ConcertID,
		ConcertTitle:  summary.ConcertTitle,
		Venue:         summary.Venue,
		EventAt:       summary.EventAt.Format(time.RFC3339),
		SeatLabels:    labels,
		TotalAmount:   summary.TotalAmount,
		ConfirmedAt:   summary.CreatedAt.Format(time.RFC3339),
	}
	pctx := context.WithoutCancel(ctx)
	go func() {
		tctx, cancel := context.WithTimeout(pctx, publishTimeout)
		defer cancel()
		if err := s.publisher.PublishReservationConfirmed(tctx, ev); err != nil {
			s.logger.Warnf("reservations: publish %s: %v", ev.ReservationID, err)
		}
	}()
}

// Summary returns the reservation with its seats and concert.
func (s *ReservationService) Summary(ctx context.Context, reservationID string) (*model.ReservationSummary, error) {
	if !validateUUID(s.validate, reservationID) {
		return nil, invalidPayload([]FieldError{{Field: "reservationId", Rule: "uuid"}})
	}
	notFound := newError(http.StatusNotFound, CodeSummaryFailed, "reservation not found")

	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, notFound
		}
		return nil, s.summaryFailed("get reservation", err)
	}
	seatsByRes, err := s.reservations.SeatsByReservations(ctx, []string{res.ID})
	if err != nil {
		return nil, s.summaryFailed("load seats", err)
	}
	seats := seatsByRes[res.ID]
	if len(seats) == 0 {
		return nil, notFound
	}
	concert, err := s.concerts.GetByID(ctx, seats[0].ConcertID)
	if err != nil {
		if errors.Is(err, repository.ErrConcertNotFound) {
			return nil, notFound
		}
		return nil, s.summaryFailed("get concert", err)
	}
	return buildSummary(res, concert, seats), nil
}

// LookupInput is the body of POST /api/reservations/lookup.
type LookupInput struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	PIN         string `json:"pin" validate:"required,pin"`
}

// Lookup returns every reservation made with the phone number whose PIN
// verifies, newest first.  An unknown phone and a wrong PIN fail the
// same way.
func (s *ReservationService) Lookup(ctx context.Context, in LookupInput) ([]model.ReservationSummary, error) {
	in.PhoneNumber = utils.NormalizePhone(in.PhoneNumber)
	if verr := validateStruct(s.validate, in); verr != nil {
		return nil, verr
	}
	authFailed := newError(http.StatusNotFound, CodeAuthFailed, "no reservation matches the phone number and PIN")

	candidates, err := s.reservations.ListByPhone(ctx, in.PhoneNumber)
	if err != nil {
		return nil, s.lookupFailed("list by phone", err)
	}
	if len(candidates) == 0 {
		utils.BurnPINDerivation(in.PIN)
		return nil, authFailed
	}

	verified := make([]model.Reservation, 0, len(candidates))
	for _, res := range candidates {
		ok, err := utils.VerifyPIN(res.PINHash, in.PIN)
		if err != nil {
			s.logger.Warnf("reservations: verify pin of %s: %v", res.ID, err)
			continue
		}
		if ok {
			verified = append(verified, res)
		}
	}
	if len(verified) == 0 {
		return nil, authFailed
	}

	ids := make([]string, len(verified))
	for i, res := range verified {
		ids[i] = res.ID
	}
	seatsByRes, err := s.reservations.SeatsByReservations(ctx, ids)
	if err != nil {
		return nil, s.lookupFailed("load seats", err)
	}
	concertIDs := make([]string, 0, len(verified))
	seen := make(map[string]bool)
	for _, seats := range seatsByRes {
		if len(seats) > 0 && !seen[seats[0].ConcertID] {
			seen[seats[0].ConcertID] = true
			concertIDs = append(concertIDs, seats[0].ConcertID)
		}
	}
	concerts, err := s.concerts.ListByIDs(ctx, concertIDs)
	if err != nil {
		return nil, s.lookupFailed("load concerts", err)
	}
	byID := make(map[string]*model.Concert, len(concerts))
	for i := range concerts {
		byID[concerts[i].ID] = &concerts[i]
	}

	out := make([]model.ReservationSummary, 0, len(verified))
	for i := range verified {
		seats := seatsByRes[verified[i].ID]
		if len(seats) == 0 {
			continue
		}
		concert, ok := byID[seats[0].ConcertID]
		if !ok {
			continue
		}
		out = append(out, *buildSummary(&verified[i], concert, seats))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func buildSummary(res *model.Reservation, concert *model.Concert, seats []model.SeatWithGrade) *model.ReservationSummary {
	sorted := append([]model.SeatWithGrade(nil), seats...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Zone != b.Zone {
			return a.Zone < b.Zone
		}
		if a.RowLabel != b.RowLabel {
			return a.RowLabel < b.RowLabel
		}
		return a.SeatNumber < b.SeatNumber
	})
	lines := make([]model.ReservedSeat, len(sorted))
	for i, seat := range sorted {
		lines[i] = model.ReservedSeat{
			SeatID:     seat.ID,
			Zone:       seat.Zone,
			RowLabel:   seat.RowLabel,
			SeatNumber: seat.SeatNumber,
			GradeID:    seat.GradeID,
			GradeCode:  seat.GradeCode,
			Price:      seat.Price,
		}
	}
	return &model.ReservationSummary{
		ReservationID: res.ID,
		ConcertID:     concert.ID,
		ConcertTitle:  concert.Title,
		EventAt:       concert.EventAt,
		Venue:         concert.Venue,
		ReserverName:  res.ReserverName,
		MaskedPhone:   utils.MaskPhone(res.PhoneNumber),
		Seats:         lines,
		TotalAmount:   res.TotalAmount,
		CreatedAt:     res.CreatedAt,
	}
}

func missingSeats(want []string, found []model.SeatWithGrade) []string {
	have := make(map[string]bool, len(found))
	for _, s := range found {
		have[s.ID] = true
	}
	out := make([]string, 0)
	for _, id := range want {
		if !have[id] {
			out = append(out, id)
		}
	}
	return out
}

func seatConflict(seatID string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeSeatConflict, Message: "seat is already reserved",
		Details: map[string]string{"seatId": seatID}}
}

func holdError(code Code, msg, seatID string) *Error {
	return &Error{Status: http.StatusConflict, Code: code, Message: msg, Details: map[string]string{"seatId": seatID}}
}

func (s *ReservationService) creationFailed(op string, err error) *Error {
	s.logger.Errorf("reservations: %s: %v", op, err)
	return storeFailure(CodeCreationFailed, "failed to create reservation", err)
}

func (s *ReservationService) summaryFailed(op string, err error) *Error {
	s.logger.Errorf("reservations: summary: %s: %v", op, err)
	return storeFailure(CodeSummaryFailed, "failed to load reservation", err)
}

func (s *ReservationService) lookupFailed(op string, err error) *Error {
	s.logger.Errorf("reservations: lookup: %s: %v", op, err)
	return storeFailure(CodeLookupFailed, "failed to look up reservations", err)
}
