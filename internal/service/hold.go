package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/repository"
)

// DefaultHoldTTL is how long a hold stays live when neither the request
// nor the configuration says otherwise.  Creation and renewal share it.
const DefaultHoldTTL = 300 * time.Second

// errRenewRaced signals that a live hold vanished between the read and
// the extend; the caller re-runs the whole decision.
var errRenewRaced = errors.New("hold changed during renew")

// HoldService is the hold ledger: it places, renews, releases and checks
// temporary seat claims.
type HoldService struct {
	holds        HoldStore
	seats        SeatStore
	reservations ReservationStore
	resolver     *AvailabilityService
	ttl          time.Duration
	validate     *validator.Validate
	logger       *log.Logger
	now          Clock
}

// NewHoldService builds the ledger.  A non-positive ttl selects
// DefaultHoldTTL.
func NewHoldService(st Stores, resolver *AvailabilityService, ttl time.Duration, logger *log.Logger) *HoldService {
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	return &HoldService{
		holds:        st.Holds,
		seats:        st.Seats,
		reservations: st.Reservations,
		resolver:     resolver,
		ttl:          ttl,
		validate:     newValidator(),
		logger:       logger,
	}
}

// CreateHoldInput is the body of POST /api/holds.
type CreateHoldInput struct {
	SeatID      string `json:"seatId" validate:"required,uuid"`
	SessionHint string `json:"sessionHint" validate:"max=128"`
	TTLSeconds  *int   `json:"ttlSeconds" validate:"omitempty,min=1,max=3600"`
}

// Create places a hold on a seat, or renews the caller's own live hold
// when the same non-empty session hint asks again.
func (s *HoldService) Create(ctx context.Context, in CreateHoldInput) (*model.HoldResult, error) {
	if verr := validateStruct(s.validate, in); verr != nil {
		return nil, verr
	}
	ttl := s.ttl
	if in.TTLSeconds != nil {
		ttl = time.Duration(*in.TTLSeconds) * time.Second
	}

	if _, err := s.seats.GetByID(ctx, in.SeatID); err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return nil, newError(http.StatusNotFound, CodeSeatNotFound, "seat not found")
		}
		return nil, s.creationFailed("get seat", err)
	}
	reserved, err := s.reservations.ReservedSeatIDs(ctx, []string{in.SeatID})
	if err != nil {
		return nil, s.creationFailed("check reservation", err)
	}
	if reserved[in.SeatID] {
		return nil, newError(http.StatusConflict, CodeSeatAlreadyReserved, "seat is already reserved")
	}

	res, err := s.tryHold(ctx, in, ttl)
	if errors.Is(err, errRenewRaced) {
		res, err = s.tryHold(ctx, in, ttl)
	}
	if errors.Is(err, errRenewRaced) {
		return nil, newError(http.StatusConflict, CodeSeatAlreadyHeld, "seat is held by another session")
	}
	return res, err
}

func (s *HoldService) tryHold(ctx context.Context, in CreateHoldInput, ttl time.Duration) (*model.HoldResult, error) {
	now := s.now.read()
	existing, err := s.holds.GetBySeat(ctx, in.SeatID)
	if err != nil && !errors.Is(err, repository.ErrHoldNotFound) {
		return nil, s.creationFailed("get hold", err)
	}

	if existing != nil && existing.LiveAt(now) {
		if in.SessionHint == "" || existing.SessionHint != in.SessionHint {
			return nil, newError(http.StatusConflict, CodeSeatAlreadyHeld, "seat is held by another session")
		}
		expiresAt := now.Add(ttl)
		if existing.ExpiresAt.After(expiresAt) {
			expiresAt = existing.ExpiresAt
		}
		if err := s.holds.Extend(ctx, existing.ID, now, expiresAt); err != nil {
			if errors.Is(err, repository.ErrHoldNotFound) {
				return nil, errRenewRaced
			}
			return nil, s.creationFailed("extend hold", err)
		}
		return &model.HoldResult{HoldToken: existing.HoldToken, ExpiresAt: expiresAt}, nil
	}

	if existing != nil {
		if err := s.holds.Delete(ctx, existing.ID); err != nil {
			return nil, s.creationFailed("delete stale hold", err)
		}
	}
	h := &model.SeatHold{
		ID:          uuid.NewString(),
		SeatID:      in.SeatID,
		HoldToken:   uuid.NewString(),
		SessionHint: in.SessionHint,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.holds.Create(ctx, h); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(http.StatusConflict, CodeSeatAlreadyHeld, "seat is held by another session")
		}
		return nil, s.creationFailed("insert hold", err)
	}
	return &model.HoldResult{HoldToken: h.HoldToken, ExpiresAt: h.ExpiresAt}, nil
}

// Release deletes the hold identified by token.  Releasing an unknown or
// already released token fails with RELEASE_FAILED (404).
func (s *HoldService) Release(ctx context.Context, token string) error {
	if !validateUUID(s.validate, token) {
		return invalidPayload([]FieldError{{Field: "holdToken", Rule: "uuid"}})
	}
	if err := s.holds.DeleteByToken(ctx, token); err != nil {
		if errors.Is(err, repository.ErrHoldNotFound) {
			return newError(http.StatusNotFound, CodeReleaseFailed, "hold not found")
		}
		s.logger.Errorf("holds: release: %v", err)
		return storeFailure(CodeReleaseFailed, "failed to release hold", err)
	}
	return nil
}

// VerifyInput is the body of POST /api/holds/verify.
type VerifyInput struct {
	SeatIDs []string `json:"seatIds" validate:"required,min=1,dive,required,uuid"`
}

// Verify lists the seats among in.SeatIDs that are reserved or held.
func (s *HoldService) Verify(ctx context.Context, in VerifyInput) ([]model.HoldConflict, error) {
	if verr := validateStruct(s.validate, in); verr != nil {
		return nil, verr
	}
	conflicts, err := s.resolver.Statuses(ctx, in.SeatIDs, s.now.read())
	if err != nil {
		s.logger.Errorf("holds: verify: %v", err)
		return nil, storeFailure(CodeVerificationFailed, "failed to verify seats", err)
	}
	return conflicts, nil
}

func (s *HoldService) creationFailed(op string, err error) *Error {
	s.logger.Errorf("holds: %s: %v", op, err)
	return storeFailure(CodeCreationFailed, "failed to create hold", err)
}
