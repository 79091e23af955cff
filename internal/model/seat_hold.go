package model

import "time"

// SeatHold represents a temporary, token-authenticated claim on a
// single seat.  At most one row exists per seat; a hold is live while
// ExpiresAt is after the current time and is treated exactly like a
// missing row once it has expired.
//
// Fields:
//  ID          - UUID primary key.
//  SeatID      - seat being held (unique).
//  HoldToken   - opaque token returned to the client as proof of ownership.
//  SessionHint - optional client identifier allowing renewal without the token.
//  ExpiresAt   - when the hold stops being live.
//  CreatedAt   - when the hold was created.
//  UpdatedAt   - last renewal.
type SeatHold struct {
	ID          string    // seat_holds.id
	SeatID      string    // seat_holds.seat_id
	HoldToken   string    // seat_holds.hold_token
	SessionHint string    // seat_holds.session_hint (nullable, "" when unset)
	ExpiresAt   time.Time // seat_holds.expires_at
	CreatedAt   time.Time // seat_holds.created_at
	UpdatedAt   time.Time // seat_holds.updated_at
}

// LiveAt reports whether the hold is still in force at t.
func (h SeatHold) LiveAt(t time.Time) bool { return h.ExpiresAt.After(t) }

// HoldResult is returned to the client after a hold is created or renewed.
type HoldResult struct {
	HoldToken string    `json:"holdToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HoldConflict reports a seat that is not available for reservation.
type HoldConflict struct {
	SeatID string     `json:"seatId"`
	Status SeatStatus `json:"status"`
}
