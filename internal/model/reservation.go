package model

import "time"

// Reservation is a permanent claim on one or more seats together with
// the reserver's contact details.  Reservations are never updated.
//
// Fields:
//  ID           - UUID primary key.
//  ReserverName - name entered at checkout.
//  PhoneNumber  - digits-only phone number used for lookup.
//  PINHash      - "salt:derived" scrypt hash of the 4 digit PIN.
//  TotalAmount  - sum of the seat prices in minor currency units.
//  CreatedAt    - creation timestamp.
type Reservation struct {
	ID           string    // reservations.id
	ReserverName string    // reservations.reserver_name
	PhoneNumber  string    // reservations.phone_number
	PINHash      string    // reservations.pin_hash
	TotalAmount  int64     // reservations.total_amount
	CreatedAt    time.Time // reservations.created_at
}

// ReservationSeat links a reservation to a seat.  seat_id is unique
// across the table so a seat can only ever be reserved once.
type ReservationSeat struct {
	ReservationID string // reservation_seats.reservation_id
	SeatID        string // reservation_seats.seat_id
}

// ReservedSeat is a seat line in a reservation summary.
type ReservedSeat struct {
	SeatID     string `json:"seatId"`
	Zone       string `json:"zone"`
	RowLabel   string `json:"rowLabel"`
	SeatNumber int    `json:"seatNumber"`
	GradeID    string `json:"gradeId"`
	GradeCode  string `json:"gradeCode"`
	Price      int64  `json:"price"`
}

// ReservationSummary is the client-facing view of a reservation.  The
// phone number is always masked.
type ReservationSummary struct {
	ReservationID string         `json:"reservationId"`
	ConcertID     string         `json:"concertId"`
	ConcertTitle  string         `json:"concertTitle"`
	EventAt       time.Time      `json:"eventAt"`
	Venue         string         `json:"venue"`
	ReserverName  string         `json:"reserverName"`
	MaskedPhone   string         `json:"maskedPhone"`
	Seats         []ReservedSeat `json:"seats"`
	TotalAmount   int64          `json:"totalAmount"`
	CreatedAt     time.Time      `json:"createdAt"`
}
