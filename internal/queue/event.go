// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer.
package queue

// ReservationQueue is the durable queue carrying confirmed reservations.
const ReservationQueue = "reservation.confirmed"

// ReservationConfirmedEvent is published after a reservation commits.  It
// carries enough for downstream consumers to log or notify without
// querying the primary database.  The reserver's phone number and PIN are
// never part of the payload.
type ReservationConfirmedEvent struct {
	ReservationID string   `json:"reservation_id"`
	ConcertID     string   `json:"concert_id"`
	ConcertTitle  string   `json:"concert_title"`
	Venue         string   `json:"venue"`
	EventAt       string   `json:"event_at"`
	SeatLabels    []string `json:"seats"`
	TotalAmount   int64    `json:"total_amount"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
