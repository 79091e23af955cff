package model

// Seat describes a physical seat for a concert.  Seats are uniquely
// identified by their concert, zone, row label and seat number and
// never change once created.
//
// Fields:
//  ID         - UUID primary key.
//  ConcertID  - concert the seat belongs to.
//  GradeID    - price grade of the seat.
//  Zone       - venue zone (e.g. "A", "FLOOR").
//  RowLabel   - letter or string designating the row.
//  SeatNumber - number of the seat within the row.
type Seat struct {
	ID         string // seats.id
	ConcertID  string // seats.concert_id
	GradeID    string // seats.grade_id
	Zone       string // seats.zone
	RowLabel   string // seats.row_label
	SeatNumber int    // seats.seat_number
}

// SeatGrade is a price tier of a concert.  GradeCode is usually one of
// SPECIAL, PREMIUM, ADVANCED or REGULAR but custom codes are allowed.
// Price is expressed in minor currency units.
type SeatGrade struct {
	ID        string // seat_grades.id
	ConcertID string // seat_grades.concert_id
	GradeCode string // seat_grades.grade_code
	Price     int64  // seat_grades.price
}

// SeatWithGrade is a seat joined with its grade code and price.
type SeatWithGrade struct {
	Seat
	GradeCode string
	Price     int64
}

// SeatStatus is the derived availability of a seat at a point in time.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatHeld      SeatStatus = "held"
	SeatReserved  SeatStatus = "reserved"
)

// SeatMapCell is one seat in the seat map response.
type SeatMapCell struct {
	SeatID     string     `json:"seatId"`
	GradeID    string     `json:"gradeId"`
	GradeCode  string     `json:"gradeCode"`
	Zone       string     `json:"zone"`
	RowLabel   string     `json:"rowLabel"`
	SeatNumber int        `json:"seatNumber"`
	Status     SeatStatus `json:"status"`
}

// SeatMap lists every seat of a concert with its current status.
type SeatMap struct {
	ConcertID string        `json:"concertId"`
	Seats     []SeatMapCell `json:"seats"`
}
