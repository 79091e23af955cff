package model

import "time"

// Concert is a scheduled performance whose seats can be held and
// reserved.  It corresponds to a row in the `concerts` table.
//
// Fields:
//  ID          - UUID primary key.
//  Title       - display title of the concert.
//  Description - optional long description (empty when unset).
//  EventAt     - when the concert starts (UTC).
//  Venue       - where the concert takes place.
//  CreatedAt   - row creation timestamp.
type Concert struct {
	ID          string    // concerts.id
	Title       string    // concerts.title
	Description string    // concerts.description (nullable)
	EventAt     time.Time // concerts.event_at
	Venue       string    // concerts.venue
	CreatedAt   time.Time // concerts.created_at
}

// ConcertSortField names a column concerts can be ordered by in list
// responses.
type ConcertSortField string

const (
	SortByEventAt ConcertSortField = "eventAt"
	SortByTitle   ConcertSortField = "title"
	SortByVenue   ConcertSortField = "venue"
)

// ConcertSummary is one entry of the public concert list.
type ConcertSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	EventAt      time.Time `json:"eventAt"`
	Venue        string    `json:"venue"`
	AppliedCount int       `json:"appliedCount"`
	Capacity     int       `json:"capacity"`
}

// GradeAvailability aggregates seat counts for a single grade.  Available
// never goes below zero even if the underlying counts disagree.
type GradeAvailability struct {
	GradeID   string `json:"gradeId"`
	GradeCode string `json:"gradeCode"`
	GradeName string `json:"gradeName"`
	Price     int64  `json:"price"`
	Total     int    `json:"total"`
	Reserved  int    `json:"reserved"`
	Held      int    `json:"held"`
	Available int    `json:"available"`
}

// ConcertDetail is the concert detail view including per-grade availability.
type ConcertDetail struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	EventAt      time.Time           `json:"eventAt"`
	Venue        string              `json:"venue"`
	Capacity     int                 `json:"capacity"`
	AppliedCount int                 `json:"appliedCount"`
	Grades       []GradeAvailability `json:"grades"`
}
