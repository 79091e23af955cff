package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// demoGrades lists grade code, price and the zone its seats live in.
var demoGrades = []struct {
	code  string
	price int64
	zone  string
}{
	{"SPECIAL", 220000, "A"},
	{"PREMIUM", 180000, "B"},
	{"ADVANCED", 150000, "C"},
	{"REGULAR", 110000, "D"},
}

// SeedDemo fills s with two concerts, four grades each and rows x perRow
// seats per grade.  It returns the created concert ids.
func SeedDemo(s *Store, now time.Time, rows, perRow int) []string {
	titles := []struct{ title, venue string }{
		{"Spring Symphony Night", "Seoul Arts Center"},
		{"Indie Rock Live", "Olympic Hall"},
	}
	ids := make([]string, 0, len(titles))
	for i, t := range titles {
		c := model.Concert{
			ID:        uuid.NewString(),
			Title:     t.title,
			EventAt:   now.AddDate(0, 0, 14*(i+1)).UTC().Truncate(time.Minute),
			Venue:     t.venue,
			CreatedAt: now.UTC(),
		}
		s.AddConcert(c)
		ids = append(ids, c.ID)
		for _, g := range demoGrades {
			grade := model.SeatGrade{ID: uuid.NewString(), ConcertID: c.ID, GradeCode: g.code, Price: g.price}
			s.AddGrade(grade)
			for r := 0; r < rows; r++ {
				for n := 1; n <= perRow; n++ {
					s.AddSeat(model.Seat{
						ID:         uuid.NewString(),
						ConcertID:  c.ID,
						GradeID:    grade.ID,
						Zone:       g.zone,
						RowLabel:   fmt.Sprintf("%c", 'A'+r),
						SeatNumber: n,
					})
				}
			}
		}
	}
	return ids
}
