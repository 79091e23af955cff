// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// service package to distinguish between different failure scenarios
// without inspecting driver errors. For example, ErrDuplicate signals
// that an insert lost a race against a unique index, which is how the
// at-most-one-hold and at-most-one-reservation guarantees surface.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrConcertNotFound     = errors.New("concert not found")
	ErrSeatNotFound        = errors.New("seat not found")
	ErrHoldNotFound        = errors.New("hold not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

// ErrDuplicate is returned when an insert violates a unique index, such
// as a second hold row for the same seat or a seat that already belongs
// to a reservation. Callers translate this into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate key")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// inClause builds "?,?,?" for len(ids) placeholders along with the
// matching argument slice.
func inClause(ids []string) (string, []interface{}) {
	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	return strings.Join(placeholders, ","), args
}
