package service

import "time"

// Clock returns the current time.  Each operation reads it once and uses
// that instant for every expiry comparison it makes.
type Clock func() time.Time

// read returns the clock reading in UTC truncated to milliseconds, the
// precision of the DATETIME(3) columns.
func (c Clock) read() time.Time {
	t := time.Now()
	if c != nil {
		t = c()
	}
	return t.UTC().Truncate(time.Millisecond)
}
