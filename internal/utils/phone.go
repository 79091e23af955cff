package utils

import "strings"

// NormalizePhone strips every non-digit character, so "010-1234-5678"
// becomes "01012345678".
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskPhone keeps the first three and last four digits and replaces the
// middle with "****".  Numbers shorter than seven digits are returned as is.
func MaskPhone(phone string) string {
	if len(phone) < 7 {
		return phone
	}
	return phone[:3] + "****" + phone[len(phone)-4:]
}
