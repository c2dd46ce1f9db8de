package model

import "strings"

// StartCursor requests a market's history from the beginning.
const StartCursor Cursor = "0"

// Cursor is an opaque position in a market's trade history.
//
// Cursors made only of decimal digits (trade ids, nanosecond timestamps)
// are ordered numerically; any other cursor is ordered as a plain string.
type Cursor string

// Compare returns -1, 0 or +1 depending on whether c sorts before, equal to
// or after other.
func (c Cursor) Compare(other Cursor) int {
	a, b := string(c), string(other)
	if isDigits(a) && isDigits(b) {
		a, b = trimZeros(a), trimZeros(b)
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(a, b)
}

// Less reports whether c sorts before other.
func (c Cursor) Less(other Cursor) bool {
	return c.Compare(other) < 0
}

// IsStart reports whether c is the sentinel start cursor.
func (c Cursor) IsStart() bool {
	return c == "" || c.Compare(StartCursor) == 0
}

func (c Cursor) String() string {
	return string(c)
}

// MaxCursor returns the later of a and b.
func MaxCursor(a, b Cursor) Cursor {
	if a.Less(b) {
		return b
	}
	return a
}

// MinCursor returns the earlier of a and b.
func MinCursor(a, b Cursor) Cursor {
	if b.Less(a) {
		return b
	}
	return a
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func trimZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return "0"
	}
	return t
}
