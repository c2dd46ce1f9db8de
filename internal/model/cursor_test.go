package model

import "testing"

func TestCursor_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b Cursor
		want int
	}{
		{"equal numeric", "42", "42", 0},
		{"numeric shorter is smaller", "9", "10", -1},
		{"numeric longer is larger", "1616663618724505614", "999", 1},
		{"leading zeros ignored", "0007", "7", 0},
		{"start vs nanos", StartCursor, "1616663618724505614", -1},
		{"same length numeric", "123", "124", -1},
		{"non numeric string order", "abc", "abd", -1},
		{"mixed falls back to string order", "9", "a", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Compare(tt.a); got != -tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestCursor_IsStart(t *testing.T) {
	for _, c := range []Cursor{"", "0", "000"} {
		if !c.IsStart() {
			t.Errorf("%q.IsStart() = false, want true", c)
		}
	}
	if Cursor("1").IsStart() {
		t.Error(`"1".IsStart() = true, want false`)
	}
}

func TestMinMaxCursor(t *testing.T) {
	if got := MaxCursor("9", "10"); got != "10" {
		t.Errorf("MaxCursor = %q, want 10", got)
	}
	if got := MinCursor("9", "10"); got != "9" {
		t.Errorf("MinCursor = %q, want 9", got)
	}
}
