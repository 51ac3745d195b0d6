package utils

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2020, 1, 17, hour, minute, 0, 0, time.UTC)
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"disjoint before", at(0, 0), at(1, 0), at(2, 0), at(3, 0), false},
		{"disjoint after", at(2, 0), at(3, 0), at(0, 0), at(1, 0), false},
		{"partial left", at(0, 0), at(2, 0), at(1, 0), at(3, 0), true},
		{"partial right", at(1, 0), at(3, 0), at(0, 0), at(2, 0), true},
		{"first contains second", at(0, 0), at(4, 0), at(1, 0), at(2, 0), true},
		{"second contains first", at(1, 0), at(2, 0), at(0, 0), at(4, 0), true},
		{"touching endpoints", at(0, 0), at(1, 0), at(1, 0), at(2, 0), true},
		{"identical", at(1, 0), at(2, 0), at(1, 0), at(2, 0), true},
		{"instant inside", at(1, 30), at(1, 30), at(1, 0), at(2, 0), true},
		{"one nanosecond apart", at(0, 0), at(1, 0), at(1, 0).Add(time.Nanosecond), at(2, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlap(tt.s1, tt.e1, tt.s2, tt.e2); got != tt.want {
				t.Errorf("Overlap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithin(t *testing.T) {
	if !Within(at(1, 0), at(1, 0), at(2, 0)) {
		t.Error("start bound should be inclusive")
	}
	if !Within(at(2, 0), at(1, 0), at(2, 0)) {
		t.Error("end bound should be inclusive")
	}
	if Within(at(2, 1), at(1, 0), at(2, 0)) {
		t.Error("time after end reported within")
	}
}
