package utils

import "time"

// Overlap reports whether the closed intervals [s1, e1] and [s2, e2] intersect.
func Overlap(s1, e1, s2, e2 time.Time) bool {
	return !latest(s1, s2).After(earliest(e1, e2))
}

// Within reports whether t lies in the closed interval [start, end].
func Within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
