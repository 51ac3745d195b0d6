package models

import (
	"time"

	"github.com/camden-git/clipcatalog/utils"
)

// Span is a closed time interval.
type Span struct {
	Start time.Time
	End   time.Time
}

func (s Span) Valid() bool {
	return !s.Start.After(s.End)
}

// Overlaps reports whether the two closed intervals intersect.
func (s Span) Overlaps(o Span) bool {
	return utils.Overlap(s.Start, s.End, o.Start, o.End)
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return !o.Start.Before(s.Start) && !o.End.After(s.End)
}
