// Package daterange implements the half-open date interval semantics shared
// by every reservation and waitlist component. A range covers [Start, End):
// a stay that ends on a given day frees the resource for a stay starting
// that same day.
package daterange

import "time"

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Both inequalities are strict: back-to-back ranges do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Range is a half-open date interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// New normalizes both bounds to date granularity and returns the range.
func New(start, end time.Time) Range {
	return Range{Start: Date(start), End: Date(end)}
}

// Valid reports whether the range is non-empty (Start strictly before End).
func (r Range) Valid() bool {
	return r.Start.Before(r.End)
}

// Overlaps reports whether r intersects other.
func (r Range) Overlaps(other Range) bool {
	return Overlaps(r.Start, r.End, other.Start, other.End)
}

// Contains reports whether the given day falls inside the range.
func (r Range) Contains(day time.Time) bool {
	d := Date(day)
	return !d.Before(r.Start) && d.Before(r.End)
}

// Nights returns the number of nights the range spans.
func (r Range) Nights() int {
	return int(r.End.Sub(r.Start) / (24 * time.Hour))
}

// Date truncates t to midnight UTC. Reservations operate at date
// granularity; all range comparisons go through this normalization.
func Date(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current date at UTC midnight.
func Today() time.Time {
	return Date(time.Now())
}
