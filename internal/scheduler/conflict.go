package scheduler

import "time"

// Interval is a half-open time interval [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds the interval covered by an event starting at start and
// lasting durationMinutes.
func NewInterval(start time.Time, durationMinutes int) Interval {
	return Interval{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

// Overlaps reports whether two half-open intervals intersect. Intervals that
// merely touch at a boundary do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Booking is an existing calendar entry considered during conflict detection.
type Booking struct {
	EventID  int64
	Interval Interval
}

// DetectConflicts returns the bookings whose intervals intersect the
// candidate interval. The calendar is shared, so no ownership filter applies.
// excludeEventID removes one booking from consideration, which lets an event
// being rescheduled ignore its own current slot; pass 0 to exclude nothing.
func DetectConflicts(existing []Booking, candidate Interval, excludeEventID int64) []Booking {
	var conflicts []Booking
	for _, booking := range existing {
		if excludeEventID != 0 && booking.EventID == excludeEventID {
			continue
		}
		if candidate.Overlaps(booking.Interval) {
			conflicts = append(conflicts, booking)
		}
	}
	return conflicts
}
