package scheduler

import (
	"testing"
	"time"
)

var base = time.Date(2026, time.January, 10, 10, 0, 0, 0, time.UTC)

func TestOverlapsHalfOpen(t *testing.T) {
	slot := NewInterval(base, 60)

	cases := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"identical", NewInterval(base, 60), true},
		{"contained", NewInterval(base.Add(15*time.Minute), 15), true},
		{"straddles start", NewInterval(base.Add(-30*time.Minute), 60), true},
		{"straddles end", NewInterval(base.Add(30*time.Minute), 60), true},
		{"touches end exactly", NewInterval(base.Add(60*time.Minute), 30), false},
		{"touches start exactly", NewInterval(base.Add(-30*time.Minute), 30), false},
		{"disjoint before", NewInterval(base.Add(-2*time.Hour), 60), false},
		{"disjoint after", NewInterval(base.Add(2*time.Hour), 60), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := slot.Overlaps(tc.other); got != tc.want {
				t.Fatalf("Overlaps(%v) = %v, want %v", tc.other, got, tc.want)
			}
			if got := tc.other.Overlaps(slot); got != tc.want {
				t.Fatalf("overlap must be symmetric for %v", tc.other)
			}
		})
	}
}

func TestDetectConflicts(t *testing.T) {
	existing := []Booking{
		{EventID: 1, Interval: NewInterval(base, 60)},
		{EventID: 2, Interval: NewInterval(base.Add(2*time.Hour), 60)},
	}

	conflicts := DetectConflicts(existing, NewInterval(base.Add(30*time.Minute), 30), 0)
	if len(conflicts) != 1 || conflicts[0].EventID != 1 {
		t.Fatalf("expected conflict with event 1, got %v", conflicts)
	}

	if got := DetectConflicts(existing, NewInterval(base.Add(time.Hour), 60), 0); len(got) != 0 {
		t.Fatalf("boundary touch should not conflict, got %v", got)
	}
}

func TestDetectConflictsExcludesOwnBooking(t *testing.T) {
	existing := []Booking{
		{EventID: 7, Interval: NewInterval(base, 60)},
	}

	if got := DetectConflicts(existing, NewInterval(base.Add(15*time.Minute), 30), 7); len(got) != 0 {
		t.Fatalf("a rescheduled event must ignore its own slot, got %v", got)
	}
	if got := DetectConflicts(existing, NewInterval(base.Add(15*time.Minute), 30), 0); len(got) != 1 {
		t.Fatalf("without exclusion the slot conflicts, got %v", got)
	}
}
