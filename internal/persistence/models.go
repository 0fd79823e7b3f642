package persistence

import "time"

// User represents a household member stored in persistence.
type User struct {
	ID             int64
	ActorID        int64
	Name           string
	PartnerActorID *int64
	DigestTime     string
	CreatedAt      time.Time
}

// Event represents a shared-calendar entry stored in persistence.
type Event struct {
	ID              int64
	Title           string
	Start           time.Time
	DurationMinutes int
	CreatorActorID  int64
	Status          string
	Category        string
	CreatedAt       time.Time
	PartnerNotified bool
}

// End computes the exclusive end of the event interval.
func (e Event) End() time.Time {
	return e.Start.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// EventPatch carries the mutable event fields for a partial update. Nil
// pointers leave the stored value untouched.
type EventPatch struct {
	Title           *string
	Start           *time.Time
	DurationMinutes *int
	Category        *string
	Status          *string
	PartnerNotified *bool
}

// IsEmpty reports whether the patch carries no changes.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Start == nil && p.DurationMinutes == nil &&
		p.Category == nil && p.Status == nil && p.PartnerNotified == nil
}
