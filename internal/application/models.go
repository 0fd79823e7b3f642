package application

import (
	"time"

	"github.com/example/family-scheduler/internal/persistence"
	"github.com/example/family-scheduler/internal/validation"
)

// EventStatus is the lifecycle state of a calendar event.
type EventStatus string

const (
	StatusProposed  EventStatus = "proposed"
	StatusConfirmed EventStatus = "confirmed"
	StatusRejected  EventStatus = "rejected"
)

// ParseEventStatus converts a raw tool-boundary string into the closed status
// set. Everything inward of the boundary operates on the typed value.
func ParseEventStatus(raw string) (EventStatus, error) {
	switch EventStatus(raw) {
	case StatusProposed, StatusConfirmed, StatusRejected:
		return EventStatus(raw), nil
	default:
		return "", validation.NewError("status",
			`must be one of: "proposed", "confirmed", "rejected"`)
	}
}

// EventCategory classifies a calendar event.
type EventCategory string

const (
	CategoryChildren EventCategory = "children"
	CategoryHome     EventCategory = "home"
	CategoryRepair   EventCategory = "repair"
	CategoryPersonal EventCategory = "personal"
)

// ParseEventCategory converts a raw string into the closed category set.
func ParseEventCategory(raw string) (EventCategory, error) {
	switch EventCategory(raw) {
	case CategoryChildren, CategoryHome, CategoryRepair, CategoryPersonal:
		return EventCategory(raw), nil
	default:
		return "", validation.NewError("category",
			`must be one of: "children", "home", "repair", "personal"`)
	}
}

// ParticipantScope selects which participant rows a new event gets.
type ParticipantScope string

const (
	// ScopeSelf lists only the creator as participant.
	ScopeSelf ParticipantScope = "self"
	// ScopeBoth lists the creator and their linked partner, when resolvable.
	ScopeBoth ParticipantScope = "both"
)

// ParseParticipantScope converts a raw string into the scope variant.
func ParseParticipantScope(raw string) (ParticipantScope, error) {
	switch ParticipantScope(raw) {
	case ScopeSelf, ScopeBoth:
		return ParticipantScope(raw), nil
	default:
		return "", validation.NewError("participant_scope",
			`must be "self" or "both"`)
	}
}

// User is a household member as seen by the services.
type User struct {
	ActorID        int64
	Name           string
	PartnerActorID *int64
	DigestTime     string
	CreatedAt      time.Time
}

// Event is a shared-calendar entry as seen by the services.
type Event struct {
	ID              int64
	Title           string
	Start           time.Time
	DurationMinutes int
	CreatorActorID  int64
	Status          EventStatus
	Category        EventCategory
	CreatedAt       time.Time
	PartnerNotified bool
}

// End computes the exclusive end of the event interval.
func (e Event) End() time.Time {
	return e.Start.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// EventDraft carries the caller-supplied fields for a new event.
// CreatorActorID may be zero or negative, in which case the ambient actor
// identity supplies the creator.
type EventDraft struct {
	Title           string
	Start           time.Time
	DurationMinutes int
	CreatorActorID  int64
	Status          EventStatus
	Category        EventCategory
}

// EventPatch is a structured partial update for an event. Only the mutable
// attributes appear here; status and creator are not end-user mutable.
type EventPatch struct {
	Title           *string
	Start           *time.Time
	DurationMinutes *int
	Category        *EventCategory
}

// IsEmpty reports whether the patch carries no changes.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Start == nil && p.DurationMinutes == nil && p.Category == nil
}

// ConflictInfo describes one event blocking a requested time slot.
type ConflictInfo struct {
	ConflictingEvent Event
	ConflictType     string
}

// AvailabilityResult reports whether a slot is free in the shared calendar.
type AvailabilityResult struct {
	IsAvailable       bool
	ConflictingEvents []Event
}

// ScheduleResult reports the outcome of an event creation attempt.
type ScheduleResult struct {
	Success   bool
	EventID   int64
	Conflicts []ConflictInfo
	Message   string
}

// UpdateResult reports the outcome of an event update attempt.
type UpdateResult struct {
	Success   bool
	EventID   int64
	Conflicts []ConflictInfo
	Message   string
}

// CancelResult reports the outcome of a bulk cancellation.
type CancelResult struct {
	Success        bool
	CancelledCount int
	CancelledIDs   []int64
	FailedIDs      []int64
	Message        string
}

// CurrentDateTime is the agent-facing "what time is it" answer, rendered in
// the configured timezone and the reference locale.
type CurrentDateTime struct {
	NowISO    string
	DateISO   string
	WeekdayRU string
	HumanRU   string
}

func fromPersistenceEvent(event persistence.Event) Event {
	return Event{
		ID:              event.ID,
		Title:           event.Title,
		Start:           event.Start,
		DurationMinutes: event.DurationMinutes,
		CreatorActorID:  event.CreatorActorID,
		Status:          EventStatus(event.Status),
		Category:        EventCategory(event.Category),
		CreatedAt:       event.CreatedAt,
		PartnerNotified: event.PartnerNotified,
	}
}

func fromPersistenceEvents(events []persistence.Event) []Event {
	if len(events) == 0 {
		return nil
	}
	out := make([]Event, 0, len(events))
	for _, event := range events {
		out = append(out, fromPersistenceEvent(event))
	}
	return out
}

func fromPersistenceUser(user persistence.User) User {
	out := User{
		ActorID:    user.ActorID,
		Name:       user.Name,
		DigestTime: user.DigestTime,
		CreatedAt:  user.CreatedAt,
	}
	if user.PartnerActorID != nil {
		partner := *user.PartnerActorID
		out.PartnerActorID = &partner
	}
	return out
}
