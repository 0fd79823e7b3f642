// Package testfixtures supplies deterministic users, events and infrastructure
// harnesses for tests across the module.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/family-scheduler/internal/persistence"
)

var (
	userCounter  uint64
	eventCounter uint64
)

var (
	defaultLocation = time.FixedZone("MSK", 3*60*60)
	referenceTime   = time.Date(2026, time.January, 5, 9, 0, 0, 0, defaultLocation)
)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// DefaultLocation returns the fixed UTC+3 zone fixtures are built in.
func DefaultLocation() *time.Location {
	return defaultLocation
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures a generated user fixture.
type UserOption func(*persistence.User)

// WithActorID overrides the generated actor id.
func WithActorID(id int64) UserOption {
	return func(u *persistence.User) { u.ActorID = id }
}

// WithPartner links the user to a partner actor id.
func WithPartner(partnerActorID int64) UserOption {
	return func(u *persistence.User) { u.PartnerActorID = &partnerActorID }
}

// WithDigestTime overrides the digest delivery time.
func WithDigestTime(hhmm string) UserOption {
	return func(u *persistence.User) { u.DigestTime = hhmm }
}

// NewUser returns a deterministic user record with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	user := persistence.User{
		ActorID:    int64(1000 + idx),
		Name:       fmt.Sprintf("Member %03d", idx),
		DigestTime: "07:00",
		CreatedAt:  referenceTime.Add(time.Duration(idx) * time.Minute).UTC(),
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// ----------------------------- Event fixtures ----------------------------

// EventOption configures a generated event fixture.
type EventOption func(*persistence.Event)

// WithTitle overrides the generated title.
func WithTitle(title string) EventOption {
	return func(e *persistence.Event) { e.Title = title }
}

// WithStart overrides the generated start time.
func WithStart(start time.Time) EventOption {
	return func(e *persistence.Event) { e.Start = start }
}

// WithDuration overrides the event length.
func WithDuration(minutes int) EventOption {
	return func(e *persistence.Event) { e.DurationMinutes = minutes }
}

// WithCreator overrides the creator actor id.
func WithCreator(actorID int64) EventOption {
	return func(e *persistence.Event) { e.CreatorActorID = actorID }
}

// WithCategory overrides the event category.
func WithCategory(category string) EventOption {
	return func(e *persistence.Event) { e.Category = category }
}

// WithStatus overrides the event status.
func WithStatus(status string) EventOption {
	return func(e *persistence.Event) { e.Status = status }
}

// NewEvent returns a deterministic event record with optional overrides.
// Generated events are placed on consecutive days so they never collide
// unless a test says otherwise.
func NewEvent(opts ...EventOption) persistence.Event {
	idx := atomic.AddUint64(&eventCounter, 1)
	event := persistence.Event{
		Title:           fmt.Sprintf("Event %03d", idx),
		Start:           referenceTime.AddDate(0, 0, int(idx)),
		DurationMinutes: 60,
		CreatorActorID:  1001,
		Status:          "confirmed",
		Category:        "personal",
		CreatedAt:       referenceTime.UTC(),
	}
	for _, opt := range opts {
		opt(&event)
	}
	return event
}
