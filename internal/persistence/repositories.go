package persistence

import (
	"context"
	"time"
)

// UserRepository stores household members keyed by their actor identity.
type UserRepository interface {
	// CreateUser inserts a new user. A duplicate actor id yields ErrDuplicate.
	CreateUser(ctx context.Context, user User) (int64, error)
	// GetUserByActorID returns the user with the given actor id or ErrNotFound.
	GetUserByActorID(ctx context.Context, actorID int64) (User, error)
	// UpdateUser overwrites name, partner link and digest time in place.
	UpdateUser(ctx context.Context, user User) error
	// ListUsers returns all users ordered by actor id ascending.
	ListUsers(ctx context.Context) ([]User, error)
	// CountUsers reports the number of stored users.
	CountUsers(ctx context.Context) (int, error)
}

// EventRepository stores calendar events and their participant rows.
type EventRepository interface {
	// CreateEvent inserts the event and its participant rows in one
	// transaction and returns the assigned event id.
	CreateEvent(ctx context.Context, event Event, participantUserIDs []int64) (int64, error)
	// GetEvent returns the event with the given id or ErrNotFound.
	GetEvent(ctx context.Context, id int64) (Event, error)
	// UpdateEventFields applies a partial update. An empty patch is rejected
	// with ErrConstraintViolation.
	UpdateEventFields(ctx context.Context, id int64, patch EventPatch) error
	// DeleteEvent removes the event and its participant rows.
	DeleteEvent(ctx context.Context, id int64) error
	// MarkPartnerNotified sets the partner-notified flag.
	MarkPartnerNotified(ctx context.Context, id int64) error

	// EventsOverlapping returns all events whose half-open interval intersects
	// [start, end). The scan is bounded to a window around the interval; the
	// precise interval check happens in application code.
	EventsOverlapping(ctx context.Context, start, end time.Time) ([]Event, error)
	// EventsInRange returns all events starting within [start, end] inclusive,
	// ordered by start ascending.
	EventsInRange(ctx context.Context, start, end time.Time) ([]Event, error)
	// EventsByCreatorInRange returns the creator's events starting within
	// [start, end] inclusive, ordered by start ascending.
	EventsByCreatorInRange(ctx context.Context, creatorActorID int64, start, end time.Time) ([]Event, error)

	// AddParticipant links a user to an event. Duplicate links are a no-op.
	AddParticipant(ctx context.Context, eventID, userID int64) error
	// ParticipantIDs returns the user ids linked to an event.
	ParticipantIDs(ctx context.Context, eventID int64) ([]int64, error)
}
