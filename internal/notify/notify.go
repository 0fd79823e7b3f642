// Package notify delivers best-effort partner notifications about calendar
// changes. Delivery failures are logged and never affect the scheduling
// operation that triggered them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/family-scheduler/internal/metrics"
	"github.com/example/family-scheduler/internal/persistence"
)

// Kind identifies what happened to the events being announced.
type Kind string

const (
	KindCreated   Kind = "created"
	KindUpdated   Kind = "updated"
	KindCancelled Kind = "cancelled"
)

// maxListedEvents caps the bulleted multi-event summary; the remainder
// collapses into an overflow counter line.
const maxListedEvents = 5

// Notifier is the side-channel the scheduling engine talks to. Implementations
// must be safe to call from any scheduling operation and must not block it.
type Notifier interface {
	EventsCreated(ctx context.Context, events []persistence.Event, creatorActorID int64)
	EventsUpdated(ctx context.Context, events []persistence.Event, creatorActorID int64)
	EventsCancelled(ctx context.Context, events []persistence.Event, creatorActorID int64)
}

// Sender delivers one text message to a recipient. The chat transport
// provides the implementation.
type Sender interface {
	Send(ctx context.Context, recipientActorID int64, text string) error
}

// UserDirectory resolves the creator and their linked partner.
type UserDirectory interface {
	GetUserByActorID(ctx context.Context, actorID int64) (persistence.User, error)
}

// EventMarker records that the partner saw a created event.
type EventMarker interface {
	MarkPartnerNotified(ctx context.Context, id int64) error
}

// Dispatcher formats and sends partner notifications through a Sender.
// It is wired once at startup and never mutated afterwards.
type Dispatcher struct {
	sender Sender
	users  UserDirectory
	marker EventMarker
	logger *slog.Logger
}

// NewDispatcher wires a notification dispatcher. marker may be nil when the
// partner-notified flag should not be tracked.
func NewDispatcher(sender Sender, users UserDirectory, marker EventMarker, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sender: sender, users: users, marker: marker, logger: logger}
}

// EventsCreated announces newly created events to the creator's partner.
func (d *Dispatcher) EventsCreated(ctx context.Context, events []persistence.Event, creatorActorID int64) {
	d.dispatch(ctx, events, creatorActorID, KindCreated)
}

// EventsUpdated announces rescheduled or edited events.
func (d *Dispatcher) EventsUpdated(ctx context.Context, events []persistence.Event, creatorActorID int64) {
	d.dispatch(ctx, events, creatorActorID, KindUpdated)
}

// EventsCancelled announces cancelled events.
func (d *Dispatcher) EventsCancelled(ctx context.Context, events []persistence.Event, creatorActorID int64) {
	d.dispatch(ctx, events, creatorActorID, KindCancelled)
}

func (d *Dispatcher) dispatch(ctx context.Context, events []persistence.Event, creatorActorID int64, kind Kind) {
	if len(events) == 0 || d.sender == nil {
		return
	}

	creator, err := d.users.GetUserByActorID(ctx, creatorActorID)
	if err != nil {
		d.logger.Warn("partner notification skipped: creator lookup failed",
			"creator_actor_id", creatorActorID, "error", err)
		metrics.ObserveNotification(string(kind), false)
		return
	}
	if creator.PartnerActorID == nil {
		d.logger.Debug("partner notification skipped: no linked partner",
			"creator_actor_id", creatorActorID)
		return
	}

	text := FormatMessage(events, creator.Name, kind)
	if err := d.sender.Send(ctx, *creator.PartnerActorID, text); err != nil {
		d.logger.Warn("partner notification failed",
			"partner_actor_id", *creator.PartnerActorID, "kind", kind, "error", err)
		metrics.ObserveNotification(string(kind), false)
		return
	}
	metrics.ObserveNotification(string(kind), true)

	if kind == KindCreated && d.marker != nil {
		for _, event := range events {
			if event.ID == 0 {
				continue
			}
			if err := d.marker.MarkPartnerNotified(ctx, event.ID); err != nil {
				d.logger.Warn("failed to mark partner notified",
					"event_id", event.ID, "error", err)
			}
		}
	}
}

// actionText maps a notification kind to the verb shown to the partner.
func actionText(kind Kind) string {
	switch kind {
	case KindCreated:
		return "занял(а)"
	case KindCancelled:
		return "отменил(а)"
	default:
		return "изменил(а)"
	}
}

var weekdayNames = [...]string{
	"воскресенье", "понедельник", "вторник", "среда",
	"четверг", "пятница", "суббота",
}

// formatEventTime renders an event's slot as "<weekday> HH:MM".
func formatEventTime(event persistence.Event) string {
	return fmt.Sprintf("%s %s", weekdayNames[int(event.Start.Weekday())], event.Start.Format("15:04"))
}

// FormatMessage renders the partner-facing notification text:
// "<name> <verb> <weekday> <HH:MM>: <title>" for a single event, or a
// bulleted summary capped at five lines plus an overflow counter.
func FormatMessage(events []persistence.Event, creatorName string, kind Kind) string {
	action := actionText(kind)

	if len(events) == 1 {
		event := events[0]
		return fmt.Sprintf("%s %s %s: %s", creatorName, action, formatEventTime(event), event.Title)
	}

	lines := make([]string, 0, maxListedEvents+1)
	for _, event := range events[:min(len(events), maxListedEvents)] {
		lines = append(lines, fmt.Sprintf("- %s: %s", formatEventTime(event), event.Title))
	}
	if len(events) > maxListedEvents {
		lines = append(lines, fmt.Sprintf("... и еще %d", len(events)-maxListedEvents))
	}

	return fmt.Sprintf("%s %s событий:\n%s", creatorName, action, strings.Join(lines, "\n"))
}
