package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/family-scheduler/internal/identity"
	"github.com/example/family-scheduler/internal/metrics"
	"github.com/example/family-scheduler/internal/notify"
	"github.com/example/family-scheduler/internal/persistence"
	"github.com/example/family-scheduler/internal/scheduler"
	"github.com/example/family-scheduler/internal/timeparse"
	"github.com/example/family-scheduler/internal/validation"
)

// EventStore captures the persistence interactions needed by the calendar
// service.
type EventStore interface {
	CreateEvent(ctx context.Context, event persistence.Event, participantUserIDs []int64) (int64, error)
	GetEvent(ctx context.Context, id int64) (persistence.Event, error)
	UpdateEventFields(ctx context.Context, id int64, patch persistence.EventPatch) error
	DeleteEvent(ctx context.Context, id int64) error
	EventsOverlapping(ctx context.Context, start, end time.Time) ([]persistence.Event, error)
	EventsInRange(ctx context.Context, start, end time.Time) ([]persistence.Event, error)
	EventsByCreatorInRange(ctx context.Context, creatorActorID int64, start, end time.Time) ([]persistence.Event, error)
}

// UserDirectory exposes the user lookups the calendar service needs.
type UserDirectory interface {
	GetUserByActorID(ctx context.Context, actorID int64) (persistence.User, error)
}

// CalendarService is the scheduling engine over the single shared calendar.
// All human-facing timestamps are interpreted in the configured zone; storage
// is UTC-canonical.
type CalendarService struct {
	events   EventStore
	users    UserDirectory
	notifier notify.Notifier
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewCalendarService wires the scheduling engine. notifier may be nil when no
// notification side-channel is configured.
func NewCalendarService(events EventStore, users UserDirectory, notifier notify.Notifier, loc *time.Location, now func() time.Time, logger *slog.Logger) *CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarService{
		events:   events,
		users:    users,
		notifier: notifier,
		loc:      loc,
		now:      now,
		logger:   logger,
	}
}

// Location returns the configured display timezone.
func (s *CalendarService) Location() *time.Location {
	return s.loc
}

// CheckAvailability reports whether [start, start+duration) is free in the
// shared calendar. Pure read; no ownership filter applies.
func (s *CalendarService) CheckAvailability(ctx context.Context, start time.Time, durationMinutes int) (AvailabilityResult, error) {
	if durationMinutes <= 0 {
		return AvailabilityResult{}, validation.NewError("duration_minutes", "must be a positive integer")
	}

	start = start.In(s.loc)
	conflicts, err := s.conflictingEvents(ctx, start, durationMinutes, 0)
	if err != nil {
		return AvailabilityResult{}, err
	}

	return AvailabilityResult{
		IsAvailable:       len(conflicts) == 0,
		ConflictingEvents: fromPersistenceEvents(conflicts),
	}, nil
}

// ScheduleEvent creates an event after a conflict check. The availability
// check and the insert are not serialized against concurrent callers: two
// turns racing onto the same free slot can both succeed. This mirrors the
// reference behavior and is deliberate; see DESIGN.md.
func (s *CalendarService) ScheduleEvent(ctx context.Context, draft EventDraft, scope ParticipantScope, notifyPartner bool) (ScheduleResult, error) {
	if err := s.validateDraft(&draft); err != nil {
		return ScheduleResult{}, err
	}

	creatorID, err := s.resolveCreator(ctx, draft.CreatorActorID)
	if err != nil {
		return ScheduleResult{}, err
	}
	draft.CreatorActorID = creatorID
	draft.Start = draft.Start.In(s.loc)

	conflicts, err := s.conflictingEvents(ctx, draft.Start, draft.DurationMinutes, 0)
	if err != nil {
		return ScheduleResult{}, err
	}
	if len(conflicts) > 0 {
		metrics.ObserveSchedule("conflict")
		return ScheduleResult{
			Success:   false,
			Conflicts: toConflictInfos(conflicts),
			Message:   "time conflicts found in the shared calendar",
		}, nil
	}

	event := persistence.Event{
		Title:           strings.TrimSpace(draft.Title),
		Start:           draft.Start,
		DurationMinutes: draft.DurationMinutes,
		CreatorActorID:  creatorID,
		Status:          string(draft.Status),
		Category:        string(draft.Category),
		CreatedAt:       s.now(),
	}

	participantIDs, err := s.resolveParticipants(ctx, creatorID, scope)
	if err != nil {
		return ScheduleResult{}, err
	}

	eventID, err := s.events.CreateEvent(ctx, event, participantIDs)
	if err != nil {
		s.logger.Error("failed to persist event", "title", event.Title, "error", err)
		metrics.ObserveSchedule("error")
		return ScheduleResult{
			Success: false,
			Message: fmt.Sprintf("failed to create event: %v", err),
		}, nil
	}
	event.ID = eventID
	metrics.ObserveSchedule("scheduled")

	if notifyPartner && s.notifier != nil {
		s.notifier.EventsCreated(ctx, []persistence.Event{event}, creatorID)
	}

	return ScheduleResult{
		Success: true,
		EventID: eventID,
		Message: "event created",
	}, nil
}

// Agenda returns every shared-calendar event on the given date, ascending by
// start time. A nil date means today in the configured zone.
func (s *CalendarService) Agenda(ctx context.Context, targetDate *timeparse.Date) ([]Event, error) {
	date := timeparse.DateOf(s.now().In(s.loc))
	if targetDate != nil {
		date = *targetDate
	}

	events, err := s.events.EventsInRange(ctx, date.StartOfDay(s.loc), date.EndOfDay(s.loc))
	if err != nil {
		return nil, err
	}
	return fromPersistenceEvents(events), nil
}

// AgendaForPeriod returns every shared-calendar event starting within the
// inclusive date range, ascending by start time.
func (s *CalendarService) AgendaForPeriod(ctx context.Context, startDate, endDate timeparse.Date) ([]Event, error) {
	if startDate.After(endDate) {
		return nil, validation.NewError("start_date", "must not be after end_date")
	}

	events, err := s.events.EventsInRange(ctx, startDate.StartOfDay(s.loc), endDate.EndOfDay(s.loc))
	if err != nil {
		return nil, err
	}
	return fromPersistenceEvents(events), nil
}

// UpdateEvent applies a partial update to one of the caller's own events,
// re-checking conflicts when the time slot changes. Business refusals come
// back as failure results, never as errors.
func (s *CalendarService) UpdateEvent(ctx context.Context, eventID int64, creatorActorID int64, patch EventPatch) (UpdateResult, error) {
	if eventID <= 0 {
		return UpdateResult{}, validation.NewError("event_id", "must be a positive integer")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return UpdateResult{}, validation.NewError("title", "must not be empty")
	}
	if patch.DurationMinutes != nil && *patch.DurationMinutes <= 0 {
		return UpdateResult{}, validation.NewError("duration_minutes", "must be a positive integer")
	}

	creatorID, err := s.resolveCreator(ctx, creatorActorID)
	if err != nil {
		return UpdateResult{}, err
	}

	existing, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return UpdateResult{EventID: eventID, Message: fmt.Sprintf("event %d not found", eventID)}, nil
		}
		s.logger.Error("failed to load event for update", "event_id", eventID, "error", err)
		return UpdateResult{EventID: eventID, Message: fmt.Sprintf("failed to load event: %v", err)}, nil
	}

	if existing.CreatorActorID != creatorID {
		metrics.ObserveUpdate("rejected")
		return UpdateResult{EventID: eventID, Message: "only the creator can modify this event"}, nil
	}

	if patch.IsEmpty() {
		return UpdateResult{EventID: eventID, Message: "no fields to update"}, nil
	}

	// The prospective interval merges the patch onto the stored values; the
	// event's own current slot is excluded from its conflict set.
	if patch.Start != nil || patch.DurationMinutes != nil {
		newStart := existing.Start
		if patch.Start != nil {
			newStart = patch.Start.In(s.loc)
		}
		newDuration := existing.DurationMinutes
		if patch.DurationMinutes != nil {
			newDuration = *patch.DurationMinutes
		}

		conflicts, err := s.conflictingEvents(ctx, newStart, newDuration, eventID)
		if err != nil {
			return UpdateResult{}, err
		}
		if len(conflicts) > 0 {
			metrics.ObserveUpdate("conflict")
			return UpdateResult{
				EventID:   eventID,
				Conflicts: toConflictInfos(conflicts),
				Message:   "the new time conflicts with existing events",
			}, nil
		}
	}

	stored := persistence.EventPatch{DurationMinutes: patch.DurationMinutes}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		stored.Title = &title
	}
	if patch.Start != nil {
		start := patch.Start.In(s.loc)
		stored.Start = &start
	}
	if patch.Category != nil {
		category := string(*patch.Category)
		stored.Category = &category
	}

	if err := s.events.UpdateEventFields(ctx, eventID, stored); err != nil {
		s.logger.Error("failed to update event", "event_id", eventID, "error", err)
		metrics.ObserveUpdate("error")
		return UpdateResult{EventID: eventID, Message: fmt.Sprintf("failed to update event: %v", err)}, nil
	}
	metrics.ObserveUpdate("updated")

	if s.notifier != nil {
		updated, err := s.events.GetEvent(ctx, eventID)
		if err != nil {
			s.logger.Warn("failed to reload event for notification", "event_id", eventID, "error", err)
		} else {
			s.notifier.EventsUpdated(ctx, []persistence.Event{updated}, creatorID)
		}
	}

	return UpdateResult{Success: true, EventID: eventID, Message: "event updated"}, nil
}

// FindEventsToCancel returns the creator's own events in the inclusive date
// range, optionally narrowed by a case-insensitive title substring and an
// exact category.
func (s *CalendarService) FindEventsToCancel(ctx context.Context, creatorActorID int64, startDate, endDate timeparse.Date, titleSubstring string, category *EventCategory) ([]Event, error) {
	if startDate.After(endDate) {
		return nil, validation.NewError("start_date", "must not be after end_date")
	}

	creatorID, err := s.resolveCreator(ctx, creatorActorID)
	if err != nil {
		return nil, err
	}

	events, err := s.events.EventsByCreatorInRange(ctx, creatorID, startDate.StartOfDay(s.loc), endDate.EndOfDay(s.loc))
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(titleSubstring))
	var matched []Event
	for _, event := range events {
		if needle != "" && !strings.Contains(strings.ToLower(event.Title), needle) {
			continue
		}
		if category != nil && event.Category != string(*category) {
			continue
		}
		matched = append(matched, fromPersistenceEvent(event))
	}
	return matched, nil
}

// CancelEvents hard-deletes the given events one by one. Events that are
// missing or owned by someone else are collected as failures, never aborting
// the batch. One cancellation notification covers the whole batch.
func (s *CalendarService) CancelEvents(ctx context.Context, eventIDs []int64, creatorActorID int64) (CancelResult, error) {
	if len(eventIDs) == 0 {
		return CancelResult{}, validation.NewError("event_ids", "must not be empty")
	}

	creatorID, err := s.resolveCreator(ctx, creatorActorID)
	if err != nil {
		return CancelResult{}, err
	}

	var (
		cancelled    []persistence.Event
		cancelledIDs []int64
		failedIDs    []int64
	)
	for _, eventID := range eventIDs {
		event, err := s.events.GetEvent(ctx, eventID)
		if err != nil {
			if !errors.Is(err, persistence.ErrNotFound) {
				s.logger.Error("failed to load event for cancellation", "event_id", eventID, "error", err)
			}
			failedIDs = append(failedIDs, eventID)
			continue
		}
		if event.CreatorActorID != creatorID {
			failedIDs = append(failedIDs, eventID)
			continue
		}
		if err := s.events.DeleteEvent(ctx, eventID); err != nil {
			s.logger.Error("failed to delete event", "event_id", eventID, "error", err)
			failedIDs = append(failedIDs, eventID)
			continue
		}
		cancelled = append(cancelled, event)
		cancelledIDs = append(cancelledIDs, eventID)
	}

	if len(cancelled) > 0 {
		metrics.ObserveCancellations(len(cancelled))
		if s.notifier != nil {
			s.notifier.EventsCancelled(ctx, cancelled, creatorID)
		}
	}

	return CancelResult{
		Success:        len(cancelled) > 0,
		CancelledCount: len(cancelled),
		CancelledIDs:   cancelledIDs,
		FailedIDs:      failedIDs,
		Message:        fmt.Sprintf("cancelled %d event(s), %d failed", len(cancelled), len(failedIDs)),
	}, nil
}

// CancelRequest is the higher-level cancellation entry: explicit ids, a
// filter, or both (the matched id sets are unioned).
type CancelRequest struct {
	CreatorActorID int64
	EventIDs       []int64
	StartDate      *timeparse.Date
	EndDate        *timeparse.Date
	TitleSubstring string
	Category       *EventCategory
}

// CancelMatching resolves a CancelRequest into concrete event ids and cancels
// them. Supplying neither explicit ids nor a complete date range is a
// validation error.
func (s *CalendarService) CancelMatching(ctx context.Context, req CancelRequest) (CancelResult, error) {
	hasRange := req.StartDate != nil && req.EndDate != nil
	if req.StartDate != nil && req.EndDate == nil {
		return CancelResult{}, validation.NewError("end_date", "required when start_date is supplied")
	}
	if req.EndDate != nil && req.StartDate == nil {
		return CancelResult{}, validation.NewError("start_date", "required when end_date is supplied")
	}
	if len(req.EventIDs) == 0 && !hasRange {
		return CancelResult{}, validation.NewError("event_ids",
			"either event_ids or a complete start_date/end_date range is required")
	}

	ids := make([]int64, 0, len(req.EventIDs))
	seen := make(map[int64]struct{}, len(req.EventIDs))
	for _, id := range req.EventIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if hasRange {
		matched, err := s.FindEventsToCancel(ctx, req.CreatorActorID, *req.StartDate, *req.EndDate, req.TitleSubstring, req.Category)
		if err != nil {
			return CancelResult{}, err
		}
		for _, event := range matched {
			if _, ok := seen[event.ID]; ok {
				continue
			}
			seen[event.ID] = struct{}{}
			ids = append(ids, event.ID)
		}
	}

	if len(ids) == 0 {
		return CancelResult{Message: "no matching events found"}, nil
	}
	return s.CancelEvents(ctx, ids, req.CreatorActorID)
}

var (
	weekdaysRU = [...]string{
		"воскресенье", "понедельник", "вторник", "среда",
		"четверг", "пятница", "суббота",
	}
	monthsRU = [...]string{
		"января", "февраля", "марта", "апреля", "мая", "июня",
		"июля", "августа", "сентября", "октября", "ноября", "декабря",
	}
)

// CurrentDateTime reports the current moment in the configured zone, with the
// weekday and a human-readable line in the reference locale.
func (s *CalendarService) CurrentDateTime() CurrentDateTime {
	now := s.now().In(s.loc)
	weekday := weekdaysRU[int(now.Weekday())]
	return CurrentDateTime{
		NowISO:    now.Format(time.RFC3339),
		DateISO:   now.Format("2006-01-02"),
		WeekdayRU: weekday,
		HumanRU:   fmt.Sprintf("%s, %02d %s %d", weekday, now.Day(), monthsRU[int(now.Month())-1], now.Year()),
	}
}

// conflictingEvents runs the shared-calendar overlap check for the candidate
// interval, optionally excluding one event id from its own conflict set.
func (s *CalendarService) conflictingEvents(ctx context.Context, start time.Time, durationMinutes int, excludeEventID int64) ([]persistence.Event, error) {
	candidate := scheduler.NewInterval(start, durationMinutes)

	stored, err := s.events.EventsOverlapping(ctx, candidate.Start, candidate.End)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]persistence.Event, len(stored))
	bookings := make([]scheduler.Booking, 0, len(stored))
	for _, event := range stored {
		byID[event.ID] = event
		bookings = append(bookings, scheduler.Booking{
			EventID:  event.ID,
			Interval: scheduler.NewInterval(event.Start, event.DurationMinutes),
		})
	}

	var conflicts []persistence.Event
	for _, booking := range scheduler.DetectConflicts(bookings, candidate, excludeEventID) {
		conflicts = append(conflicts, byID[booking.EventID])
	}
	return conflicts, nil
}

func (s *CalendarService) resolveCreator(ctx context.Context, supplied int64) (int64, error) {
	if supplied > 0 {
		return supplied, nil
	}
	if actorID, ok := identity.ActorFrom(ctx); ok {
		return actorID, nil
	}
	return 0, validation.NewError("creator_id", "cannot determine current user")
}

// resolveParticipants maps the participant scope onto user row ids. An
// unresolvable partner silently degrades to creator-only; participant rows
// are informational and never part of conflict checks.
func (s *CalendarService) resolveParticipants(ctx context.Context, creatorActorID int64, scope ParticipantScope) ([]int64, error) {
	creator, err := s.users.GetUserByActorID(ctx, creatorActorID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	ids := []int64{creator.ID}
	if scope == ScopeBoth && creator.PartnerActorID != nil {
		partner, err := s.users.GetUserByActorID(ctx, *creator.PartnerActorID)
		if err == nil {
			ids = append(ids, partner.ID)
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return nil, err
		}
	}
	return ids, nil
}

func (s *CalendarService) validateDraft(draft *EventDraft) error {
	vErr := &validation.Error{}
	if strings.TrimSpace(draft.Title) == "" {
		vErr.Add("title", "must not be empty")
	}
	if draft.Start.IsZero() {
		vErr.Add("datetime", "is required")
	}
	if draft.DurationMinutes <= 0 {
		vErr.Add("duration_minutes", "must be a positive integer")
	}
	if draft.Status == "" {
		draft.Status = StatusProposed
	}
	if draft.Category == "" {
		vErr.Add("category", "is required")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func toConflictInfos(events []persistence.Event) []ConflictInfo {
	if len(events) == 0 {
		return nil
	}
	infos := make([]ConflictInfo, 0, len(events))
	for _, event := range events {
		infos = append(infos, ConflictInfo{
			ConflictingEvent: fromPersistenceEvent(event),
			ConflictType:     "time_overlap",
		})
	}
	return infos
}
