package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/family-scheduler/internal/identity"
	"github.com/example/family-scheduler/internal/persistence"
	"github.com/example/family-scheduler/internal/testfixtures"
	"github.com/example/family-scheduler/internal/timeparse"
	"github.com/example/family-scheduler/internal/validation"
)

type recordedNotification struct {
	kind    string
	events  []persistence.Event
	creator int64
}

type recordingNotifier struct {
	calls []recordedNotification
}

func (n *recordingNotifier) EventsCreated(ctx context.Context, events []persistence.Event, creatorActorID int64) {
	n.calls = append(n.calls, recordedNotification{kind: "created", events: events, creator: creatorActorID})
}

func (n *recordingNotifier) EventsUpdated(ctx context.Context, events []persistence.Event, creatorActorID int64) {
	n.calls = append(n.calls, recordedNotification{kind: "updated", events: events, creator: creatorActorID})
}

func (n *recordingNotifier) EventsCancelled(ctx context.Context, events []persistence.Event, creatorActorID int64) {
	n.calls = append(n.calls, recordedNotification{kind: "cancelled", events: events, creator: creatorActorID})
}

type engineFixture struct {
	svc      *CalendarService
	notifier *recordingNotifier
	clock    *testfixtures.Clock
	loc      *time.Location
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	loc := testfixtures.DefaultLocation()
	harness := testfixtures.NewSQLiteHarness(t, loc)
	clock := testfixtures.NewClock(time.Time{})
	notifier := &recordingNotifier{}

	svc := NewCalendarService(harness.Events, harness.Users, notifier, loc, clock.NowFunc(), nil)

	ctx := context.Background()
	partnerA := int64(222)
	partnerB := int64(111)
	if _, err := harness.Users.CreateUser(ctx, persistence.User{
		ActorID: 111, Name: "Анна", PartnerActorID: &partnerA, DigestTime: "07:00",
	}); err != nil {
		t.Fatalf("create user A: %v", err)
	}
	if _, err := harness.Users.CreateUser(ctx, persistence.User{
		ActorID: 222, Name: "Борис", PartnerActorID: &partnerB, DigestTime: "07:00",
	}); err != nil {
		t.Fatalf("create user B: %v", err)
	}

	return &engineFixture{svc: svc, notifier: notifier, clock: clock, loc: loc}
}

func (f *engineFixture) mustSchedule(t *testing.T, draft EventDraft) int64 {
	t.Helper()
	result, err := f.svc.ScheduleEvent(context.Background(), draft, ScopeSelf, false)
	if err != nil {
		t.Fatalf("ScheduleEvent returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("ScheduleEvent was refused: %+v", result)
	}
	return result.EventID
}

func date(y int, m time.Month, d int) timeparse.Date {
	return timeparse.Date{Year: y, Month: m, Day: d}
}

func TestScheduleThenCheckAvailability(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	start := time.Date(2026, time.January, 10, 10, 0, 0, 0, f.loc)
	f.mustSchedule(t, EventDraft{
		Title: "Плавание", Start: start, DurationMinutes: 60,
		CreatorActorID: 111, Category: CategoryPersonal,
	})

	result, err := f.svc.CheckAvailability(ctx, start, 60)
	if err != nil {
		t.Fatalf("CheckAvailability returned error: %v", err)
	}
	if result.IsAvailable {
		t.Fatal("a just-committed slot must read back as taken")
	}
	if len(result.ConflictingEvents) != 1 || result.ConflictingEvents[0].Title != "Плавание" {
		t.Fatalf("unexpected conflicts: %+v", result.ConflictingEvents)
	}
}

func TestBoundaryTouchIsNotAConflict(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	start := time.Date(2026, time.January, 10, 10, 0, 0, 0, f.loc)
	f.mustSchedule(t, EventDraft{
		Title: "Плавание", Start: start, DurationMinutes: 60,
		CreatorActorID: 111, Category: CategoryPersonal,
	})

	// [11:00, 11:30) touches the end of [10:00, 11:00) exactly.
	result, err := f.svc.CheckAvailability(ctx, start.Add(time.Hour), 30)
	if err != nil {
		t.Fatalf("CheckAvailability returned error: %v", err)
	}
	if !result.IsAvailable {
		t.Fatalf("boundary touch must be available, conflicts: %+v", result.ConflictingEvents)
	}
}

func TestScheduleConflictScenario(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	swimStart, err := timeparse.ParseDateTime("datetime", "2026-01-10T10:00:00+03:00", f.loc)
	if err != nil {
		t.Fatalf("parse swim start: %v", err)
	}

	swim, err := f.svc.ScheduleEvent(ctx, EventDraft{
		Title: "Swim", Start: swimStart, DurationMinutes: 60,
		CreatorActorID: 111, Category: CategoryPersonal,
	}, ScopeSelf, false)
	if err != nil {
		t.Fatalf("schedule Swim: %v", err)
	}
	if !swim.Success || swim.EventID == 0 {
		t.Fatalf("Swim should be scheduled with an id, got %+v", swim)
	}

	dentistStart, err := timeparse.ParseDateTime("datetime", "2026-01-10T10:30:00+03:00", f.loc)
	if err != nil {
		t.Fatalf("parse dentist start: %v", err)
	}

	dentist, err := f.svc.ScheduleEvent(ctx, EventDraft{
		Title: "Dentist", Start: dentistStart, DurationMinutes: 30,
		CreatorActorID: 222, Category: CategoryPersonal,
	}, ScopeSelf, false)
	if err != nil {
		t.Fatalf("schedule Dentist: %v", err)
	}
	if dentist.Success {
		t.Fatal("Dentist overlaps Swim and must be refused")
	}
	if len(dentist.Conflicts) != 1 || dentist.Conflicts[0].ConflictingEvent.Title != "Swim" {
		t.Fatalf("the conflict must name Swim, got %+v", dentist.Conflicts)
	}

	agenda, err := f.svc.Agenda(ctx, &timeparse.Date{Year: 2026, Month: time.January, Day: 10})
	if err != nil {
		t.Fatalf("Agenda returned error: %v", err)
	}
	if len(agenda) != 1 || agenda[0].Title != "Swim" {
		t.Fatalf("agenda should hold exactly Swim, got %+v", agenda)
	}
}

func TestScheduleValidation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.svc.ScheduleEvent(ctx, EventDraft{
		Title: "", Start: time.Time{}, DurationMinutes: 0, CreatorActorID: 111,
	}, ScopeSelf, false)
	var vErr *validation.Error
	if !errors.As(err, &vErr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	for _, field := range []string{"title", "datetime", "duration_minutes", "category"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("validation error should name %s: %v", field, vErr.FieldErrors)
		}
	}
}

func TestScheduleRequiresResolvableCreator(t *testing.T) {
	f := newEngineFixture(t)

	draft := EventDraft{
		Title: "Без автора", Start: time.Date(2026, time.January, 10, 10, 0, 0, 0, f.loc),
		DurationMinutes: 30, Category: CategoryHome,
	}

	_, err := f.svc.ScheduleEvent(context.Background(), draft, ScopeSelf, false)
	var vErr *validation.Error
	if !errors.As(err, &vErr) {
		t.Fatalf("expected a validation error without identity, got %v", err)
	}

	ctx := identity.WithActor(context.Background(), 111)
	result, err := f.svc.ScheduleEvent(ctx, draft, ScopeSelf, false)
	if err != nil {
		t.Fatalf("ScheduleEvent with ambient identity: %v", err)
	}
	if !result.Success {
		t.Fatalf("ambient identity should satisfy the creator: %+v", result)
	}

	event, err := f.svc.events.GetEvent(ctx, result.EventID)
	if err != nil {
		t.Fatalf("read back event: %v", err)
	}
	if event.CreatorActorID != 111 {
		t.Fatalf("creator must come from the ambient identity, got %d", event.CreatorActorID)
	}
}

func TestSchedulePartnerNotification(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	result, err := f.svc.ScheduleEvent(ctx, EventDraft{
		Title: "Секция", Start: time.Date(2026, time.January, 12, 16, 0, 0, 0, f.loc),
		DurationMinutes: 60, CreatorActorID: 111, Category: CategoryChildren,
	}, ScopeBoth, true)
	if err != nil {
		t.Fatalf("ScheduleEvent returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("schedule refused: %+v", result)
	}

	if len(f.notifier.calls) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifier.calls))
	}
	call := f.notifier.calls[0]
	if call.kind != "created" || call.creator != 111 {
		t.Fatalf("unexpected notification: %+v", call)
	}
	if len(call.events) != 1 || call.events[0].Title != "Секция" {
		t.Fatalf("notification should carry the new event: %+v", call.events)
	}
}

func TestAgendaForPeriodSingleDay(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	day := time.Date(2026, time.January, 10, 0, 0, 0, 0, f.loc)
	f.mustSchedule(t, EventDraft{
		Title: "Вечер", Start: day.Add(19 * time.Hour), DurationMinutes: 60,
		CreatorActorID: 111, Category: CategoryPersonal,
	})
	f.mustSchedule(t, EventDraft{
		Title: "Утро", Start: day.Add(9 * time.Hour), DurationMinutes: 60,
		CreatorActorID: 111, Category: CategoryPersonal,
	})
	f.mustSchedule(t, EventDraft{
		Title: "Завтра", Start: day.Add(33 * time.Hour), DurationMinutes: 60,
		CreatorActorID: 111, Category: CategoryPersonal,
	})

	d := date(2026, time.January, 10)
	events, err := f.svc.AgendaForPeriod(ctx, d, d)
	if err != nil {
		t.Fatalf("AgendaForPeriod returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected the two same-day events, got %+v", events)
	}
	if events[0].Title != "Утро" || events[1].Title != "Вечер" {
		t.Fatalf("expected ascending time-of-day order, got %+v", events)
	}
}

func TestAgendaForPeriodRejectsReversedRange(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.svc.AgendaForPeriod(context.Background(),
		date(2026, time.January, 15), date(2026, time.January, 7))
	var vErr *validation.Error
	if !errors.As(err, &vErr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestUpdateEventByNonCreatorIsRefused(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	start := time.Date(2026, time.January, 10, 10, 0, 0, 0, f.loc)
	eventID := f.mustSchedule(t, EventDraft{
		Title: "Плавание", Start: start, DurationMinutes: 60,
		CreatorActorID: 111, Category: CategoryPersonal,
	})

	title := "Чужая правка"
	result, err := f.svc.UpdateEvent(ctx, eventID, 222, EventPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateEvent returned error: %v", err)
	}
	if result.Success {
		t.Fatal("a non-creator must not update the event")
	}
	if result.Message != "only the creator can modify this event" {
		t.Fatalf("unexpected refusal message: %q", result.Message)
	}

	event, err := f.svc.events.GetEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("read back event: %v", err)
	}
	if event.Title != "Плавание" || !event.Start.Equal(start) || event.DurationMinutes != 60 {
		t.Fatalf("refused update must not mutate the event: %+v", event)
	}
}

func TestUpdateEventRescheduleChecksConflicts(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	base := time.Date(2026, time.January, 10, 10, 0, 0, 0, f.loc)
	swimID := f.mustSchedule(t, EventDraft{
		Title: "Плавание", Start: base, DurationMinutes: 60,
		CreatorActorID: 111, Category: CategoryPersonal,
	})
	f.mustSchedule(t, EventDraft{
		Title: "Обед", Start: base.Add(3 * time.Hour), DurationMinutes: 60,
		CreatorActorID: 111, Category: CategoryHome,
	})

	// Moving the swim onto lunch must be refused.
	conflictStart := base.Add(3 * time.Hour)
	result, err := f.svc.UpdateEvent(ctx, swimID, 111, EventPatch{Start: &conflictStart})
	if err != nil {
		t.Fatalf("UpdateEvent returned error: %v", err)
	}
	if result.Success {
		t.Fatal("moving onto a taken slot must be refused")
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].ConflictingEvent.Title != "Обед" {
		t.Fatalf("the conflict must name the lunch, got %+v", result.Conflicts)
	}

	// Nudging within its own current slot is fine.
	nudged := base.Add(15 * time.Minute)
	result, err = f.svc.UpdateEvent(ctx, swimID, 111, EventPatch{Start: &nudged})
	if err != nil {
		t.Fatalf("UpdateEvent returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("an event must not conflict with itself: %+v", result)
	}

	event, err := f.svc.events.GetEvent(ctx, swimID)
	if err != nil {
		t.Fatalf("read back event: %v", err)
	}
	if !event.Start.Equal(nudged) {
		t.Fatalf("reschedule not applied: %v", event.Start)
	}
}

func TestUpdateEventEmptyPatch(t *testing.T) {
	f := newEngineFixture(t)

	eventID := f.mustSchedule(t, EventDraft{
		Title: "Плавание", Start: time.Date(2026, time.January, 10, 10, 0, 0, 0, f.loc),
		DurationMinutes: 60, CreatorActorID: 111, Category: CategoryPersonal,
	})

	result, err := f.svc.UpdateEvent(context.Background(), eventID, 111, EventPatch{})
	if err != nil {
		t.Fatalf("UpdateEvent returned error: %v", err)
	}
	if result.Success || result.Message != "no fields to update" {
		t.Fatalf("empty patch must come back as a failure result: %+v", result)
	}
}

func TestUpdateEventNotFound(t *testing.T) {
	f := newEngineFixture(t)

	title := "Ничего"
	result, err := f.svc.UpdateEvent(context.Background(), 9999, 111, EventPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateEvent returned error: %v", err)
	}
	if result.Success {
		t.Fatal("updating a missing event must fail")
	}
	if result.Message != "event 9999 not found" {
		t.Fatalf("unexpected message: %q", result.Message)
	}
}

func TestCancelEventsMixedOwnership(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	day := time.Date(2026, time.January, 10, 0, 0, 0, 0, f.loc)
	mine := f.mustSchedule(t, EventDraft{
		Title: "Моё", Start: day.Add(10 * time.Hour), DurationMinutes: 60,
		CreatorActorID: 111, Category: CategoryPersonal,
	})
	foreign := f.mustSchedule(t, EventDraft{
		Title: "Чужое", Start: day.Add(14 * time.Hour), DurationMinutes: 60,
		CreatorActorID: 222, Category: CategoryPersonal,
	})

	result, err := f.svc.CancelEvents(ctx, []int64{mine, foreign}, 111)
	if err != nil {
		t.Fatalf("CancelEvents returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("partially successful batch still succeeds: %+v", result)
	}
	if result.CancelledCount != 1 || len(result.CancelledIDs) != 1 || result.CancelledIDs[0] != mine {
		t.Fatalf("exactly the owned event cancels: %+v", result)
	}
	if len(result.FailedIDs) != 1 || result.FailedIDs[0] != foreign {
		t.Fatalf("the foreign id must be reported as failed: %+v", result)
	}

	if _, err := f.svc.events.GetEvent(ctx, foreign); err != nil {
		t.Fatalf("the foreign event must survive: %v", err)
	}
	if _, err := f.svc.events.GetEvent(ctx, mine); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("the owned event must be gone, got %v", err)
	}
}

func TestCancelMatchingByCategoryInRange(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.mustSchedule(t, EventDraft{
		Title: "Кружок", Start: time.Date(2026, time.January, 8, 16, 0, 0, 0, f.loc),
		DurationMinutes: 60, CreatorActorID: 111, Category: CategoryChildren,
	})
	f.mustSchedule(t, EventDraft{
		Title: "Ремонт крана", Start: time.Date(2026, time.January, 9, 12, 0, 0, 0, f.loc),
		DurationMinutes: 60, CreatorActorID: 111, Category: CategoryRepair,
	})
	f.mustSchedule(t, EventDraft{
		Title: "Чужой кружок", Start: time.Date(2026, time.January, 12, 16, 0, 0, 0, f.loc),
		DurationMinutes: 60, CreatorActorID: 222, Category: CategoryChildren,
	})
	f.mustSchedule(t, EventDraft{
		Title: "Поздний кружок", Start: time.Date(2026, time.February, 2, 16, 0, 0, 0, f.loc),
		DurationMinutes: 60, CreatorActorID: 111, Category: CategoryChildren,
	})

	children := CategoryChildren
	start := date(2026, time.January, 7)
	end := date(2026, time.January, 15)
	result, err := f.svc.CancelMatching(ctx, CancelRequest{
		CreatorActorID: 111,
		StartDate:      &start,
		EndDate:        &end,
		Category:       &children,
	})
	if err != nil {
		t.Fatalf("CancelMatching returned error: %v", err)
	}
	if !result.Success || result.CancelledCount != 1 {
		t.Fatalf("only the in-range owned children event matches: %+v", result)
	}

	remaining, err := f.svc.AgendaForPeriod(ctx, date(2026, time.January, 1), date(2026, time.February, 28))
	if err != nil {
		t.Fatalf("AgendaForPeriod returned error: %v", err)
	}
	titles := make(map[string]bool, len(remaining))
	for _, event := range remaining {
		titles[event.Title] = true
	}
	if titles["Кружок"] {
		t.Fatal("the matched event must be cancelled")
	}
	for _, title := range []string{"Ремонт крана", "Чужой кружок", "Поздний кружок"} {
		if !titles[title] {
			t.Fatalf("%s must survive the filtered cancellation", title)
		}
	}
}

func TestCancelMatchingValidation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	var vErr *validation.Error

	_, err := f.svc.CancelMatching(ctx, CancelRequest{CreatorActorID: 111})
	if !errors.As(err, &vErr) {
		t.Fatalf("neither ids nor range must be a validation error, got %v", err)
	}

	start := date(2026, time.January, 7)
	_, err = f.svc.CancelMatching(ctx, CancelRequest{CreatorActorID: 111, StartDate: &start})
	if !errors.As(err, &vErr) {
		t.Fatalf("half a range must be a validation error, got %v", err)
	}

	end := date(2026, time.January, 15)
	result, err := f.svc.CancelMatching(ctx, CancelRequest{
		CreatorActorID: 111, StartDate: &start, EndDate: &end,
	})
	if err != nil {
		t.Fatalf("CancelMatching returned error: %v", err)
	}
	if result.Success || result.Message != "no matching events found" {
		t.Fatalf("an empty match is a non-success result: %+v", result)
	}
}

func TestCancelNotifiesOnceForBatch(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	day := time.Date(2026, time.January, 10, 0, 0, 0, 0, f.loc)
	first := f.mustSchedule(t, EventDraft{
		Title: "Первое", Start: day.Add(10 * time.Hour), DurationMinutes: 60,
		CreatorActorID: 111, Category: CategoryHome,
	})
	second := f.mustSchedule(t, EventDraft{
		Title: "Второе", Start: day.Add(14 * time.Hour), DurationMinutes: 60,
		CreatorActorID: 111, Category: CategoryHome,
	})

	if _, err := f.svc.CancelEvents(ctx, []int64{first, second}, 111); err != nil {
		t.Fatalf("CancelEvents returned error: %v", err)
	}

	if len(f.notifier.calls) != 1 {
		t.Fatalf("the batch sends one notification, got %d", len(f.notifier.calls))
	}
	call := f.notifier.calls[0]
	if call.kind != "cancelled" || len(call.events) != 2 {
		t.Fatalf("unexpected notification: %+v", call)
	}
}

func TestCurrentDateTime(t *testing.T) {
	f := newEngineFixture(t)

	// 2026-01-10 is a Saturday.
	f.clock.Set(time.Date(2026, time.January, 10, 15, 30, 0, 0, f.loc))

	now := f.svc.CurrentDateTime()
	if now.DateISO != "2026-01-10" {
		t.Errorf("unexpected date: %q", now.DateISO)
	}
	if now.WeekdayRU != "суббота" {
		t.Errorf("unexpected weekday: %q", now.WeekdayRU)
	}
	if now.HumanRU != "суббота, 10 января 2026" {
		t.Errorf("unexpected human line: %q", now.HumanRU)
	}
	if now.NowISO != "2026-01-10T15:30:00+03:00" {
		t.Errorf("unexpected ISO now: %q", now.NowISO)
	}
}
