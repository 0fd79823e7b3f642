// Package digest delivers each household member their daily agenda at the
// member's configured digest time.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/family-scheduler/internal/application"
	"github.com/example/family-scheduler/internal/notify"
	"github.com/example/family-scheduler/internal/timeparse"
)

// Scheduler runs one cron entry per user, firing daily at the user's digest
// time in the configured zone.
type Scheduler struct {
	calendar *application.CalendarService
	users    *application.UserService
	sender   notify.Sender
	loc      *time.Location
	logger   *slog.Logger
	cron     *cron.Cron
}

// New builds a digest scheduler. Entries are registered by Start.
func New(calendar *application.CalendarService, users *application.UserService, sender notify.Sender, loc *time.Location, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		calendar: calendar,
		users:    users,
		sender:   sender,
		loc:      loc,
		logger:   logger,
		cron:     cron.New(cron.WithLocation(loc)),
	}
}

// Start registers a cron entry for every known user and starts the ticker.
// Users registered after Start are picked up on the next Start.
func (s *Scheduler) Start(ctx context.Context) error {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users for digest: %w", err)
	}

	for _, user := range users {
		hour, minute, err := timeparse.ParseClock("digest_time", user.DigestTime)
		if err != nil {
			s.logger.Warn("skipping digest entry with bad time",
				"actor_id", user.ActorID, "digest_time", user.DigestTime)
			continue
		}

		actorID := user.ActorID
		spec := fmt.Sprintf("%d %d * * *", minute, hour)
		if _, err := s.cron.AddFunc(spec, func() {
			s.deliver(context.Background(), actorID)
		}); err != nil {
			return fmt.Errorf("add digest entry for actor %d: %w", actorID, err)
		}
		s.logger.Info("digest entry registered", "actor_id", actorID, "at", user.DigestTime)
	}

	s.cron.Start()
	return nil
}

// Stop halts the ticker and waits for any running delivery to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) deliver(ctx context.Context, actorID int64) {
	events, err := s.calendar.Agenda(ctx, nil)
	if err != nil {
		s.logger.Error("digest agenda lookup failed", "actor_id", actorID, "error", err)
		return
	}

	if err := s.sender.Send(ctx, actorID, formatDigest(events, s.loc)); err != nil {
		s.logger.Error("digest delivery failed", "actor_id", actorID, "error", err)
		return
	}
	s.logger.Info("digest delivered", "actor_id", actorID, "events", len(events))
}

func formatDigest(events []application.Event, loc *time.Location) string {
	if len(events) == 0 {
		return "На сегодня ничего не запланировано."
	}

	var sb strings.Builder
	sb.WriteString("План на сегодня:\n")
	for _, event := range events {
		fmt.Fprintf(&sb, "- %s %s (%d мин)\n",
			event.Start.In(loc).Format("15:04"), event.Title, event.DurationMinutes)
	}
	return strings.TrimRight(sb.String(), "\n")
}
