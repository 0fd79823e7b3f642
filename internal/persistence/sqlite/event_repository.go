package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/family-scheduler/internal/persistence"
)

// overlapScanWindow bounds the start-time scan used for overlap queries.
// Events are assumed not to exceed 24 hours, so a one-day margin on either
// side of the candidate interval cannot miss a conflict.
const overlapScanWindow = 24 * time.Hour

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	pool *ConnectionPool
	loc  *time.Location
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool, loc *time.Location) *EventRepository {
	return &EventRepository{pool: pool, loc: loc}
}

// CreateEvent inserts the event and its participant rows in one transaction.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event, participantUserIDs []int64) (int64, error) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var eventID int64
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO events (
				title, start_time, duration_minutes, creator_actor_id,
				status, category, created_at, partner_notified
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			event.Title,
			toStored(event.Start),
			event.DurationMinutes,
			event.CreatorActorID,
			event.Status,
			event.Category,
			toStored(event.CreatedAt),
			boolToInt(event.PartnerNotified),
		)
		if err != nil {
			return mapError(err)
		}

		eventID, err = result.LastInsertId()
		if err != nil {
			return mapError(err)
		}

		for _, userID := range participantUserIDs {
			if err := insertParticipant(tx, eventID, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return eventID, nil
}

// GetEvent retrieves an event by id.
func (r *EventRepository) GetEvent(ctx context.Context, id int64) (persistence.Event, error) {
	row := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, title, start_time, duration_minutes, creator_actor_id,
		       status, category, created_at, partner_notified
		FROM events
		WHERE id = ?
	`, id)
	return r.scanEvent(row)
}

// UpdateEventFields applies a structured partial update.
func (r *EventRepository) UpdateEventFields(ctx context.Context, id int64, patch persistence.EventPatch) error {
	if patch.IsEmpty() {
		return persistence.ErrConstraintViolation
	}

	var (
		setParts []string
		args     []any
	)
	if patch.Title != nil {
		setParts = append(setParts, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Start != nil {
		setParts = append(setParts, "start_time = ?")
		args = append(args, toStored(*patch.Start))
	}
	if patch.DurationMinutes != nil {
		setParts = append(setParts, "duration_minutes = ?")
		args = append(args, *patch.DurationMinutes)
	}
	if patch.Category != nil {
		setParts = append(setParts, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Status != nil {
		setParts = append(setParts, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.PartnerNotified != nil {
		setParts = append(setParts, "partner_notified = ?")
		args = append(args, boolToInt(*patch.PartnerNotified))
	}
	args = append(args, id)

	result, err := r.pool.DB().ExecContext(ctx,
		"UPDATE events SET "+strings.Join(setParts, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteEvent removes the event and its participant rows in one transaction.
func (r *EventRepository) DeleteEvent(ctx context.Context, id int64) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM event_participants WHERE event_id = ?", id); err != nil {
			return mapError(err)
		}

		result, err := tx.Exec("DELETE FROM events WHERE id = ?", id)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return mapError(err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// MarkPartnerNotified sets the partner-notified flag on an event.
func (r *EventRepository) MarkPartnerNotified(ctx context.Context, id int64) error {
	result, err := r.pool.DB().ExecContext(ctx,
		"UPDATE events SET partner_notified = 1 WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// EventsOverlapping returns all events whose interval intersects [start, end).
// The stored scan is bounded by start_time; the half-open interval math runs
// here because SQLite has no native interval-overlap query.
func (r *EventRepository) EventsOverlapping(ctx context.Context, start, end time.Time) ([]persistence.Event, error) {
	scanStart := start.Add(-overlapScanWindow)
	scanEnd := end.Add(overlapScanWindow)

	candidates, err := r.queryEvents(ctx, `
		SELECT id, title, start_time, duration_minutes, creator_actor_id,
		       status, category, created_at, partner_notified
		FROM events
		WHERE start_time >= ? AND start_time <= ?
		ORDER BY start_time ASC
	`, toStored(scanStart), toStored(scanEnd))
	if err != nil {
		return nil, err
	}

	var overlapping []persistence.Event
	for _, candidate := range candidates {
		if candidate.Start.Before(end) && start.Before(candidate.End()) {
			overlapping = append(overlapping, candidate)
		}
	}
	return overlapping, nil
}

// EventsInRange returns all events starting within [start, end] inclusive.
func (r *EventRepository) EventsInRange(ctx context.Context, start, end time.Time) ([]persistence.Event, error) {
	return r.queryEvents(ctx, `
		SELECT id, title, start_time, duration_minutes, creator_actor_id,
		       status, category, created_at, partner_notified
		FROM events
		WHERE start_time >= ? AND start_time <= ?
		ORDER BY start_time ASC
	`, toStored(start), toStored(end))
}

// EventsByCreatorInRange returns the creator's events starting within
// [start, end] inclusive.
func (r *EventRepository) EventsByCreatorInRange(ctx context.Context, creatorActorID int64, start, end time.Time) ([]persistence.Event, error) {
	return r.queryEvents(ctx, `
		SELECT id, title, start_time, duration_minutes, creator_actor_id,
		       status, category, created_at, partner_notified
		FROM events
		WHERE creator_actor_id = ? AND start_time >= ? AND start_time <= ?
		ORDER BY start_time ASC
	`, creatorActorID, toStored(start), toStored(end))
}

// AddParticipant links a user to an event; duplicates are silently ignored.
func (r *EventRepository) AddParticipant(ctx context.Context, eventID, userID int64) error {
	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT OR IGNORE INTO event_participants (event_id, user_id, created_at)
		VALUES (?, ?, ?)
	`, eventID, userID, toStored(time.Now()))
	return mapError(err)
}

// ParticipantIDs returns the user ids linked to an event.
func (r *EventRepository) ParticipantIDs(ctx context.Context, eventID int64) ([]int64, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT user_id
		FROM event_participants
		WHERE event_id = ?
		ORDER BY user_id ASC
	`, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]persistence.Event, error) {
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return events, nil
}

func (r *EventRepository) scanEvent(row rowScanner) (persistence.Event, error) {
	var (
		event               persistence.Event
		startStr, createdAt string
		notified            int
	)
	err := row.Scan(
		&event.ID,
		&event.Title,
		&startStr,
		&event.DurationMinutes,
		&event.CreatorActorID,
		&event.Status,
		&event.Category,
		&createdAt,
		&notified,
	)
	if err != nil {
		return persistence.Event{}, mapError(err)
	}

	if event.Start, err = fromStored(startStr, r.loc); err != nil {
		return persistence.Event{}, err
	}
	if event.CreatedAt, err = fromStored(createdAt, r.loc); err != nil {
		return persistence.Event{}, err
	}
	event.PartnerNotified = notified != 0
	return event, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func insertParticipant(tx *sql.Tx, eventID, userID int64) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO event_participants (event_id, user_id, created_at)
		VALUES (?, ?, ?)
	`, eventID, userID, toStored(time.Now()))
	return mapError(err)
}
