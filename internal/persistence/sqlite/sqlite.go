package sqlite

import (
	"context"
	"fmt"
	"time"
)

// Storage bundles the SQLite-backed repositories behind a single handle.
type Storage struct {
	pool *ConnectionPool
	loc  *time.Location

	Users  *UserRepository
	Events *EventRepository
}

// Open connects to the SQLite database at dsn. Stored timestamps are
// UTC-canonical; loc is the zone they are converted to on read.
func Open(dsn string, loc *time.Location) (*Storage, error) {
	if loc == nil {
		loc = time.UTC
	}

	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}

	s := &Storage{pool: pool, loc: loc}
	s.Users = NewUserRepository(pool, loc)
	s.Events = NewEventRepository(pool, loc)
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping tests the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the schema when it does not exist yet.
func (s *Storage) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			actor_id INTEGER UNIQUE NOT NULL,
			name TEXT NOT NULL,
			partner_actor_id INTEGER,
			digest_time TEXT NOT NULL DEFAULT '07:00',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			start_time TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
			creator_actor_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'proposed',
			category TEXT NOT NULL,
			created_at TEXT NOT NULL,
			partner_notified INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (creator_actor_id) REFERENCES users(actor_id)
		)`,
		`CREATE TABLE IF NOT EXISTS event_participants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			UNIQUE (event_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_start_creator
			ON events(start_time, creator_actor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_actor_id
			ON users(actor_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// toStored renders a timestamp in the canonical UTC storage form.
func toStored(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// fromStored parses a stored UTC timestamp and converts it to loc.
func fromStored(value string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored timestamp %q: %w", value, err)
	}
	return t.In(loc), nil
}
