package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/family-scheduler/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool *ConnectionPool
	loc  *time.Location
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool, loc *time.Location) *UserRepository {
	return &UserRepository{pool: pool, loc: loc}
}

// CreateUser inserts a new user and returns the assigned row id.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) (int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	var partner sql.NullInt64
	if user.PartnerActorID != nil {
		partner.Int64 = *user.PartnerActorID
		partner.Valid = true
	}

	result, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO users (actor_id, name, partner_actor_id, digest_time, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ActorID, user.Name, partner, user.DigestTime, toStored(user.CreatedAt))
	if err != nil {
		return 0, mapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

// GetUserByActorID retrieves a user by actor id.
func (r *UserRepository) GetUserByActorID(ctx context.Context, actorID int64) (persistence.User, error) {
	row := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, actor_id, name, partner_actor_id, digest_time, created_at
		FROM users
		WHERE actor_id = ?
	`, actorID)
	return r.scanUser(row)
}

// UpdateUser overwrites the mutable user attributes.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	var partner sql.NullInt64
	if user.PartnerActorID != nil {
		partner.Int64 = *user.PartnerActorID
		partner.Valid = true
	}

	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE users
		SET name = ?, partner_actor_id = ?, digest_time = ?
		WHERE actor_id = ?
	`, user.Name, partner, user.DigestTime, user.ActorID)
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

// ListUsers returns all users ordered by actor id ascending.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, actor_id, name, partner_actor_id, digest_time, created_at
		FROM users
		ORDER BY actor_id ASC
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

// CountUsers reports the number of stored users.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.pool.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (persistence.User, error) {
	var (
		user      persistence.User
		partner   sql.NullInt64
		createdAt string
	)
	err := row.Scan(&user.ID, &user.ActorID, &user.Name, &partner, &user.DigestTime, &createdAt)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	if partner.Valid {
		user.PartnerActorID = &partner.Int64
	}
	if user.CreatedAt, err = fromStored(createdAt, r.loc); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}
