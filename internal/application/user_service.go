package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/family-scheduler/internal/persistence"
	"github.com/example/family-scheduler/internal/timeparse"
	"github.com/example/family-scheduler/internal/validation"
)

const defaultDigestTime = "07:00"

// UserInput carries the caller-supplied fields for registering or updating a
// household member.
type UserInput struct {
	ActorID        int64
	Name           string
	PartnerActorID *int64
	DigestTime     string
}

// UserService orchestrates validation and persistence for household members.
type UserService struct {
	users persistence.UserRepository
	now   func() time.Time
}

// NewUserService wires dependencies for the user service.
func NewUserService(users persistence.UserRepository, now func() time.Time) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, now: now}
}

// RegisterUser validates input and persists a new household member.
func (s *UserService) RegisterUser(ctx context.Context, input UserInput) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	normalized := normalizeUserInput(input)
	if vErr := validateUserInput(normalized); vErr.HasErrors() {
		return User{}, vErr
	}

	record := persistence.User{
		ActorID:        normalized.ActorID,
		Name:           normalized.Name,
		PartnerActorID: normalized.PartnerActorID,
		DigestTime:     normalized.DigestTime,
		CreatedAt:      s.now().UTC(),
	}

	id, err := s.users.CreateUser(ctx, record)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return User{}, ErrAlreadyExists
		}
		return User{}, err
	}
	record.ID = id

	return fromPersistenceUser(record), nil
}

// GetUser returns the member with the given actor id.
func (s *UserService) GetUser(ctx context.Context, actorID int64) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	record, err := s.users.GetUserByActorID(ctx, actorID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}

	return fromPersistenceUser(record), nil
}

// UpdateUser replaces the mutable fields of an existing member.
func (s *UserService) UpdateUser(ctx context.Context, input UserInput) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	existing, err := s.users.GetUserByActorID(ctx, input.ActorID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}

	normalized := normalizeUserInput(input)
	if vErr := validateUserInput(normalized); vErr.HasErrors() {
		return User{}, vErr
	}

	updated := existing
	updated.Name = normalized.Name
	updated.PartnerActorID = normalized.PartnerActorID
	updated.DigestTime = normalized.DigestTime

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}

	return fromPersistenceUser(updated), nil
}

// ListUsers returns all household members ordered by actor id.
func (s *UserService) ListUsers(ctx context.Context) ([]User, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}

	records, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]User, 0, len(records))
	for _, record := range records {
		out = append(out, fromPersistenceUser(record))
	}
	return out, nil
}

// CountUsers reports the number of registered members.
func (s *UserService) CountUsers(ctx context.Context) (int, error) {
	if s == nil || s.users == nil {
		return 0, fmt.Errorf("user repository not configured")
	}
	return s.users.CountUsers(ctx)
}

func normalizeUserInput(input UserInput) UserInput {
	out := input
	out.Name = strings.TrimSpace(input.Name)
	out.DigestTime = strings.TrimSpace(input.DigestTime)
	if out.DigestTime == "" {
		out.DigestTime = defaultDigestTime
	}
	return out
}

func validateUserInput(input UserInput) *validation.Error {
	vErr := &validation.Error{}

	if input.ActorID <= 0 {
		vErr.Add("actor_id", "actor id must be positive")
	}
	if input.Name == "" {
		vErr.Add("name", "name is required")
	}
	if input.PartnerActorID != nil && *input.PartnerActorID <= 0 {
		vErr.Add("partner_actor_id", "partner actor id must be positive")
	}
	if _, _, err := timeparse.ParseClock("digest_time", input.DigestTime); err != nil {
		vErr.Add("digest_time", "digest time must look like 07:30")
	}

	return vErr
}
