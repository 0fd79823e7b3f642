package application

import "errors"

var (
	// ErrAlreadyExists is returned when a user with the same actor id is
	// registered twice.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("application: not found")
)
