package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique key such as username or email is already taken.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a record breaks a CHECK or NOT NULL rule.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced room or user does not exist.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrOverlap is returned when the datastore itself rejects overlapping reservations.
	ErrOverlap = errors.New("persistence: overlapping reservation")
	// ErrUnavailable is returned when the datastore cannot be reached or is locked.
	ErrUnavailable = errors.New("persistence: datastore unavailable")
)
