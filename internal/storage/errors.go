package storage

import "errors"

var (
	// ErrNotFound is returned when no record matches the requested code or id.
	ErrNotFound = errors.New("not found")

	// ErrCodeTaken is returned when a short code is already used by another record.
	ErrCodeTaken = errors.New("short code already exists")
)
