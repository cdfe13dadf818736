package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrUnavailable marks a transient store fault (network, timeout,
	// connection loss). It is the only error class callers may retry.
	ErrUnavailable = errors.New("store unavailable")
)
