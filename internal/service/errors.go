package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a bot is not found
	ErrNotFound = errors.New("bot not found")

	// ErrConflict is returned when a create or rename collides with a live bot's name
	ErrConflict = errors.New("bot name already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when the caller is not authenticated
	ErrUnauthorized = errors.New("unauthorized")
)
