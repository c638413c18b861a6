// Package apperr defines the sentinel errors shared by services and handlers.
// Services wrap these with context via fmt.Errorf and %w; handlers pick the
// HTTP status with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidState        = errors.New("invalid state")
	ErrConflict            = errors.New("conflict")
	ErrInsufficientPlayers = errors.New("not enough players")
	ErrNoContent           = errors.New("no content available")
	ErrPersistence         = errors.New("persistence failure")
)
