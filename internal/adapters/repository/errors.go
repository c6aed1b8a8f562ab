package repository

import "errors"

// Sentinel kinds for victim queue errors.
var (
	ErrNotFound          = errors.New("victim not found")
	ErrInvalidLimit      = errors.New("invalid list limit")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMissingVictimID   = errors.New("report has no victim id")
)
