package inventory

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrUnknownItemKind    = errors.New("unknown equipment kind")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvariantViolation = errors.New("reservation invariant violated")
)
