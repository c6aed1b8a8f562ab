package priority

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrInvalidInput = errors.New("invalid incident report")
)
