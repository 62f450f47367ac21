package models

import "errors"

// Error taxonomy shared by the calculator, the decider and the collaborators.
// Callers wrap these with fmt.Errorf("...: %w") and test them with errors.Is.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrMalformedData       = errors.New("malformed data")
	ErrNotify              = errors.New("notification failed")
)
