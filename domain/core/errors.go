package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrOrderingViolation = errors.New("sample values not in non-decreasing order")
	ErrInvalidGroup      = errors.New("grouped value has zero count")
	ErrEmptySample       = errors.New("sample sizes must both be positive")
	ErrInvalidAlpha      = errors.New("alpha must be in the open interval (0, 1)")
	ErrUnknownAltHyp     = errors.New("unknown alternative hypothesis")
	ErrTieOverflow       = errors.New("too many tied observations for the tie correction term")

	// Degenerate data
	ErrExcessiveTies = errors.New("too many rank ties")

	// Defects. Never returned to callers; raised with panic.
	ErrInvariantViolated = errors.New("internal invariant violated")
)

// Error constructors with context
func NewOrderingError(prev, curr float64) error {
	return fmt.Errorf("%w: %v follows %v", ErrOrderingViolation, curr, prev)
}

func NewEmptySampleError(nX, nY uint64) error {
	return fmt.Errorf("%w: n_x=%d, n_y=%d", ErrEmptySample, nX, nY)
}

func NewAlphaError(alpha float64) error {
	return fmt.Errorf("%w: got %v", ErrInvalidAlpha, alpha)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrOrderingViolation) ||
		errors.Is(err, ErrInvalidGroup) ||
		errors.Is(err, ErrEmptySample) ||
		errors.Is(err, ErrInvalidAlpha) ||
		errors.Is(err, ErrUnknownAltHyp) ||
		errors.Is(err, ErrTieOverflow)
}

func IsDegenerateDataError(err error) bool {
	return errors.Is(err, ErrExcessiveTies)
}
