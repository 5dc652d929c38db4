package strategy

import "errors"

var (
	// ErrInsufficientData reports fewer eligible instruments than the
	// configured top/bottom slice counts require. The caller is expected to
	// skip the cycle rather than trade a partial selection.
	ErrInsufficientData = errors.New("strategy: not enough eligible instruments for selection")

	// ErrInvalidReturn reports a malformed return entry (empty or duplicate
	// symbol). Instruments without enough history must be filtered out before
	// ranking, never passed through as zero.
	ErrInvalidReturn = errors.New("strategy: invalid return entry")
)
