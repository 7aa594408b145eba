package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Work book errors
	ErrNoWorkBook    = errors.New("entity has no work book attached")
	ErrWorkBookFull  = errors.New("work book is full")
	ErrUnknownJob    = errors.New("job record not found")
	ErrBadTransition = errors.New("invalid job state transition")

	// Session errors
	ErrSessionBusy   = errors.New("worker is already in a barter session")
	ErrSessionClosed = errors.New("barter session is closed")

	// Item errors
	ErrItemGone = errors.New("referenced item no longer exists")

	// Money errors
	ErrNegativeAmount = errors.New("coin amount cannot be negative")
)
