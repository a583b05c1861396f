package storage

import "errors"

// Sentinel errors shared by every store implementation. Signals, trades,
// runs, and equity curves are written once and never updated, so a key
// collision is either a caller bug or a replayed frame.
var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when an insert collides with an existing
	// signal, trade, run, or equity curve key.
	ErrDuplicateKey = errors.New("duplicate key: records are write-once")

	// ErrInvalidInput is returned when validation fails before any write
	// is attempted.
	ErrInvalidInput = errors.New("invalid input")
)
