package equity

import "errors"

var (
	// ErrInvalidPercent is returned when a new stake is outside (0, 100).
	ErrInvalidPercent = errors.New("equity: stake must be greater than 0 and less than 100")

	// ErrDuplicateID is returned when a new stake reuses an existing id.
	ErrDuplicateID = errors.New("equity: duplicate entry id")

	// ErrNotFound is returned when removing an id the table does not hold.
	ErrNotFound = errors.New("equity: entry not found")

	// ErrInvalidEntry is returned when a new stake has no id or an unknown category.
	ErrInvalidEntry = errors.New("equity: invalid entry")

	// ErrCorruptState is returned when the input records break the table
	// invariants, or a removal would divide by a zero remaining total.
	ErrCorruptState = errors.New("equity: corrupt cap table")

	// ErrInvariantViolation is returned when the rounding residual after
	// scaling exceeds the normalization tolerance.
	ErrInvariantViolation = errors.New("equity: normalization residual exceeds tolerance")

	// ErrTableConsumed is returned when a table that already produced a
	// successor is mutated again.
	ErrTableConsumed = errors.New("equity: table already mutated")
)
