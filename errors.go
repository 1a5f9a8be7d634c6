package captable

import (
	"errors"
	"fmt"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/lock"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("captable: not found")
	ErrAlreadyExists = errors.New("captable: already exists")
	ErrInvalidInput  = errors.New("captable: invalid input")

	// Record errors
	ErrMemberNotFound   = errors.New("captable: member not found")
	ErrInvestorNotFound = errors.New("captable: investor not found")
	ErrRoundNotFound    = errors.New("captable: round not found")
	ErrRoundMismatch    = errors.New("captable: round belongs to another account")

	// Revision errors
	ErrRevisionNotFound = errors.New("captable: no revision for account")
	ErrRevisionConflict = errors.New("captable: revision already committed")
	ErrLockNotAcquired  = lock.ErrNotAcquired

	// Store errors
	ErrStoreClosed     = errors.New("captable: store is closed")
	ErrMigrationFailed = errors.New("captable: migration failed")
)

// Engine errors, re-exported so callers can match them without importing
// the equity package.
var (
	ErrInvalidPercent     = equity.ErrInvalidPercent
	ErrDuplicateID        = equity.ErrDuplicateID
	ErrInvalidEntry       = equity.ErrInvalidEntry
	ErrCorruptState       = equity.ErrCorruptState
	ErrInvariantViolation = equity.ErrInvariantViolation
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("captable: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError collects several errors.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "captable: no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("captable: %d errors occurred: %v", len(e.Errors), e.Errors[0])
	}
}

// Add appends err if it is not nil.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors reports whether any error was added.
func (e MultiError) HasErrors() bool { return len(e.Errors) > 0 }

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// ErrOrNil returns e when it holds errors, nil otherwise.
func (e MultiError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrInvestorNotFound) ||
		errors.Is(err, ErrRoundNotFound) ||
		errors.Is(err, ErrRevisionNotFound) ||
		errors.Is(err, equity.ErrNotFound)
}

// IsConflict reports whether err came from a concurrent commit.
func IsConflict(err error) bool {
	return errors.Is(err, ErrRevisionConflict)
}

// IsRetryable reports whether the operation may succeed if run again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRevisionConflict) ||
		errors.Is(err, ErrLockNotAcquired)
}

// IsCorrupt reports whether stored records break the cap-table invariants
// or the arithmetic did. Both indicate a bug rather than bad input.
func IsCorrupt(err error) bool {
	return errors.Is(err, equity.ErrCorruptState) ||
		errors.Is(err, equity.ErrInvariantViolation)
}
