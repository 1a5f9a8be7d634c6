package sqlite

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	sqlite3 "modernc.org/sqlite/lib"
)

// codedError mimics the driver error, which exposes its extended result
// code through Code.
type codedError struct{ code int }

func (e codedError) Error() string { return fmt.Sprintf("sqlite error %d", e.code) }
func (e codedError) Code() int     { return e.code }

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique constraint", codedError{sqlite3.SQLITE_CONSTRAINT_UNIQUE}, true},
		{"primary key constraint", fmt.Errorf("insert: %w", codedError{sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY}), true},
		{"not null constraint", codedError{sqlite3.SQLITE_CONSTRAINT_NOTNULL}, false},
		{"busy", codedError{sqlite3.SQLITE_BUSY}, false},
		{"flattened driver error", errors.New("constraint failed: UNIQUE constraint failed: captable_revisions.account_id"), true},
		{"unrelated error", errors.New("disk I/O error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
