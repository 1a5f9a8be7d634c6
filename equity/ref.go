package equity

import (
	"github.com/google/uuid"

	"github.com/xraph/captable/id"
)

// Ref identifies an entry within a table. It is either Persisted, for a
// record that already exists in the store, or Pending, for a stake being
// added that has no record yet.
type Ref interface {
	// Key is unique across both variants and stable for the ref's lifetime.
	Key() string
	String() string

	isRef()
}

// Persisted refers to a stored member or investor record.
type Persisted struct {
	ID id.ID
}

// Pending refers to a stake that has not been written yet. The token is
// local to one operation.
type Pending struct {
	Token uuid.UUID
}

// NewPending returns a Pending ref with a fresh token.
func NewPending() Pending { return Pending{Token: uuid.New()} }

// RefFor wraps a stored record ID.
func RefFor(recordID id.ID) Persisted { return Persisted{ID: recordID} }

func (p Persisted) Key() string    { return "p:" + p.ID.String() }
func (p Persisted) String() string { return p.ID.String() }
func (Persisted) isRef()           {}

// MarshalText renders the record ID.
func (p Persisted) MarshalText() ([]byte, error) { return p.ID.MarshalText() }

func (p Pending) Key() string    { return "t:" + p.Token.String() }
func (p Pending) String() string { return "pending:" + p.Token.String() }
func (Pending) isRef()           {}

// MarshalText renders the token with a "pending:" prefix.
func (p Pending) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func validRef(r Ref) bool {
	switch v := r.(type) {
	case Persisted:
		return !v.ID.IsNil()
	case Pending:
		return v.Token != uuid.Nil
	default:
		return false
	}
}
