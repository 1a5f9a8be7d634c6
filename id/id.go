// Package id defines TypeID-based identifiers for cap-table records.
//
// Every record uses the same ID struct; the prefix names the record kind.
// IDs are K-sortable (UUIDv7-based), globally unique and URL-safe in the
// format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the record kind encoded in a TypeID.
type Prefix string

// Prefix constants for every persisted record kind.
const (
	PrefixAccount  Prefix = "acct" // Company whose cap table is tracked
	PrefixMember   Prefix = "mbr"  // Founder or team member
	PrefixInvestor Prefix = "inv"  // Investor stake
	PrefixRound    Prefix = "rnd"  // Funding round
	PrefixRevision Prefix = "rev"  // Committed cap-table revision
)

// ID is the identifier type for all cap-table records.
//
//nolint:recvcheck // Value receivers for reads, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates an ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string such as "mbr_01h2xcejqtf2nbrexx3vqjhp41".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and checks that its prefix is expected.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}
	return parsed, nil
}

// ParseHolder parses the ID of an equity holder, which is either a member
// or an investor.
func ParseHolder(s string) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if !parsed.IsHolder() {
		return Nil, fmt.Errorf("id: %q is not a member or investor id", s)
	}
	return parsed, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}
	return parsed
}

// ──────────────────────────────────────────────────
// Typed aliases
// ──────────────────────────────────────────────────

// AccountID identifies the company a cap table belongs to (prefix: "acct").
type AccountID = ID

// MemberID identifies a founder or team member (prefix: "mbr").
type MemberID = ID

// InvestorID identifies an investor stake (prefix: "inv").
type InvestorID = ID

// RoundID identifies a funding round (prefix: "rnd").
type RoundID = ID

// RevisionID identifies a committed cap-table revision (prefix: "rev").
type RevisionID = ID

// NewAccountID generates an account ID.
func NewAccountID() ID { return New(PrefixAccount) }

// NewMemberID generates a member ID.
func NewMemberID() ID { return New(PrefixMember) }

// NewInvestorID generates an investor ID.
func NewInvestorID() ID { return New(PrefixInvestor) }

// NewRoundID generates a round ID.
func NewRoundID() ID { return New(PrefixRound) }

// NewRevisionID generates a revision ID.
func NewRevisionID() ID { return New(PrefixRevision) }

// ParseAccountID parses s and validates the "acct" prefix.
func ParseAccountID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAccount) }

// ParseMemberID parses s and validates the "mbr" prefix.
func ParseMemberID(s string) (ID, error) { return ParseWithPrefix(s, PrefixMember) }

// ParseInvestorID parses s and validates the "inv" prefix.
func ParseInvestorID(s string) (ID, error) { return ParseWithPrefix(s, PrefixInvestor) }

// ParseRoundID parses s and validates the "rnd" prefix.
func ParseRoundID(s string) (ID, error) { return ParseWithPrefix(s, PrefixRound) }

// ParseRevisionID parses s and validates the "rev" prefix.
func ParseRevisionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixRevision) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the prefix component, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this is the zero value.
func (i ID) IsNil() bool { return !i.valid }

// IsHolder reports whether the ID names a member or an investor.
func (i ID) IsHolder() bool {
	p := i.Prefix()
	return p == PrefixMember || p == PrefixInvestor
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}
	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer. Nil is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // NULL for optional references
	}
	return i.inner.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
