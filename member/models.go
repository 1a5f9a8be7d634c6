package member

import (
	"maps"
	"time"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/types"
)

// Role is a member's place on the cap table.
type Role string

const (
	RoleFounder Role = "founder"
	RoleTeam    Role = "team"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleFounder || r == RoleTeam }

// Member is a founder or team member holding equity in an account.
type Member struct {
	types.Entity
	ID       id.MemberID       `json:"id"`
	Name     string            `json:"name"`
	Title    string            `json:"title,omitempty"`
	Email    string            `json:"email,omitempty"`
	Role     Role              `json:"role"`
	Equity   types.Percent     `json:"equity_percent"`
	JoinedAt time.Time         `json:"joined_at"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Category maps the role onto the cap-table category.
func (m *Member) Category() equity.Category {
	if m.Role == RoleFounder {
		return equity.Founder
	}
	return equity.Team
}

// Entry returns the member's stake as a cap-table entry.
func (m *Member) Entry() equity.Entry {
	return equity.Entry{
		Ref:      equity.RefFor(m.ID),
		Category: m.Category(),
		Name:     m.Name,
		Equity:   m.Equity,
	}
}

// Clone returns a copy that shares nothing with m.
func (m *Member) Clone() *Member {
	c := *m
	c.Metadata = maps.Clone(m.Metadata)
	return &c
}
