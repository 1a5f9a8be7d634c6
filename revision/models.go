// Package revision holds the persisted cap table. Each committed change
// appends a revision carrying every member and investor with their stakes;
// the latest revision of an account is the source of truth.
package revision

import (
	"maps"
	"slices"
	"time"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/investor"
	"github.com/xraph/captable/member"
	"github.com/xraph/captable/types"
)

// Action names the use case that produced a revision.
type Action string

const (
	ActionMemberAdded     Action = "member.added"
	ActionMemberRemoved   Action = "member.removed"
	ActionInvestorAdded   Action = "investor.added"
	ActionInvestorRemoved Action = "investor.removed"
	ActionEquityAdjusted  Action = "equity.adjusted"
	ActionRoundDeleted    Action = "round.deleted"
	ActionReconciled      Action = "captable.reconciled"
	ActionProfileUpdated  Action = "holder.updated"
	ActionImported        Action = "captable.imported"
)

// Revision is one committed state of an account's cap table. Numbers start
// at 1 and increase by one per commit; (AccountID, Number) is unique.
type Revision struct {
	ID        id.RevisionID        `json:"id"`
	AccountID string               `json:"account_id"`
	Number    int64                `json:"number"`
	Action    Action               `json:"action"`
	Members   []*member.Member     `json:"members"`
	Investors []*investor.Investor `json:"investors"`
	Total     types.Percent        `json:"total_equity"`
	CreatedAt time.Time            `json:"created_at"`
	Metadata  map[string]string    `json:"metadata,omitempty"`
}

// Initial returns the empty revision 0 an account starts from. It is
// never stored.
func Initial(accountID string) *Revision {
	return &Revision{AccountID: accountID}
}

// Entries returns every stake in the order the holders joined the table,
// by creation time. Holders created at the same instant keep stored order,
// members before investors. This order decides which of two equal largest
// stakes absorbs a rounding residual.
func (r *Revision) Entries() []equity.Entry {
	type held struct {
		at    time.Time
		entry equity.Entry
	}
	all := make([]held, 0, len(r.Members)+len(r.Investors))
	for _, m := range r.Members {
		all = append(all, held{at: m.CreatedAt, entry: m.Entry()})
	}
	for _, inv := range r.Investors {
		all = append(all, held{at: inv.CreatedAt, entry: inv.Entry()})
	}
	slices.SortStableFunc(all, func(a, b held) int { return a.at.Compare(b.at) })

	out := make([]equity.Entry, len(all))
	for i, h := range all {
		out[i] = h.entry
	}
	return out
}

// Member returns the member with memberID.
func (r *Revision) Member(memberID id.MemberID) (*member.Member, bool) {
	for _, m := range r.Members {
		if m.ID.String() == memberID.String() {
			return m, true
		}
	}
	return nil, false
}

// Investor returns the investor with investorID.
func (r *Revision) Investor(investorID id.InvestorID) (*investor.Investor, bool) {
	for _, inv := range r.Investors {
		if inv.ID.String() == investorID.String() {
			return inv, true
		}
	}
	return nil, false
}

// InvestorsInRound returns the investors who bought into roundID.
func (r *Revision) InvestorsInRound(roundID id.RoundID) []*investor.Investor {
	var out []*investor.Investor
	for _, inv := range r.Investors {
		if inv.InRound(roundID) {
			out = append(out, inv)
		}
	}
	return out
}

// Clone returns a deep copy.
func (r *Revision) Clone() *Revision {
	c := *r
	c.Members = make([]*member.Member, len(r.Members))
	for i, m := range r.Members {
		c.Members[i] = m.Clone()
	}
	c.Investors = make([]*investor.Investor, len(r.Investors))
	for i, inv := range r.Investors {
		c.Investors[i] = inv.Clone()
	}
	c.Metadata = maps.Clone(r.Metadata)
	return &c
}
