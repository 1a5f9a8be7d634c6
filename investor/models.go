package investor

import (
	"maps"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/types"
)

// Investor is an outside stake, usually bought in a funding round.
type Investor struct {
	types.Entity
	ID       id.InvestorID     `json:"id"`
	Name     string            `json:"name"`
	Firm     string            `json:"firm,omitempty"`
	RoundID  id.RoundID        `json:"round_id"`
	Invested types.Money       `json:"invested"`
	Equity   types.Percent     `json:"equity_percent"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Entry returns the investor's stake as a cap-table entry.
func (i *Investor) Entry() equity.Entry {
	return equity.Entry{
		Ref:      equity.RefFor(i.ID),
		Category: equity.Investor,
		Name:     i.Name,
		Equity:   i.Equity,
	}
}

// InRound reports whether the investor bought into roundID.
func (i *Investor) InRound(roundID id.RoundID) bool {
	return !i.RoundID.IsNil() && i.RoundID.String() == roundID.String()
}

// Clone returns a copy that shares nothing with i.
func (i *Investor) Clone() *Investor {
	c := *i
	c.Metadata = maps.Clone(i.Metadata)
	return &c
}
