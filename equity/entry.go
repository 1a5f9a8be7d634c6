package equity

import "github.com/xraph/captable/types"

// Entry is one ownership stake.
type Entry struct {
	Ref      Ref           `json:"id"`
	Category Category      `json:"category"`
	Name     string        `json:"name"`
	Equity   types.Percent `json:"equity_percent"`
}

// IsPending reports whether the entry has no stored record yet.
func (e Entry) IsPending() bool {
	_, ok := e.Ref.(Pending)
	return ok
}

func sumEquity(entries []Entry) types.Percent {
	var total types.Percent
	for _, e := range entries {
		total += e.Equity
	}
	return total
}
