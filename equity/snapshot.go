package equity

import (
	"slices"

	"github.com/xraph/captable/types"
)

// Snapshot is a read-only view of a table.
type Snapshot struct {
	Entries []Entry       `json:"entries"`
	Total   types.Percent `json:"total_equity"`

	// Unallocated is the share of a non-empty table held by nobody.
	Unallocated types.Percent `json:"unallocated"`

	// Repaired reports that a forced normalization rewrote stored stakes
	// on the way to this view.
	Repaired bool `json:"repaired"`
}

// Snapshot returns the stakes in table order with a recomputed total.
// Calling it any number of times returns identical values.
func (t *Table) Snapshot() Snapshot {
	return snapshotOf(t.entries, t.repaired)
}

func snapshotOf(entries []Entry, repaired bool) Snapshot {
	s := Snapshot{
		Entries:  slices.Clone(entries),
		Total:    sumEquity(entries),
		Repaired: repaired,
	}
	if s.Entries == nil {
		s.Entries = []Entry{}
	}
	if len(entries) > 0 && s.Total < types.FullEquity {
		s.Unallocated = types.FullEquity - s.Total
	}
	return s
}

// TotalByCategory sums the stakes in category c.
func (t *Table) TotalByCategory(c Category) types.Percent {
	return totalByCategory(t.entries, c)
}

// TotalByCategory sums the stakes in category c.
func (s Snapshot) TotalByCategory(c Category) types.Percent {
	return totalByCategory(s.Entries, c)
}

func totalByCategory(entries []Entry, c Category) types.Percent {
	var total types.Percent
	for _, e := range entries {
		if e.Category == c {
			total += e.Equity
		}
	}
	return total
}

// Entry returns the stake for ref.
func (s Snapshot) Entry(ref Ref) (Entry, bool) {
	if ref == nil {
		return Entry{}, false
	}
	for _, e := range s.Entries {
		if e.Ref.Key() == ref.Key() {
			return e, true
		}
	}
	return Entry{}, false
}

// Pending returns the stakes that have no stored record yet.
func (s Snapshot) Pending() []Entry {
	var out []Entry
	for _, e := range s.Entries {
		if e.IsPending() {
			out = append(out, e)
		}
	}
	return out
}
