package equity

import (
	"fmt"

	"github.com/xraph/captable/types"
)

// Add returns a new table with e added at its requested stake p and every
// existing stake diluted by (100-p)/100.
//
// p must satisfy 0 < p < 100, or 0 < p <= 100 when the table is empty. On
// an empty table nothing is scaled and any remainder below 100 stays
// unallocated. The receiver is never modified; on error it can still be
// mutated.
func (t *Table) Add(e Entry) (*Table, error) {
	if t.consumed {
		return nil, ErrTableConsumed
	}
	if !validRef(e.Ref) || !e.Category.Valid() {
		return nil, fmt.Errorf("%w: ref %v category %q", ErrInvalidEntry, e.Ref, e.Category)
	}
	limit := types.FullEquity - types.Hundredth
	if len(t.entries) == 0 {
		limit = types.FullEquity
	}
	if e.Equity <= 0 || e.Equity > limit {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidPercent, e.Equity)
	}
	if t.Contains(e.Ref) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, e.Ref)
	}

	base, repaired, err := t.baseline()
	if err != nil {
		return nil, err
	}

	keep := int64(e.Equity.Complement())
	next := make([]Entry, 0, len(base)+1)
	for _, cur := range base {
		cur.Equity = cur.Equity.Scale(keep, int64(types.FullEquity))
		next = append(next, cur)
	}
	next = append(next, e)

	target := t.target.Scale(keep, int64(types.FullEquity)) + e.Equity
	if err := normalize(next, target); err != nil {
		return nil, err
	}

	t.consumed = true
	return newTable(next, target, repaired), nil
}
