package equity

import (
	"fmt"

	"github.com/xraph/captable/types"
)

// Remove returns a new table without ref, with every remaining stake scaled
// by 100/(100-r) where r is the removed stake. Removing the last stake
// leaves an empty table with a total of 0.00.
//
// The receiver is never modified; on error it can still be mutated.
func (t *Table) Remove(ref Ref) (*Table, error) {
	if t.consumed {
		return nil, ErrTableConsumed
	}
	if !t.Contains(ref) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, ref)
	}

	base, repaired, err := t.baseline()
	if err != nil {
		return nil, err
	}

	idx := t.index[ref.Key()]
	removed := base[idx].Equity
	rest := make([]Entry, 0, len(base)-1)
	rest = append(rest, base[:idx]...)
	rest = append(rest, base[idx+1:]...)

	var target types.Percent
	if len(rest) > 0 {
		remaining := types.FullEquity - removed
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: %s holds %s but %d other entries remain",
				ErrCorruptState, ref, removed, len(rest))
		}
		for i := range rest {
			rest[i].Equity = rest[i].Equity.Scale(int64(types.FullEquity), int64(remaining))
		}
		target = (t.target - removed).Scale(int64(types.FullEquity), int64(remaining))
	}

	if err := normalize(rest, target); err != nil {
		return nil, err
	}

	t.consumed = true
	return newTable(rest, target, repaired), nil
}
