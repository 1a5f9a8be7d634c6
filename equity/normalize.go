package equity

import (
	"fmt"

	"github.com/xraph/captable/types"
)

// tolerance is the largest residual normalize absorbs for n stakes.
func tolerance(n int) types.Percent {
	return Tolerance * types.Percent(max(1, n))
}

// normalize moves the stakes onto target by applying the whole residual to
// the largest stake, ties going to the earliest. A residual beyond
// tolerance means the scaling upstream is wrong and is reported rather
// than absorbed.
func normalize(entries []Entry, target types.Percent) error {
	residual := target - sumEquity(entries)
	if residual == 0 {
		return nil
	}
	if limit := tolerance(len(entries)); residual.Abs() > limit {
		return fmt.Errorf("%w: residual %s over %d entries (limit %s)",
			ErrInvariantViolation, residual, len(entries), limit)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: residual %s on an empty table", ErrInvariantViolation, residual)
	}

	i := largest(entries)
	corrected := entries[i].Equity + residual
	if corrected < 0 {
		return fmt.Errorf("%w: correcting %s by %s goes negative", ErrInvariantViolation, entries[i].Ref, residual)
	}
	entries[i].Equity = corrected
	return nil
}

func largest(entries []Entry) int {
	best := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].Equity > entries[best].Equity {
			best = i
		}
	}
	return best
}

// rebalance is the forced normalization pass: when the stakes miss target
// by more than the normalizer absorbs, they are first rescaled
// proportionally onto it.
func rebalance(entries []Entry, target types.Percent) error {
	if len(entries) == 0 {
		return nil
	}
	total := sumEquity(entries)
	if total <= 0 {
		return fmt.Errorf("%w: %d entries hold no equity", ErrCorruptState, len(entries))
	}
	if (target - total).Abs() > tolerance(len(entries)) {
		for i := range entries {
			entries[i].Equity = entries[i].Equity.Scale(int64(target), int64(total))
		}
	}
	return normalize(entries, target)
}
