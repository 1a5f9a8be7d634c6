package equity

import (
	"fmt"
	"slices"

	"github.com/xraph/captable/types"
)

// Tolerance is the absolute drift accepted on stored stakes and totals.
const Tolerance = types.Hundredth

// Table is an ordered set of stakes for one account. Order is load order
// followed by insertion order.
//
// A Table is not safe for concurrent use. It may be mutated once: Add and
// Remove return a new Table and leave the receiver unchanged, and a second
// mutation of the same receiver fails with ErrTableConsumed.
type Table struct {
	entries []Entry
	index   map[string]int

	// target is the total the table is normalized to: 100.00 once fully
	// allocated, 0.00 when empty, p after a first stake of p < 100.
	target types.Percent

	unnormalized bool
	repaired     bool
	consumed     bool
}

// Build constructs a table from the current stakes of a fully allocated
// cap table.
//
// Stakes in [-0.01, 0) are clamped to zero. Construction fails with
// ErrCorruptState on a missing or duplicate id, an unknown category, a
// stake below -0.01 or above 100.01, or a total above 100.01. A non-empty
// total that misses 100.00 by more than 0.01 is accepted but marks the
// table unnormalized, and the first Add or Remove rescales it to 100.00
// before applying the change.
func Build(entries []Entry) (*Table, error) {
	return build(entries, 0, true)
}

// BuildWithTarget is Build for a table whose allocated total is known,
// such as a stored table that holds part of the equity back. The stakes
// are expected to add up to target, and the table is flagged unnormalized
// only when they miss it by more than 0.01. A zero target means fully
// allocated; a target outside [0, 100.00] fails with ErrCorruptState.
// An empty table ignores target.
func BuildWithTarget(entries []Entry, target types.Percent) (*Table, error) {
	return build(entries, target, true)
}

// maxStake bounds a single stake on every build, including the lenient one
// behind Reconcile, keeping every scaling product inside int64.
const maxStake = 10_000 * types.FullEquity

func build(entries []Entry, target types.Percent, strict bool) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for i, e := range entries {
		if !validRef(e.Ref) {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrCorruptState, i)
		}
		if !e.Category.Valid() {
			return nil, fmt.Errorf("%w: entry %s has unknown category %q", ErrCorruptState, e.Ref, e.Category)
		}
		if _, dup := t.index[e.Ref.Key()]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrCorruptState, e.Ref)
		}
		if e.Equity < -Tolerance {
			return nil, fmt.Errorf("%w: entry %s has negative equity %s", ErrCorruptState, e.Ref, e.Equity)
		}
		if e.Equity < 0 {
			e.Equity = 0
		}
		if strict && e.Equity > types.FullEquity+Tolerance {
			return nil, fmt.Errorf("%w: entry %s holds %s", ErrCorruptState, e.Ref, e.Equity)
		}
		if e.Equity > maxStake {
			return nil, fmt.Errorf("%w: entry %s holds %s", ErrCorruptState, e.Ref, e.Equity)
		}

		t.index[e.Ref.Key()] = len(t.entries)
		t.entries = append(t.entries, e)
	}

	if len(t.entries) == 0 {
		return t, nil
	}

	if target == 0 {
		target = types.FullEquity
	}
	if target < 0 || target > types.FullEquity {
		return nil, fmt.Errorf("%w: allocated total %s outside 0.00..100.00", ErrCorruptState, target)
	}

	total := sumEquity(t.entries)
	if strict && total > types.FullEquity+Tolerance {
		return nil, fmt.Errorf("%w: total %s exceeds 100.00", ErrCorruptState, total)
	}
	t.target = target
	t.unnormalized = (total - target).Abs() > Tolerance

	return t, nil
}

func newTable(entries []Entry, target types.Percent, repaired bool) *Table {
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.Ref.Key()] = i
	}
	return &Table{
		entries:  entries,
		index:    index,
		target:   target,
		repaired: repaired,
	}
}

// Target returns the total the table is normalized to.
func (t *Table) Target() types.Percent { return t.target }

// Len returns the number of stakes.
func (t *Table) Len() int { return len(t.entries) }

// Normalized reports whether the stored total was within tolerance of its
// target when the table was built.
func (t *Table) Normalized() bool { return !t.unnormalized }

// Contains reports whether ref is in the table.
func (t *Table) Contains(ref Ref) bool {
	if ref == nil {
		return false
	}
	_, ok := t.index[ref.Key()]
	return ok
}

// Entry returns the stake for ref.
func (t *Table) Entry(ref Ref) (Entry, bool) {
	if ref == nil {
		return Entry{}, false
	}
	i, ok := t.index[ref.Key()]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// baseline returns a copy of the stakes to mutate, rescaled to the target
// first when the table was built unnormalized.
func (t *Table) baseline() ([]Entry, bool, error) {
	base := slices.Clone(t.entries)
	if !t.unnormalized {
		return base, false, nil
	}
	if err := rebalance(base, t.target); err != nil {
		return nil, false, err
	}
	return base, true, nil
}
