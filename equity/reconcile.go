package equity

import (
	"slices"

	"github.com/xraph/captable/types"
)

// Reconcile rebuilds a table from stored stakes and forces it back to
// exactly 100.00, returning the corrected view for the caller to persist.
//
// It accepts totals Build would reject as too large and rescales them.
// Negative stakes, stakes above 1,000,000.00, missing or duplicate ids and
// unknown categories still fail with ErrCorruptState, as does a non-empty
// set holding no equity. An empty set reconciles to an empty snapshot.
func Reconcile(entries []Entry) (Snapshot, error) {
	return ReconcileWithTarget(entries, 0)
}

// ReconcileWithTarget is Reconcile for a table whose allocated total is
// known: the stakes are forced back onto target instead of 100.00. A zero
// target means fully allocated.
func ReconcileWithTarget(entries []Entry, target types.Percent) (Snapshot, error) {
	t, err := build(entries, target, false)
	if err != nil {
		return Snapshot{}, err
	}

	fixed := slices.Clone(t.entries)
	if err := rebalance(fixed, t.target); err != nil {
		return Snapshot{}, err
	}

	repaired := false
	for i := range fixed {
		if fixed[i].Equity != entries[i].Equity {
			repaired = true
			break
		}
	}
	return snapshotOf(fixed, repaired), nil
}

// Change is the write-back for one stake between two views.
type Change struct {
	Ref     Ref
	Name    string
	Before  types.Percent
	After   types.Percent
	Added   bool
	Removed bool
}

// Delta returns After - Before.
func (c Change) Delta() types.Percent { return c.After - c.Before }

// Changes lists every stake whose value differs between before and after,
// in after's order followed by the stakes after no longer holds.
func Changes(before []Entry, after Snapshot) []Change {
	prev := make(map[string]Entry, len(before))
	for _, e := range before {
		prev[e.Ref.Key()] = e
	}

	var out []Change
	seen := make(map[string]bool, len(after.Entries))
	for _, e := range after.Entries {
		key := e.Ref.Key()
		seen[key] = true
		old, ok := prev[key]
		switch {
		case !ok:
			out = append(out, Change{Ref: e.Ref, Name: e.Name, After: e.Equity, Added: true})
		case old.Equity != e.Equity:
			out = append(out, Change{Ref: e.Ref, Name: e.Name, Before: old.Equity, After: e.Equity})
		}
	}
	for _, e := range before {
		if !seen[e.Ref.Key()] {
			out = append(out, Change{Ref: e.Ref, Name: e.Name, Before: e.Equity, Removed: true})
		}
	}
	return out
}
