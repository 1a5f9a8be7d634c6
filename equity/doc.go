// Package equity is the cap-table engine. It tracks fractional ownership
// across founders, team members and investors and keeps the total exact
// as stakes are added and removed.
//
// A Table is built from the current records, mutated once, read through a
// Snapshot and then discarded:
//
//	t, err := equity.Build(entries)
//	next, err := t.Add(equity.Entry{Ref: equity.NewPending(), Category: equity.Investor, Name: "Seed", Equity: types.Points(20)})
//	snap := next.Snapshot()
//
// Add dilutes every existing stake by (100-p)/100. Remove scales the
// survivors by 100/(100-r). Each scaled value is rounded half away from
// zero to 0.01 and the rounding residual is then applied to the largest
// stake, with ties going to the earliest entry. The engine performs no I/O.
//
// A table whose first stake is below 100 keeps the rest unallocated, and
// later changes preserve that reserve. Use BuildWithTarget to rebuild such
// a table from storage with its allocated total.
package equity
