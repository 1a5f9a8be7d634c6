package equity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/types"
)

func TestRemoveUndilutes(t *testing.T) {
	investor := stake("Investor", equity.Investor, "20")
	tbl := mustBuild(t,
		stake("FounderA", equity.Founder, "56"),
		stake("FounderB", equity.Founder, "24"),
		investor,
	)

	next, err := tbl.Remove(investor.Ref)
	require.NoError(t, err)

	snap := next.Snapshot()
	assert.Equal(t, map[string]string{"FounderA": "70.00", "FounderB": "30.00"}, byName(snap))
	assert.Equal(t, types.FullEquity, snap.Total)
}

func TestRemoveLastEntry(t *testing.T) {
	sole := stake("Sole", equity.Founder, "100")

	next, err := mustBuild(t, sole).Remove(sole.Ref)
	require.NoError(t, err)

	snap := next.Snapshot()
	assert.Empty(t, snap.Entries)
	assert.Equal(t, types.NoEquity, snap.Total)
	assert.Equal(t, types.NoEquity, snap.Unallocated)
}

func TestRemoveRoundingResidual(t *testing.T) {
	// 100/99.99 scales each 33.33 to 33.3333, which rounds back to 33.33
	// and leaves 0.01 for the first of the tied stakes.
	gone := stake("Gone", equity.Investor, "0.01")
	tbl := mustBuild(t,
		stake("A", equity.Founder, "33.33"),
		stake("B", equity.Founder, "33.33"),
		stake("C", equity.Team, "33.33"),
		gone,
	)

	next, err := tbl.Remove(gone.Ref)
	require.NoError(t, err)

	snap := next.Snapshot()
	assert.Equal(t, map[string]string{
		"A": "33.34",
		"B": "33.33",
		"C": "33.33",
	}, byName(snap))
	assert.Equal(t, types.FullEquity, snap.Total)
}

func TestRemoveErrors(t *testing.T) {
	whole := stake("Whole", equity.Founder, "100")
	nothing := stake("Nothing", equity.Team, "0")

	t.Run("unknown id", func(t *testing.T) {
		tbl := mustBuild(t, whole)
		_, err := tbl.Remove(equity.RefFor(id.NewMemberID()))
		assert.ErrorIs(t, err, equity.ErrNotFound)
	})

	t.Run("nil ref", func(t *testing.T) {
		_, err := mustBuild(t, whole).Remove(nil)
		assert.ErrorIs(t, err, equity.ErrNotFound)
	})

	t.Run("holder of everything with others left", func(t *testing.T) {
		tbl := mustBuild(t, whole, nothing)
		_, err := tbl.Remove(whole.Ref)
		require.ErrorIs(t, err, equity.ErrCorruptState)

		// Still mutable after the failure.
		next, err := tbl.Remove(nothing.Ref)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"Whole": "100.00"}, byName(next.Snapshot()))
	})
}

func TestRemoveConsumesTable(t *testing.T) {
	a := stake("A", equity.Founder, "50")
	b := stake("B", equity.Founder, "50")
	tbl := mustBuild(t, a, b)

	next, err := tbl.Remove(a.Ref)
	require.NoError(t, err)

	_, err = tbl.Remove(b.Ref)
	assert.ErrorIs(t, err, equity.ErrTableConsumed)
	_, err = tbl.Add(stake("C", equity.Team, "1"))
	assert.ErrorIs(t, err, equity.ErrTableConsumed)

	// The successor is a fresh table.
	_, err = next.Remove(b.Ref)
	assert.NoError(t, err)
}

func TestRemoveForcesNormalizationOfShortTable(t *testing.T) {
	gone := stake("Gone", equity.Investor, "10")
	tbl := mustBuild(t,
		stake("A", equity.Founder, "30"),
		stake("B", equity.Founder, "10"),
		gone,
	)
	require.False(t, tbl.Normalized())

	next, err := tbl.Remove(gone.Ref)
	require.NoError(t, err)

	snap := next.Snapshot()
	assert.True(t, snap.Repaired)
	assert.Equal(t, map[string]string{"A": "75.00", "B": "25.00"}, byName(snap))
}

func TestChainedRemovals(t *testing.T) {
	seedA := stake("SeedA", equity.Investor, "10")
	seedB := stake("SeedB", equity.Investor, "10")
	tbl := mustBuild(t,
		stake("Founder", equity.Founder, "60"),
		stake("Hire", equity.Team, "20"),
		seedA,
		seedB,
	)

	var err error
	for _, ref := range []equity.Ref{seedA.Ref, seedB.Ref} {
		tbl, err = tbl.Remove(ref)
		require.NoError(t, err)
	}

	snap := tbl.Snapshot()
	assert.Equal(t, map[string]string{"Founder": "75.00", "Hire": "25.00"}, byName(snap))
	assert.Equal(t, types.NoEquity, snap.TotalByCategory(equity.Investor))
}

func TestRemoveAfterTotalDilution(t *testing.T) {
	// Diluting by 99.99% rounds every old stake to zero and the newcomer
	// absorbs the residual, so it ends up holding everything.
	tbl := mustBuild(t,
		stake("A", equity.Founder, "33.33"),
		stake("B", equity.Founder, "33.33"),
		stake("C", equity.Founder, "33.34"),
	)
	whale := stake("Whale", equity.Investor, "99.99")

	next, err := tbl.Add(whale)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "0.00", "B": "0.00", "C": "0.00", "Whale": "100.00"}, byName(next.Snapshot()))

	_, err = next.Remove(whale.Ref)
	assert.ErrorIs(t, err, equity.ErrCorruptState)
}
