// Package storetest runs the same behavioral checks against every
// store.Store backend.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/captable"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/investor"
	"github.com/xraph/captable/member"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/round"
	"github.com/xraph/captable/store"
	"github.com/xraph/captable/types"
)

// Factory returns a fresh, migrated store.
type Factory func(t *testing.T) store.Store

// Run exercises every store method.
func Run(t *testing.T, newStore Factory) {
	t.Run("Revisions", func(t *testing.T) { testRevisions(t, newStore(t)) })
	t.Run("RevisionConflict", func(t *testing.T) { testRevisionConflict(t, newStore(t)) })
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("Rounds", func(t *testing.T) { testRounds(t, newStore(t)) })
}

// Revision builds revision number n of account with one member and one
// investor splitting the table.
func Revision(account string, n int64) *revision.Revision {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &revision.Revision{
		ID:        id.NewRevisionID(),
		AccountID: account,
		Number:    n,
		Action:    revision.ActionInvestorAdded,
		Members: []*member.Member{{
			Entity:   types.Entity{CreatedAt: now, UpdatedAt: now},
			ID:       id.NewMemberID(),
			Name:     "Ada",
			Role:     member.RoleFounder,
			Equity:   types.MustPercent("80"),
			JoinedAt: now,
		}},
		Investors: []*investor.Investor{{
			Entity:   types.Entity{CreatedAt: now, UpdatedAt: now},
			ID:       id.NewInvestorID(),
			Name:     "Angel",
			Invested: types.USD(50_000_00),
			Equity:   types.MustPercent("20"),
			Metadata: map[string]string{"source": "storetest"},
		}},
		Total:     types.FullEquity,
		CreatedAt: now,
	}
}

func testRevisions(t *testing.T, s store.Store) {
	ctx := context.Background()
	account := "acct_" + t.Name()

	_, err := s.LatestRevision(ctx, account)
	require.ErrorIs(t, err, captable.ErrRevisionNotFound)

	for n := int64(1); n <= 3; n++ {
		require.NoError(t, s.AppendRevision(ctx, Revision(account, n)))
	}

	latest, err := s.LatestRevision(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, int64(3), latest.Number)
	require.Len(t, latest.Members, 1)
	require.Len(t, latest.Investors, 1)
	assert.Equal(t, "80.00", latest.Members[0].Equity.String())
	assert.Equal(t, types.USD(50_000_00), latest.Investors[0].Invested)
	assert.Equal(t, "storetest", latest.Investors[0].Metadata["source"])
	assert.Equal(t, types.FullEquity, latest.Total)

	revs, err := s.ListRevisions(ctx, account, revision.ListOpts{})
	require.NoError(t, err)
	require.Len(t, revs, 3)
	assert.Equal(t, int64(3), revs[0].Number)
	assert.Equal(t, int64(1), revs[2].Number)

	page, err := s.ListRevisions(ctx, account, revision.ListOpts{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].Number)
}

func testRevisionConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	account := "acct_conflict"

	require.NoError(t, s.AppendRevision(ctx, Revision(account, 1)))
	err := s.AppendRevision(ctx, Revision(account, 1))
	require.Error(t, err)
	assert.True(t, captable.IsConflict(err), "got %v", err)

	latest, err := s.LatestRevision(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, int64(1), latest.Number)
}

func testAccounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := range 3 {
		account := fmt.Sprintf("acct_%d", i)
		require.NoError(t, s.AppendRevision(ctx, Revision(account, 1)))
		require.NoError(t, s.AppendRevision(ctx, Revision(account, 2)))
	}

	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acct_0", "acct_1", "acct_2"}, accounts)
}

func testRounds(t *testing.T, s store.Store) {
	ctx := context.Background()
	account := "acct_rounds"
	base := time.Now().UTC().Truncate(time.Millisecond)

	var created []*round.Round
	for i, stage := range []round.Stage{round.StageSeed, round.StageSeriesA} {
		r := &round.Round{
			Entity:    types.Entity{CreatedAt: base.Add(time.Duration(i) * time.Second), UpdatedAt: base},
			ID:        id.NewRoundID(),
			AccountID: account,
			Name:      string(stage),
			Stage:     stage,
			Raised:    types.USD(int64(i+1) * 1_000_000_00),
			PreMoney:  types.USD(4_000_000_00),
		}
		require.NoError(t, s.CreateRound(ctx, r))
		created = append(created, r)
	}

	got, err := s.GetRound(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, created[0].Name, got.Name)
	assert.Equal(t, created[0].Raised, got.Raised)
	assert.Equal(t, created[0].PreMoney, got.PreMoney)

	all, err := s.ListRounds(ctx, account, round.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, round.StageSeed, all[0].Stage)

	seriesA, err := s.ListRounds(ctx, account, round.ListOpts{Stage: round.StageSeriesA})
	require.NoError(t, err)
	require.Len(t, seriesA, 1)

	closed := base.Add(time.Hour)
	got.ClosedAt = &closed
	got.Name = "Seed (closed)"
	require.NoError(t, s.UpdateRound(ctx, got))

	got, err = s.GetRound(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Seed (closed)", got.Name)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, got.ClosedAt.Equal(closed))

	require.NoError(t, s.DeleteRound(ctx, created[0].ID))
	_, err = s.GetRound(ctx, created[0].ID)
	assert.ErrorIs(t, err, captable.ErrRoundNotFound)
	assert.ErrorIs(t, s.DeleteRound(ctx, created[0].ID), captable.ErrRoundNotFound)
}
