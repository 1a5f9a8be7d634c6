package captable_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/captable"
	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/investor"
	"github.com/xraph/captable/member"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/round"
	"github.com/xraph/captable/store/memory"
	"github.com/xraph/captable/types"
)

const acct = "acct_test"

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newEngine(t *testing.T, opts ...captable.Option) (*captable.Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	opts = append([]captable.Option{
		captable.WithLogger(quiet),
		captable.WithRetryInterval(time.Millisecond),
	}, opts...)
	return captable.New(s, opts...), s
}

func addMember(t *testing.T, e *captable.Engine, name string, role member.Role, pct string) *member.Member {
	t.Helper()
	m, err := e.AddMember(context.Background(), acct, &member.Member{
		Name:   name,
		Role:   role,
		Equity: types.MustPercent(pct),
	})
	require.NoError(t, err)
	return m
}

func addInvestor(t *testing.T, e *captable.Engine, name, pct string) *investor.Investor {
	t.Helper()
	inv, err := e.AddInvestor(context.Background(), acct, &investor.Investor{
		Name:   name,
		Equity: types.MustPercent(pct),
	})
	require.NoError(t, err)
	return inv
}

func stakes(t *testing.T, e *captable.Engine) map[string]string {
	t.Helper()
	snap, err := e.Snapshot(context.Background(), acct)
	require.NoError(t, err)
	out := make(map[string]string, len(snap.Entries))
	for _, entry := range snap.Entries {
		out[entry.Name] = entry.Equity.String()
	}
	return out
}

func historyLen(t *testing.T, e *captable.Engine) int {
	t.Helper()
	revs, err := e.History(context.Background(), acct, revision.ListOpts{})
	require.NoError(t, err)
	return len(revs)
}

func TestDilutionAndRedistribution(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	a := addMember(t, e, "FounderA", member.RoleFounder, "100")
	assert.Equal(t, "100.00", a.Equity.String())
	assert.Equal(t, id.PrefixMember, a.ID.Prefix())

	addMember(t, e, "FounderB", member.RoleFounder, "30")
	assert.Equal(t, map[string]string{"FounderA": "70.00", "FounderB": "30.00"}, stakes(t, e))

	inv := addInvestor(t, e, "Investor", "20")
	assert.Equal(t, "20.00", inv.Equity.String())
	assert.Equal(t, map[string]string{
		"FounderA": "56.00",
		"FounderB": "24.00",
		"Investor": "20.00",
	}, stakes(t, e))

	rev, err := e.RemoveInvestor(ctx, acct, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), rev.Number)
	assert.Equal(t, revision.ActionInvestorRemoved, rev.Action)
	assert.Equal(t, types.FullEquity, rev.Total)
	assert.Equal(t, map[string]string{"FounderA": "70.00", "FounderB": "30.00"}, stakes(t, e))

	founders, err := e.TotalByCategory(ctx, acct, equity.Founder)
	require.NoError(t, err)
	assert.Equal(t, types.FullEquity, founders)
}

func TestRoundingResidualThroughEngine(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	seed := &revision.Revision{
		ID:        id.NewRevisionID(),
		AccountID: acct,
		Number:    1,
		Action:    revision.ActionReconciled,
		Members: []*member.Member{
			{ID: id.NewMemberID(), Name: "A", Role: member.RoleFounder, Equity: types.MustPercent("33.33")},
			{ID: id.NewMemberID(), Name: "B", Role: member.RoleFounder, Equity: types.MustPercent("33.33")},
			{ID: id.NewMemberID(), Name: "C", Role: member.RoleFounder, Equity: types.MustPercent("33.34")},
		},
		Total: types.FullEquity,
	}
	require.NoError(t, s.AppendRevision(ctx, seed))

	addInvestor(t, e, "D", "25")
	assert.Equal(t, map[string]string{"A": "25.00", "B": "25.00", "C": "25.00", "D": "25.00"}, stakes(t, e))
}

func TestRemoveSoleHolder(t *testing.T) {
	e, _ := newEngine(t)

	sole := addMember(t, e, "Sole", member.RoleFounder, "100")
	rev, err := e.RemoveMember(context.Background(), acct, sole.ID)
	require.NoError(t, err)
	assert.Empty(t, rev.Members)
	assert.Equal(t, types.NoEquity, rev.Total)

	snap, err := e.Snapshot(context.Background(), acct)
	require.NoError(t, err)
	assert.Empty(t, snap.Entries)
}

func TestRejectedChangesCommitNothing(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	addMember(t, e, "FounderA", member.RoleFounder, "100")

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "full stake on non-empty table",
			run: func() error {
				_, err := e.AddInvestor(ctx, acct, &investor.Investor{Name: "X", Equity: types.FullEquity})
				return err
			},
			want: captable.ErrInvalidPercent,
		},
		{
			name: "zero stake",
			run: func() error {
				_, err := e.AddMember(ctx, acct, &member.Member{Name: "Y", Role: member.RoleTeam})
				return err
			},
			want: captable.ErrInvalidPercent,
		},
		{
			name: "unknown member",
			run: func() error {
				_, err := e.RemoveMember(ctx, acct, id.NewMemberID())
				return err
			},
			want: captable.ErrMemberNotFound,
		},
		{
			name: "unknown investor",
			run: func() error {
				_, err := e.RemoveInvestor(ctx, acct, id.NewInvestorID())
				return err
			},
			want: captable.ErrInvestorNotFound,
		},
		{
			name: "missing name",
			run: func() error {
				_, err := e.AddMember(ctx, acct, &member.Member{Role: member.RoleTeam, Equity: types.Points(5)})
				return err
			},
			want: captable.ErrInvalidInput,
		},
		{
			name: "bad role",
			run: func() error {
				_, err := e.AddMember(ctx, acct, &member.Member{Name: "Z", Role: "advisor", Equity: types.Points(5)})
				return err
			},
			want: captable.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 1, historyLen(t, e))
			assert.Equal(t, map[string]string{"FounderA": "100.00"}, stakes(t, e))
		})
	}
}

func TestDuplicateCallerID(t *testing.T) {
	e, _ := newEngine(t)
	memberID := id.NewMemberID()

	_, err := e.AddMember(context.Background(), acct, &member.Member{
		ID: memberID, Name: "A", Role: member.RoleFounder, Equity: types.FullEquity,
	})
	require.NoError(t, err)

	_, err = e.AddMember(context.Background(), acct, &member.Member{
		ID: memberID, Name: "A again", Role: member.RoleFounder, Equity: types.Points(10),
	})
	assert.ErrorIs(t, err, captable.ErrDuplicateID)
}

func TestSetEquity(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	a := addMember(t, e, "A", member.RoleFounder, "100")
	b := addMember(t, e, "B", member.RoleTeam, "30")

	rev, err := e.SetEquity(ctx, acct, b.ID, types.Points(40))
	require.NoError(t, err)
	assert.Equal(t, revision.ActionEquityAdjusted, rev.Action)
	assert.Equal(t, map[string]string{"A": "60.00", "B": "40.00"}, stakes(t, e))

	m, ok := rev.Member(b.ID)
	require.True(t, ok)
	assert.Equal(t, member.RoleTeam, m.Role)

	same, err := e.SetEquity(ctx, acct, b.ID, types.Points(40))
	require.NoError(t, err)
	assert.Equal(t, rev.Number, same.Number)

	_, err = e.SetEquity(ctx, acct, id.NewRoundID(), types.Points(10))
	assert.ErrorIs(t, err, captable.ErrInvalidInput)

	_, err = e.SetEquity(ctx, acct, a.ID, types.FullEquity)
	assert.ErrorIs(t, err, captable.ErrInvalidPercent)
}

func TestUpdateMember(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	a := addMember(t, e, "A", member.RoleFounder, "100")
	b := addMember(t, e, "B", member.RoleFounder, "25")

	b.Name = "Bea"
	b.Title = "CTO"
	b.Role = member.RoleTeam
	updated, err := e.UpdateMember(ctx, acct, b)
	require.NoError(t, err)
	assert.Equal(t, "Bea", updated.Name)
	assert.Equal(t, "25.00", updated.Equity.String())
	assert.Equal(t, map[string]string{"A": "75.00", "Bea": "25.00"}, stakes(t, e))

	team, err := e.TotalByCategory(ctx, acct, equity.Team)
	require.NoError(t, err)
	assert.Equal(t, types.Points(25), team)

	rev, err := e.Revision(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, revision.ActionProfileUpdated, rev.Action)

	_, err = e.UpdateMember(ctx, acct, &member.Member{ID: a.ID, Role: member.RoleFounder})
	assert.ErrorIs(t, err, captable.ErrInvalidInput)
}

func TestInvestorPricedFromRound(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	addMember(t, e, "A", member.RoleFounder, "100")

	seed := &round.Round{
		AccountID: acct,
		Name:      "Seed",
		Stage:     round.StageSeed,
		Raised:    types.USD(200_000_00),
		PreMoney:  types.USD(800_000_00),
	}
	require.NoError(t, e.CreateRound(ctx, seed))
	require.False(t, seed.ID.IsNil())

	lead, err := e.AddInvestor(ctx, acct, &investor.Investor{
		Name:     "Lead",
		RoundID:  seed.ID,
		Invested: types.USD(150_000_00),
	})
	require.NoError(t, err)
	assert.Equal(t, "15.00", lead.Equity.String())
	assert.Equal(t, map[string]string{"A": "85.00", "Lead": "15.00"}, stakes(t, e))

	_, err = e.AddInvestor(ctx, acct, &investor.Investor{
		Name:     "Euro",
		RoundID:  seed.ID,
		Invested: types.EUR(10_000_00),
	})
	assert.ErrorIs(t, err, captable.ErrInvalidInput)

	other := &round.Round{AccountID: "acct_other", Name: "Other", Raised: types.USD(1), PreMoney: types.USD(1)}
	require.NoError(t, e.CreateRound(ctx, other))
	_, err = e.AddInvestor(ctx, acct, &investor.Investor{Name: "Wrong", RoundID: other.ID})
	assert.ErrorIs(t, err, captable.ErrRoundMismatch)

	rounds, err := e.ListRounds(ctx, acct, round.ListOpts{})
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, "Seed", rounds[0].Name)
}

func TestCreateRoundValidation(t *testing.T) {
	e, _ := newEngine(t)

	err := e.CreateRound(context.Background(), &round.Round{
		Raised:   types.USD(0),
		PreMoney: types.EUR(-1),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, captable.ErrInvalidInput)

	var multi captable.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 5)
}

func TestDeleteRoundRedistributesOverWholeTable(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	a := addMember(t, e, "A", member.RoleFounder, "100")
	seed := &round.Round{AccountID: acct, Name: "Seed", Raised: types.USD(100), PreMoney: types.USD(900)}
	require.NoError(t, e.CreateRound(ctx, seed))

	for _, name := range []string{"Ivy", "Ike"} {
		_, err := e.AddInvestor(ctx, acct, &investor.Investor{
			Name:    name,
			RoundID: seed.ID,
			Equity:  types.Points(10),
		})
		require.NoError(t, err)
	}
	angel := addInvestor(t, e, "Angel", "5")
	assert.Equal(t, map[string]string{
		"A":     "76.95",
		"Ivy":   "8.55",
		"Ike":   "9.50",
		"Angel": "5.00",
	}, stakes(t, e))

	rev, err := e.DeleteRound(ctx, acct, seed.ID)
	require.NoError(t, err)
	assert.Equal(t, revision.ActionRoundDeleted, rev.Action)
	assert.Equal(t, types.FullEquity, rev.Total)
	require.Len(t, rev.Investors, 1)
	assert.Equal(t, angel.ID, rev.Investors[0].ID)
	assert.Equal(t, map[string]string{"A": "93.90", "Angel": "6.10"}, stakes(t, e))

	_, ok := rev.Member(a.ID)
	assert.True(t, ok)

	_, err = e.GetRound(ctx, seed.ID)
	assert.ErrorIs(t, err, captable.ErrRoundNotFound)
}

// pausingRoundStore holds DeleteRound until released and reports round
// lookups made while a deletion is pending.
type pausingRoundStore struct {
	*memory.Store

	deleting chan struct{}
	release  chan struct{}
	looked   chan struct{}
}

func (s *pausingRoundStore) DeleteRound(ctx context.Context, roundID id.RoundID) error {
	close(s.deleting)
	<-s.release
	return s.Store.DeleteRound(ctx, roundID)
}

func (s *pausingRoundStore) GetRound(ctx context.Context, roundID id.RoundID) (*round.Round, error) {
	rd, err := s.Store.GetRound(ctx, roundID)
	select {
	case <-s.deleting:
		select {
		case s.looked <- struct{}{}:
		default:
		}
	default:
	}
	return rd, err
}

func TestAddInvestorCannotJoinRoundBeingDeleted(t *testing.T) {
	st := &pausingRoundStore{
		Store:    memory.New(),
		deleting: make(chan struct{}),
		release:  make(chan struct{}),
		looked:   make(chan struct{}, 4),
	}
	e := captable.New(st, captable.WithLogger(quiet), captable.WithRetryInterval(time.Millisecond))
	ctx := context.Background()

	addMember(t, e, "A", member.RoleFounder, "100")
	seed := &round.Round{AccountID: acct, Name: "Seed", Raised: types.USD(100), PreMoney: types.USD(900)}
	require.NoError(t, e.CreateRound(ctx, seed))
	_, err := e.AddInvestor(ctx, acct, &investor.Investor{Name: "Seed Fund", RoundID: seed.ID, Equity: types.Points(10)})
	require.NoError(t, err)

	deleted := make(chan error, 1)
	go func() {
		_, err := e.DeleteRound(ctx, acct, seed.ID)
		deleted <- err
	}()
	<-st.deleting

	added := make(chan error, 1)
	go func() {
		_, err := e.AddInvestor(ctx, acct, &investor.Investor{Name: "Latecomer", RoundID: seed.ID, Equity: types.Points(5)})
		added <- err
	}()
	<-st.looked
	close(st.release)

	require.NoError(t, <-deleted)
	assert.ErrorIs(t, <-added, captable.ErrRoundNotFound)
	assert.Equal(t, map[string]string{"A": "100.00"}, stakes(t, e))
}

func TestRecalculateRepairsDrift(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	drifted := &revision.Revision{
		ID:        id.NewRevisionID(),
		AccountID: acct,
		Number:    1,
		Action:    revision.ActionMemberAdded,
		Members: []*member.Member{
			{ID: id.NewMemberID(), Name: "A", Role: member.RoleFounder, Equity: types.MustPercent("59.99")},
			{ID: id.NewMemberID(), Name: "B", Role: member.RoleTeam, Equity: types.MustPercent("39.98")},
		},
		Total: types.FullEquity,
	}
	require.NoError(t, s.AppendRevision(ctx, drifted))

	changes, err := e.Recalculate(ctx, acct)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, map[string]string{"A": "60.01", "B": "39.99"}, stakes(t, e))

	rev, err := e.Revision(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, revision.ActionReconciled, rev.Action)
	assert.Equal(t, int64(2), rev.Number)

	changes, err = e.Recalculate(ctx, acct)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, 2, historyLen(t, e))
}

func TestUnallocatedRemainderSurvivesCommits(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	founder := addMember(t, e, "Founder", member.RoleFounder, "60")
	snap, err := e.Snapshot(ctx, acct)
	require.NoError(t, err)
	assert.False(t, snap.Repaired)
	assert.Equal(t, "40.00", snap.Unallocated.String())

	changes, err := e.Recalculate(ctx, acct)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, 1, historyLen(t, e))
	assert.Equal(t, map[string]string{"Founder": "60.00"}, stakes(t, e))

	hire := addMember(t, e, "Hire", member.RoleTeam, "20")
	assert.Equal(t, map[string]string{"Founder": "48.00", "Hire": "20.00"}, stakes(t, e))

	rev, err := e.Revision(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, "68.00", rev.Total.String())

	changes, err = e.Recalculate(ctx, acct)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, 2, historyLen(t, e))

	_, err = e.RemoveMember(ctx, acct, hire.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Founder": "60.00"}, stakes(t, e))

	_, err = e.RemoveMember(ctx, acct, founder.ID)
	require.NoError(t, err)
	assert.Empty(t, stakes(t, e))
}

func TestRecalculateRepairsDriftToAllocatedTotal(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	require.NoError(t, s.AppendRevision(ctx, &revision.Revision{
		ID:        id.NewRevisionID(),
		AccountID: acct,
		Number:    1,
		Action:    revision.ActionMemberAdded,
		Members: []*member.Member{
			{ID: id.NewMemberID(), Name: "A", Role: member.RoleFounder, Equity: types.MustPercent("45")},
			{ID: id.NewMemberID(), Name: "B", Role: member.RoleTeam, Equity: types.MustPercent("45")},
		},
		Total: types.MustPercent("60"),
	}))

	changes, err := e.Recalculate(ctx, acct)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, map[string]string{"A": "30.00", "B": "30.00"}, stakes(t, e))
}

func TestResidualTieFollowsJoinOrder(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e, _ := newEngine(t, captable.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}))

	addInvestor(t, e, "Early", "100")
	addMember(t, e, "Late", member.RoleTeam, "50")
	assert.Equal(t, map[string]string{"Early": "50.00", "Late": "50.00"}, stakes(t, e))

	addMember(t, e, "C", member.RoleTeam, "33.33")
	assert.Equal(t, map[string]string{"Early": "33.33", "Late": "33.34", "C": "33.33"}, stakes(t, e))
}

func TestRecalculateEmptyAccount(t *testing.T) {
	e, _ := newEngine(t)
	changes, err := e.Recalculate(context.Background(), "acct_nobody")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

// flakyStore loses the race for the next revision a set number of times.
type flakyStore struct {
	*memory.Store

	mu        sync.Mutex
	conflicts int
}

func (f *flakyStore) AppendRevision(ctx context.Context, rev *revision.Revision) error {
	f.mu.Lock()
	if f.conflicts > 0 {
		f.conflicts--
		f.mu.Unlock()
		return fmt.Errorf("%w: injected", captable.ErrRevisionConflict)
	}
	f.mu.Unlock()
	return f.Store.AppendRevision(ctx, rev)
}

func TestConflictIsRetried(t *testing.T) {
	rec := &recorder{}
	s := &flakyStore{Store: memory.New(), conflicts: 2}
	e := captable.New(s,
		captable.WithLogger(quiet),
		captable.WithRetryInterval(time.Millisecond),
		captable.WithPlugin(rec),
	)

	m, err := e.AddMember(context.Background(), acct, &member.Member{
		Name: "A", Role: member.RoleFounder, Equity: types.FullEquity,
	})
	require.NoError(t, err)
	assert.Equal(t, types.FullEquity, m.Equity)
	assert.Equal(t, 2, rec.count("conflict"))
	assert.Equal(t, 1, rec.count("committed"))
	assert.Equal(t, 1, historyLen(t, e))
}

func TestConflictRetriesExhausted(t *testing.T) {
	s := &flakyStore{Store: memory.New(), conflicts: 100}
	e := captable.New(s,
		captable.WithLogger(quiet),
		captable.WithRetryInterval(time.Millisecond),
		captable.WithMaxRetries(3),
	)

	_, err := e.AddMember(context.Background(), acct, &member.Member{
		Name: "A", Role: member.RoleFounder, Equity: types.FullEquity,
	})
	require.Error(t, err)
	assert.True(t, captable.IsConflict(err))
	assert.True(t, captable.IsRetryable(err))
	assert.Equal(t, 97, s.conflicts)
}

func TestConcurrentWritersKeepTotalExact(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	// Two engines with separate in-process locks race on the same store,
	// as two service replicas would.
	engines := []*captable.Engine{
		captable.New(s, captable.WithLogger(quiet), captable.WithRetryInterval(time.Millisecond), captable.WithMaxRetries(50)),
		captable.New(s, captable.WithLogger(quiet), captable.WithRetryInterval(time.Millisecond), captable.WithMaxRetries(50)),
	}
	_, err := engines[0].AddMember(ctx, acct, &member.Member{Name: "A", Role: member.RoleFounder, Equity: types.FullEquity})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engines[i%2].AddInvestor(ctx, acct, &investor.Investor{
				Name:   fmt.Sprintf("I%d", i),
				Equity: types.Points(1),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rev, err := engines[0].Revision(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, int64(11), rev.Number)
	assert.Len(t, rev.Investors, 10)
	assert.Equal(t, types.FullEquity, rev.Total)

	snap, err := engines[1].Snapshot(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, types.FullEquity, snap.Total)
}

func TestPluginHooks(t *testing.T) {
	rec := &recorder{}
	e, _ := newEngine(t, captable.WithPlugin(rec))
	ctx := context.Background()

	a := addMember(t, e, "A", member.RoleFounder, "100")
	inv := addInvestor(t, e, "I", "20")
	_, err := e.RemoveInvestor(ctx, acct, inv.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, rec.count("added"))
	assert.Equal(t, 1, rec.count("removed"))
	assert.Equal(t, 3, rec.count("committed"))

	// Only the investor changes diluted or restored A.
	require.Len(t, rec.adjusted, 2)
	assert.Equal(t, a.ID.String(), rec.adjusted[0][0].Ref.String())
	assert.Equal(t, types.Points(-20), rec.adjusted[0][0].Delta())
	assert.Equal(t, types.Points(20), rec.adjusted[1][0].Delta())
}

func TestEntryValidatorRejects(t *testing.T) {
	e, _ := newEngine(t, captable.WithPlugin(denyList{"Blocked"}))
	addMember(t, e, "A", member.RoleFounder, "100")

	_, err := e.AddInvestor(context.Background(), acct, &investor.Investor{Name: "Blocked", Equity: types.Points(5)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deny-list")
	assert.Equal(t, 1, historyLen(t, e))
}

func TestReconcileWorker(t *testing.T) {
	rec := &recorder{}
	e, s := newEngine(t,
		captable.WithReconcileInterval(5*time.Millisecond),
		captable.WithPlugin(rec),
	)
	ctx := context.Background()

	require.NoError(t, s.AppendRevision(ctx, &revision.Revision{
		ID:        id.NewRevisionID(),
		AccountID: acct,
		Number:    1,
		Members: []*member.Member{
			{ID: id.NewMemberID(), Name: "A", Role: member.RoleFounder, Equity: types.Points(120)},
		},
	}))

	require.NoError(t, e.Start(ctx))
	assert.Eventually(t, func() bool {
		return rec.count("reconciled") == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, e.Stop())
	require.NoError(t, e.Stop())

	assert.Equal(t, 1, rec.count("init"))
	assert.Equal(t, 2, rec.count("shutdown"))
}

// recorder counts plugin events.
type recorder struct {
	mu       sync.Mutex
	events   map[string]int
	adjusted [][]equity.Change
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) inc(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[string]int)
	}
	r.events[event]++
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[event]
}

func (r *recorder) OnInit(context.Context, interface{}) error {
	r.inc("init")
	return nil
}

func (r *recorder) OnShutdown(context.Context) error {
	r.inc("shutdown")
	return nil
}

func (r *recorder) OnHolderAdded(context.Context, string, equity.Entry) error {
	r.inc("added")
	return nil
}

func (r *recorder) OnHolderRemoved(context.Context, string, equity.Entry) error {
	r.inc("removed")
	return nil
}

func (r *recorder) OnEquityAdjusted(_ context.Context, _ string, changes []equity.Change) error {
	r.mu.Lock()
	r.adjusted = append(r.adjusted, changes)
	r.mu.Unlock()
	return nil
}

func (r *recorder) OnRevisionCommitted(context.Context, *revision.Revision) error {
	r.inc("committed")
	return nil
}

func (r *recorder) OnRevisionConflict(context.Context, string, int, error) error {
	r.inc("conflict")
	return nil
}

func (r *recorder) OnCapTableReconciled(context.Context, string, []equity.Change) error {
	r.inc("reconciled")
	return nil
}

type denyList []string

func (denyList) Name() string { return "deny-list" }

func (d denyList) ValidateEntry(_ context.Context, _ string, entry equity.Entry) error {
	for _, name := range d {
		if entry.Name == name {
			return errors.New("holder is on the deny list")
		}
	}
	return nil
}
