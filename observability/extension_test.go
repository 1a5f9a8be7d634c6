package observability_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/captable"
	"github.com/xraph/captable/investor"
	"github.com/xraph/captable/member"
	"github.com/xraph/captable/observability"
	"github.com/xraph/captable/store/memory"
	"github.com/xraph/captable/types"
)

func TestMetricsThroughEngine(t *testing.T) {
	reg := prometheus.NewRegistry()
	factory := observability.NewPrometheusFactory(reg)
	m := observability.NewMetricsExtension(factory)

	e := captable.New(memory.New(),
		captable.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		captable.WithPlugin(m),
	)
	ctx := context.Background()

	a, err := e.AddMember(ctx, "acct_1", &member.Member{Name: "Ada", Role: member.RoleFounder, Equity: types.MustPercent("100")})
	require.NoError(t, err)
	_, err = e.AddMember(ctx, "acct_1", &member.Member{Name: "Bo", Equity: types.MustPercent("30")})
	require.NoError(t, err)
	inv, err := e.AddInvestor(ctx, "acct_1", &investor.Investor{Name: "Angel", Equity: types.MustPercent("20")})
	require.NoError(t, err)
	_, err = e.RemoveInvestor(ctx, "acct_1", inv.ID)
	require.NoError(t, err)
	_, err = e.RemoveMember(ctx, "acct_1", a.ID)
	require.NoError(t, err)

	c := factory.Counter
	assert.Equal(t, 2.0, testutil.ToFloat64(c("captable.member.added").(prometheus.Counter)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c("captable.member.removed").(prometheus.Counter)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c("captable.investor.added").(prometheus.Counter)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c("captable.investor.removed").(prometheus.Counter)))
	assert.Equal(t, 5.0, testutil.ToFloat64(c("captable.revision.committed").(prometheus.Counter)))
	// 1 diluted by Bo, 2 diluted by Angel, 2 restored when Angel left, 1 gained by Bo.
	assert.Equal(t, 6.0, testutil.ToFloat64(c("captable.equity.adjusted").(prometheus.Counter)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c("captable.revision.conflicts").(prometheus.Counter)))

	n, err := testutil.GatherAndCount(reg, "captable_revision_holders")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPrometheusFactoryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	f1 := observability.NewPrometheusFactory(reg)
	f2 := observability.NewPrometheusFactory(reg)

	f1.Counter("captable.round.created").Inc()
	f2.Counter("captable.round.created").Inc()

	got := f1.Counter("captable.round.created").(prometheus.Counter)
	assert.Equal(t, 2.0, testutil.ToFloat64(got))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "captable_round_created_total", families[0].GetName())
}
