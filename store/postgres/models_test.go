package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/captable/id"
	"github.com/xraph/captable/round"
	"github.com/xraph/captable/store/storetest"
	"github.com/xraph/captable/types"
)

func TestRevisionModelKeepsRecords(t *testing.T) {
	in := storetest.Revision("acct_1", 4)
	in.Investors[0].RoundID = id.NewRoundID()
	in.Metadata = map[string]string{"actor": "cli"}

	m, err := toRevisionModel(in)
	require.NoError(t, err)
	out, err := fromRevisionModel(m)
	require.NoError(t, err)

	assert.Equal(t, in.ID.String(), out.ID.String())
	assert.Equal(t, int64(4), out.Number)
	assert.Equal(t, in.Action, out.Action)
	assert.Equal(t, types.FullEquity, out.Total)
	assert.Equal(t, "cli", out.Metadata["actor"])
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))

	require.Len(t, out.Members, 1)
	assert.Equal(t, in.Members[0].ID.String(), out.Members[0].ID.String())
	assert.Equal(t, in.Members[0].Role, out.Members[0].Role)
	assert.Equal(t, in.Members[0].Equity, out.Members[0].Equity)
	assert.True(t, in.Members[0].JoinedAt.Equal(out.Members[0].JoinedAt))

	require.Len(t, out.Investors, 1)
	inv := out.Investors[0]
	assert.Equal(t, in.Investors[0].RoundID.String(), inv.RoundID.String())
	assert.Equal(t, types.USD(50_000_00), inv.Invested)
	assert.Equal(t, "storetest", inv.Metadata["source"])
}

func TestRevisionModelWithoutRound(t *testing.T) {
	in := storetest.Revision("acct_1", 1)

	m, err := toRevisionModel(in)
	require.NoError(t, err)
	out, err := fromRevisionModel(m)
	require.NoError(t, err)

	require.Len(t, out.Investors, 1)
	assert.True(t, out.Investors[0].RoundID.IsNil())
}

func TestRoundModel(t *testing.T) {
	closed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	in := &round.Round{
		Entity:    types.NewEntity(),
		ID:        id.NewRoundID(),
		AccountID: "acct_1",
		Name:      "Seed",
		Stage:     round.StageSeed,
		Raised:    types.USD(2_000_000_00),
		PreMoney:  types.USD(8_000_000_00),
		ClosedAt:  &closed,
	}

	out, err := fromRoundModel(toRoundModel(in))
	require.NoError(t, err)

	assert.Equal(t, in.ID.String(), out.ID.String())
	assert.Equal(t, in.Raised, out.Raised)
	assert.Equal(t, in.PreMoney, out.PreMoney)
	assert.Equal(t, round.StageSeed, out.Stage)
	require.NotNil(t, out.ClosedAt)
	assert.True(t, closed.Equal(*out.ClosedAt))
	assert.Equal(t, "$10000000.00", out.PostMoney().String())
}
