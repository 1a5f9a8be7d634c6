package equity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/types"
)

func stake(name string, c equity.Category, pct string) equity.Entry {
	prefix := id.PrefixMember
	if c == equity.Investor {
		prefix = id.PrefixInvestor
	}
	return equity.Entry{
		Ref:      equity.RefFor(id.New(prefix)),
		Category: c,
		Name:     name,
		Equity:   types.MustPercent(pct),
	}
}

func mustBuild(t *testing.T, entries ...equity.Entry) *equity.Table {
	t.Helper()
	tbl, err := equity.Build(entries)
	require.NoError(t, err)
	return tbl
}

func byName(s equity.Snapshot) map[string]string {
	out := make(map[string]string, len(s.Entries))
	for _, e := range s.Entries {
		out[e.Name] = e.Equity.String()
	}
	return out
}
