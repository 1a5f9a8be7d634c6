package round

import (
	"time"

	"github.com/xraph/captable/id"
	"github.com/xraph/captable/types"
)

// Stage is the financing stage of a round.
type Stage string

const (
	StagePreSeed Stage = "pre_seed"
	StageSeed    Stage = "seed"
	StageSeriesA Stage = "series_a"
	StageSeriesB Stage = "series_b"
	StageSeriesC Stage = "series_c"
	StageBridge  Stage = "bridge"
)

// Round is a funding round. Its investors live on the cap table; the round
// itself only carries the terms.
type Round struct {
	types.Entity
	ID        id.RoundID        `json:"id"`
	AccountID string            `json:"account_id"`
	Name      string            `json:"name"`
	Stage     Stage             `json:"stage"`
	Raised    types.Money       `json:"raised"`
	PreMoney  types.Money       `json:"pre_money"`
	ClosedAt  *time.Time        `json:"closed_at,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// PostMoney returns the valuation after the round closes.
func (r *Round) PostMoney() types.Money { return r.PreMoney.Add(r.Raised) }

// ImpliedStake returns the share of the company invested buys at the
// round's price. A zero invested amount prices the whole round.
func (r *Round) ImpliedStake(invested types.Money) types.Percent {
	if invested.IsZero() {
		invested = r.Raised
	}
	return types.Share(invested, r.PostMoney())
}
