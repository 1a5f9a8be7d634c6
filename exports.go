package captable

import (
	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/types"
)

// Re-export common types for convenience so users don't have to import the
// types and equity packages.

// Percent is re-exported from types package.
type Percent = types.Percent

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Snapshot is re-exported from equity package.
type Snapshot = equity.Snapshot

// Change is re-exported from equity package.
type Change = equity.Change

// Category is re-exported from equity package.
type Category = equity.Category

// Cap-table categories.
const (
	Founder  = equity.Founder
	Team     = equity.Team
	Investor = equity.Investor
)

// Percent constants.
const (
	NoEquity   = types.NoEquity
	FullEquity = types.FullEquity
)

// Re-export Percent and Money constructors
var (
	Points       = types.Points
	ParsePercent = types.ParsePercent
	MustPercent  = types.MustPercent
	USD          = types.USD
	EUR          = types.EUR
	GBP          = types.GBP
	ParseMoney   = types.ParseMoney
	ZeroMoney    = types.ZeroMoney
	Share        = types.Share
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
