// Package plugin provides an extensible plugin system for the cap-table
// engine. Plugins can hook into lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/round"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Holder hooks
// ──────────────────────────────────────────────────

// OnHolderAdded is called after a member or investor joins a cap table.
type OnHolderAdded interface {
	Plugin
	OnHolderAdded(ctx context.Context, accountID string, entry equity.Entry) error
}

// OnHolderRemoved is called after a member or investor leaves a cap table.
type OnHolderRemoved interface {
	Plugin
	OnHolderRemoved(ctx context.Context, accountID string, entry equity.Entry) error
}

// OnEquityAdjusted is called with every stake a commit moved, including
// the dilution or redistribution of holders nobody touched directly.
type OnEquityAdjusted interface {
	Plugin
	OnEquityAdjusted(ctx context.Context, accountID string, changes []equity.Change) error
}

// ──────────────────────────────────────────────────
// Round hooks
// ──────────────────────────────────────────────────

// OnRoundCreated is called after a funding round is recorded.
type OnRoundCreated interface {
	Plugin
	OnRoundCreated(ctx context.Context, r *round.Round) error
}

// OnRoundDeleted is called after a round and its investors are removed.
type OnRoundDeleted interface {
	Plugin
	OnRoundDeleted(ctx context.Context, r *round.Round, investorsRemoved int) error
}

// ──────────────────────────────────────────────────
// Revision hooks
// ──────────────────────────────────────────────────

// OnRevisionCommitted is called after any revision is stored.
type OnRevisionCommitted interface {
	Plugin
	OnRevisionCommitted(ctx context.Context, rev *revision.Revision) error
}

// OnRevisionConflict is called when a commit lost the race for its
// revision number and is about to be retried.
type OnRevisionConflict interface {
	Plugin
	OnRevisionConflict(ctx context.Context, accountID string, attempt int, err error) error
}

// OnCapTableReconciled is called when a forced normalization rewrote
// stored stakes.
type OnCapTableReconciled interface {
	Plugin
	OnCapTableReconciled(ctx context.Context, accountID string, changes []equity.Change) error
}

// ──────────────────────────────────────────────────
// Validators
// ──────────────────────────────────────────────────

// EntryValidator vets a new stake before it is committed. A non-nil
// error rejects the operation.
type EntryValidator interface {
	Plugin
	ValidateEntry(ctx context.Context, accountID string, entry equity.Entry) error
}
