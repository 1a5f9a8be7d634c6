// Package audithook bridges cap-table lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/plugin"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/round"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnHolderAdded        = (*Extension)(nil)
	_ plugin.OnHolderRemoved      = (*Extension)(nil)
	_ plugin.OnEquityAdjusted     = (*Extension)(nil)
	_ plugin.OnRoundCreated       = (*Extension)(nil)
	_ plugin.OnRoundDeleted       = (*Extension)(nil)
	_ plugin.OnRevisionCommitted  = (*Extension)(nil)
	_ plugin.OnRevisionConflict   = (*Extension)(nil)
	_ plugin.OnCapTableReconciled = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges cap-table lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Holder hooks
// ──────────────────────────────────────────────────

// OnHolderAdded implements plugin.OnHolderAdded.
func (e *Extension) OnHolderAdded(ctx context.Context, accountID string, entry equity.Entry) error {
	return e.record(ctx, ActionHolderAdded, SeverityInfo, OutcomeSuccess,
		holderResource(entry), entry.Ref.String(), CategoryOwnership, nil,
		"account_id", accountID,
		"name", entry.Name,
		"category", string(entry.Category),
		"equity", entry.Equity.String(),
	)
}

// OnHolderRemoved implements plugin.OnHolderRemoved.
func (e *Extension) OnHolderRemoved(ctx context.Context, accountID string, entry equity.Entry) error {
	return e.record(ctx, ActionHolderRemoved, SeverityInfo, OutcomeSuccess,
		holderResource(entry), entry.Ref.String(), CategoryOwnership, nil,
		"account_id", accountID,
		"name", entry.Name,
		"category", string(entry.Category),
		"equity", entry.Equity.String(),
	)
}

// OnEquityAdjusted implements plugin.OnEquityAdjusted.
func (e *Extension) OnEquityAdjusted(ctx context.Context, accountID string, changes []equity.Change) error {
	return e.record(ctx, ActionEquityAdjusted, SeverityInfo, OutcomeSuccess,
		ResourceCapTable, accountID, CategoryOwnership, nil,
		"account_id", accountID,
		"changes", changeSummary(changes),
	)
}

// ──────────────────────────────────────────────────
// Round hooks
// ──────────────────────────────────────────────────

// OnRoundCreated implements plugin.OnRoundCreated.
func (e *Extension) OnRoundCreated(ctx context.Context, r *round.Round) error {
	return e.record(ctx, ActionRoundCreated, SeverityInfo, OutcomeSuccess,
		ResourceRound, r.ID.String(), CategoryFunding, nil,
		"account_id", r.AccountID,
		"stage", string(r.Stage),
		"raised", r.Raised.String(),
		"pre_money", r.PreMoney.String(),
	)
}

// OnRoundDeleted implements plugin.OnRoundDeleted.
func (e *Extension) OnRoundDeleted(ctx context.Context, r *round.Round, investorsRemoved int) error {
	return e.record(ctx, ActionRoundDeleted, SeverityWarning, OutcomeSuccess,
		ResourceRound, r.ID.String(), CategoryFunding, nil,
		"account_id", r.AccountID,
		"stage", string(r.Stage),
		"investors_removed", investorsRemoved,
	)
}

// ──────────────────────────────────────────────────
// Revision hooks
// ──────────────────────────────────────────────────

// OnRevisionCommitted implements plugin.OnRevisionCommitted.
func (e *Extension) OnRevisionCommitted(ctx context.Context, rev *revision.Revision) error {
	return e.record(ctx, ActionRevisionCommitted, SeverityInfo, OutcomeSuccess,
		ResourceRevision, rev.ID.String(), CategoryOwnership, nil,
		"account_id", rev.AccountID,
		"number", rev.Number,
		"action", string(rev.Action),
		"total", rev.Total.String(),
	)
}

// OnRevisionConflict implements plugin.OnRevisionConflict.
func (e *Extension) OnRevisionConflict(ctx context.Context, accountID string, attempt int, err error) error {
	return e.record(ctx, ActionRevisionConflict, SeverityWarning, OutcomeFailure,
		ResourceRevision, "", CategoryConsistency, err,
		"account_id", accountID,
		"attempt", attempt,
	)
}

// OnCapTableReconciled implements plugin.OnCapTableReconciled.
func (e *Extension) OnCapTableReconciled(ctx context.Context, accountID string, changes []equity.Change) error {
	return e.record(ctx, ActionCapTableReconciled, SeverityWarning, OutcomePartial,
		ResourceCapTable, accountID, CategoryConsistency, nil,
		"account_id", accountID,
		"changes", changeSummary(changes),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func holderResource(entry equity.Entry) string {
	if entry.Category == equity.Investor {
		return ResourceInvestor
	}
	return ResourceMember
}

// changeSummary renders changes as "name: before -> after".
func changeSummary(changes []equity.Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = fmt.Sprintf("%s: %s -> %s", c.Name, c.Before, c.After)
	}
	return out
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
