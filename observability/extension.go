// Package observability provides a metrics extension for the cap-table
// engine that records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/plugin"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/round"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnHolderAdded        = (*MetricsExtension)(nil)
	_ plugin.OnHolderRemoved      = (*MetricsExtension)(nil)
	_ plugin.OnEquityAdjusted     = (*MetricsExtension)(nil)
	_ plugin.OnRoundCreated       = (*MetricsExtension)(nil)
	_ plugin.OnRoundDeleted       = (*MetricsExtension)(nil)
	_ plugin.OnRevisionCommitted  = (*MetricsExtension)(nil)
	_ plugin.OnRevisionConflict   = (*MetricsExtension)(nil)
	_ plugin.OnCapTableReconciled = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an engine plugin to track cap-table activity.
type MetricsExtension struct {
	factory MetricFactory

	// Holder metrics
	MembersAdded      Counter
	MembersRemoved    Counter
	InvestorsAdded    Counter
	InvestorsRemoved  Counter
	StakesAdjusted    Counter
	AdjustmentPercent Histogram

	// Round metrics
	RoundsCreated         Counter
	RoundsDeleted         Counter
	RoundInvestorsRemoved Counter

	// Revision metrics
	RevisionsCommitted Counter
	RevisionConflicts  Counter
	HoldersPerRevision Histogram

	// Consistency metrics
	Reconciliations  Counter
	ReconciledStakes Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use NewPrometheusFactory, or app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Holder metrics
		MembersAdded:      factory.Counter("captable.member.added"),
		MembersRemoved:    factory.Counter("captable.member.removed"),
		InvestorsAdded:    factory.Counter("captable.investor.added"),
		InvestorsRemoved:  factory.Counter("captable.investor.removed"),
		StakesAdjusted:    factory.Counter("captable.equity.adjusted"),
		AdjustmentPercent: factory.Histogram("captable.equity.adjustment_percent"),

		// Round metrics
		RoundsCreated:         factory.Counter("captable.round.created"),
		RoundsDeleted:         factory.Counter("captable.round.deleted"),
		RoundInvestorsRemoved: factory.Counter("captable.round.investors_removed"),

		// Revision metrics
		RevisionsCommitted: factory.Counter("captable.revision.committed"),
		RevisionConflicts:  factory.Counter("captable.revision.conflicts"),
		HoldersPerRevision: factory.Histogram("captable.revision.holders"),

		// Consistency metrics
		Reconciliations:  factory.Counter("captable.reconciled"),
		ReconciledStakes: factory.Counter("captable.reconciled.stakes"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Holder hooks
// ──────────────────────────────────────────────────

// OnHolderAdded implements plugin.OnHolderAdded.
func (m *MetricsExtension) OnHolderAdded(_ context.Context, _ string, entry equity.Entry) error {
	if entry.Category == equity.Investor {
		m.InvestorsAdded.Inc()
	} else {
		m.MembersAdded.Inc()
	}
	return nil
}

// OnHolderRemoved implements plugin.OnHolderRemoved.
func (m *MetricsExtension) OnHolderRemoved(_ context.Context, _ string, entry equity.Entry) error {
	if entry.Category == equity.Investor {
		m.InvestorsRemoved.Inc()
	} else {
		m.MembersRemoved.Inc()
	}
	return nil
}

// OnEquityAdjusted implements plugin.OnEquityAdjusted.
func (m *MetricsExtension) OnEquityAdjusted(_ context.Context, _ string, changes []equity.Change) error {
	m.StakesAdjusted.Add(float64(len(changes)))
	for _, c := range changes {
		m.AdjustmentPercent.Observe(c.Delta().Abs().Float64())
	}
	return nil
}

// ──────────────────────────────────────────────────
// Round hooks
// ──────────────────────────────────────────────────

// OnRoundCreated implements plugin.OnRoundCreated.
func (m *MetricsExtension) OnRoundCreated(_ context.Context, _ *round.Round) error {
	m.RoundsCreated.Inc()
	return nil
}

// OnRoundDeleted implements plugin.OnRoundDeleted.
func (m *MetricsExtension) OnRoundDeleted(_ context.Context, _ *round.Round, investorsRemoved int) error {
	m.RoundsDeleted.Inc()
	m.RoundInvestorsRemoved.Add(float64(investorsRemoved))
	return nil
}

// ──────────────────────────────────────────────────
// Revision hooks
// ──────────────────────────────────────────────────

// OnRevisionCommitted implements plugin.OnRevisionCommitted.
func (m *MetricsExtension) OnRevisionCommitted(_ context.Context, rev *revision.Revision) error {
	m.RevisionsCommitted.Inc()
	m.HoldersPerRevision.Observe(float64(len(rev.Members) + len(rev.Investors)))
	return nil
}

// OnRevisionConflict implements plugin.OnRevisionConflict.
func (m *MetricsExtension) OnRevisionConflict(_ context.Context, _ string, _ int, _ error) error {
	m.RevisionConflicts.Inc()
	return nil
}

// OnCapTableReconciled implements plugin.OnCapTableReconciled.
func (m *MetricsExtension) OnCapTableReconciled(_ context.Context, _ string, changes []equity.Change) error {
	m.Reconciliations.Inc()
	m.ReconciledStakes.Add(float64(len(changes)))
	return nil
}
