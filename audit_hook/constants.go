package audithook

// Action constants for audit events.
const (
	// Holder actions
	ActionHolderAdded    = "holder.added"
	ActionHolderRemoved  = "holder.removed"
	ActionEquityAdjusted = "equity.adjusted"

	// Round actions
	ActionRoundCreated = "round.created"
	ActionRoundDeleted = "round.deleted"

	// Revision actions
	ActionRevisionCommitted = "revision.committed"
	ActionRevisionConflict  = "revision.conflict"

	// Cap table actions
	ActionCapTableReconciled = "captable.reconciled"
)

// Resource constants for audit events.
const (
	ResourceMember   = "member"
	ResourceInvestor = "investor"
	ResourceRound    = "round"
	ResourceRevision = "revision"
	ResourceCapTable = "captable"
)

// Category constants for audit events.
const (
	CategoryOwnership   = "ownership"
	CategoryFunding     = "funding"
	CategoryConsistency = "consistency"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
