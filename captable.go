package captable

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/investor"
	"github.com/xraph/captable/lock"
	"github.com/xraph/captable/member"
	"github.com/xraph/captable/plugin"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/round"
	"github.com/xraph/captable/store"
	"github.com/xraph/captable/types"
)

// Engine is the cap-table service. Every change to an account's stakes
// goes through it: it loads the latest revision, runs the equity engine,
// and commits the result as the next revision.
type Engine struct {
	store     store.Store
	revisions revision.Store
	rounds    round.Store
	plugins   *plugin.Registry
	logger    *slog.Logger
	locker    lock.Locker
	clock     func() time.Time

	// Background workers
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Configuration
	maxRetries        uint
	retryInterval     time.Duration
	reconcileInterval time.Duration
	skipMigrate       bool
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         s,
		revisions:     store.Revisions(s),
		rounds:        store.Rounds(s),
		plugins:       plugin.NewRegistry(),
		logger:        slog.Default(),
		locker:        lock.NewLocal(),
		clock:         time.Now,
		stopChan:      make(chan struct{}),
		maxRetries:    5,
		retryInterval: 10 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithLocker sets the per-account lock. Use lock.NewRedis when several
// processes write the same accounts.
func WithLocker(l lock.Locker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithMaxRetries sets how many times a commit is attempted when other
// writers keep winning the race for the next revision.
func WithMaxRetries(n uint) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRetries = n
		}
	}
}

// WithRetryInterval sets the first delay between conflicting commits.
func WithRetryInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.retryInterval = d
		}
	}
}

// WithReconcileInterval starts a worker on Start that recalculates every
// account's cap table at the given interval. Zero disables it.
func WithReconcileInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.reconcileInterval = d
	}
}

// WithoutMigrate makes Start leave the store schema alone.
func WithoutMigrate() Option {
	return func(e *Engine) {
		e.skipMigrate = true
	}
}

// WithClock sets the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start migrates the store and begins background workers.
func (e *Engine) Start(ctx context.Context) error {
	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	e.plugins.EmitInit(ctx, e)

	if e.reconcileInterval > 0 {
		e.wg.Add(1)
		go e.reconcileWorker(ctx)
	}

	e.logger.Info("captable started",
		"max_retries", e.maxRetries,
		"reconcile_interval", e.reconcileInterval,
		"plugins", e.plugins.Count(),
	)

	return nil
}

// Stop shuts down the Engine and closes the store.
func (e *Engine) Stop() error {
	e.stopOnce.Do(func() { close(e.stopChan) })
	e.wg.Wait()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Members
// ──────────────────────────────────────────────────

// AddMember adds a founder or team member with m.Equity of the company,
// diluting every existing holder proportionally. The returned member
// carries its assigned id and final stake.
func (e *Engine) AddMember(ctx context.Context, accountID string, m *member.Member) (*member.Member, error) {
	if m == nil {
		return nil, ValidationError{Field: "member", Message: "is required"}
	}
	if m.Name == "" {
		return nil, ValidationError{Field: "name", Message: "is required"}
	}
	tpl := m.Clone()
	if tpl.Role == "" {
		tpl.Role = member.RoleTeam
	}
	if !tpl.Role.Valid() {
		return nil, ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", tpl.Role)}
	}
	if !tpl.ID.IsNil() && tpl.ID.Prefix() != id.PrefixMember {
		return nil, ValidationError{Field: "id", Message: "is not a member id"}
	}

	candidate := tpl.Entry()
	candidate.Ref = equity.NewPending()
	if err := e.plugins.ValidateEntry(ctx, accountID, candidate); err != nil {
		return nil, err
	}

	var staged *member.Member
	res, err := e.mutate(ctx, accountID, revision.ActionMemberAdded, func(base *revision.Revision, st *staging) (equity.Snapshot, error) {
		if !tpl.ID.IsNil() {
			if _, dup := base.Member(tpl.ID); dup {
				return equity.Snapshot{}, fmt.Errorf("%w: member %s", ErrDuplicateID, tpl.ID)
			}
		}
		t, err := table(base)
		if err != nil {
			return equity.Snapshot{}, err
		}

		staged = tpl.Clone()
		ref := equity.NewPending()
		entry := staged.Entry()
		entry.Ref = ref
		next, err := t.Add(entry)
		if err != nil {
			return equity.Snapshot{}, err
		}
		st.member(ref, staged)
		return next.Snapshot(), nil
	})
	if err != nil {
		return nil, err
	}

	added, ok := res.rev.Member(staged.ID)
	if !ok {
		return nil, fmt.Errorf("%w: committed member %s missing from revision", ErrInvariantViolation, staged.ID)
	}
	e.afterAdd(ctx, accountID, added.Entry(), res)
	return added.Clone(), nil
}

// RemoveMember removes a member and redistributes their stake over the
// remaining holders in proportion to what they hold.
func (e *Engine) RemoveMember(ctx context.Context, accountID string, memberID id.MemberID) (*revision.Revision, error) {
	var removed equity.Entry
	res, err := e.mutate(ctx, accountID, revision.ActionMemberRemoved, func(base *revision.Revision, _ *staging) (equity.Snapshot, error) {
		m, ok := base.Member(memberID)
		if !ok {
			return equity.Snapshot{}, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
		}
		removed = m.Entry()
		return removeStakes(base, removed.Ref)
	})
	if err != nil {
		return nil, err
	}

	e.afterRemove(ctx, accountID, res, removed)
	return res.rev, nil
}

// UpdateMember rewrites a member's profile. Stakes are left alone; use
// SetEquity to re-price.
func (e *Engine) UpdateMember(ctx context.Context, accountID string, m *member.Member) (*member.Member, error) {
	if m == nil || m.ID.IsNil() {
		return nil, ValidationError{Field: "id", Message: "is required"}
	}
	if m.Name == "" {
		return nil, ValidationError{Field: "name", Message: "is required"}
	}
	if !m.Role.Valid() {
		return nil, ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", m.Role)}
	}

	res, err := e.mutate(ctx, accountID, revision.ActionProfileUpdated, func(base *revision.Revision, st *staging) (equity.Snapshot, error) {
		cur, ok := base.Member(m.ID)
		if !ok {
			return equity.Snapshot{}, fmt.Errorf("%w: %s", ErrMemberNotFound, m.ID)
		}
		t, err := table(base)
		if err != nil {
			return equity.Snapshot{}, err
		}

		upd := cur.Clone()
		upd.Name = m.Name
		upd.Title = m.Title
		upd.Email = m.Email
		upd.Role = m.Role
		upd.Metadata = m.Clone().Metadata
		st.member(equity.RefFor(cur.ID), upd)

		snap := t.Snapshot()
		for i, entry := range snap.Entries {
			if entry.Ref.Key() == equity.RefFor(cur.ID).Key() {
				snap.Entries[i].Category = upd.Category()
				snap.Entries[i].Name = upd.Name
			}
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}

	updated, _ := res.rev.Member(m.ID)
	return updated.Clone(), nil
}

// ──────────────────────────────────────────────────
// Investors
// ──────────────────────────────────────────────────

// AddInvestor adds an outside stake. When inv.Equity is zero and the
// investor belongs to a round, the stake is priced from the round terms.
func (e *Engine) AddInvestor(ctx context.Context, accountID string, inv *investor.Investor) (*investor.Investor, error) {
	if inv == nil {
		return nil, ValidationError{Field: "investor", Message: "is required"}
	}
	if inv.Name == "" {
		return nil, ValidationError{Field: "name", Message: "is required"}
	}
	if !inv.ID.IsNil() && inv.ID.Prefix() != id.PrefixInvestor {
		return nil, ValidationError{Field: "id", Message: "is not an investor id"}
	}

	tpl := inv.Clone()
	if !tpl.RoundID.IsNil() {
		rd, err := e.roundFor(ctx, accountID, tpl.RoundID)
		if err != nil {
			return nil, err
		}
		if !tpl.Invested.IsZero() && tpl.Invested.Currency != rd.Raised.Currency {
			return nil, ValidationError{
				Field:   "invested",
				Message: fmt.Sprintf("currency %s does not match round currency %s", tpl.Invested.Currency, rd.Raised.Currency),
			}
		}
		if tpl.Equity.IsZero() {
			tpl.Equity = rd.ImpliedStake(tpl.Invested)
		}
	}

	candidate := tpl.Entry()
	candidate.Ref = equity.NewPending()
	if err := e.plugins.ValidateEntry(ctx, accountID, candidate); err != nil {
		return nil, err
	}

	var staged *investor.Investor
	res, err := e.mutate(ctx, accountID, revision.ActionInvestorAdded, func(base *revision.Revision, st *staging) (equity.Snapshot, error) {
		if !tpl.ID.IsNil() {
			if _, dup := base.Investor(tpl.ID); dup {
				return equity.Snapshot{}, fmt.Errorf("%w: investor %s", ErrDuplicateID, tpl.ID)
			}
		}
		// The round may have been deleted while this call waited for the lock.
		if !tpl.RoundID.IsNil() {
			if _, err := e.rounds.Get(ctx, tpl.RoundID); err != nil {
				return equity.Snapshot{}, err
			}
		}
		t, err := table(base)
		if err != nil {
			return equity.Snapshot{}, err
		}

		staged = tpl.Clone()
		ref := equity.NewPending()
		entry := staged.Entry()
		entry.Ref = ref
		next, err := t.Add(entry)
		if err != nil {
			return equity.Snapshot{}, err
		}
		st.investor(ref, staged)
		return next.Snapshot(), nil
	})
	if err != nil {
		return nil, err
	}

	added, ok := res.rev.Investor(staged.ID)
	if !ok {
		return nil, fmt.Errorf("%w: committed investor %s missing from revision", ErrInvariantViolation, staged.ID)
	}
	e.afterAdd(ctx, accountID, added.Entry(), res)
	return added.Clone(), nil
}

// RemoveInvestor removes an investor and redistributes their stake.
func (e *Engine) RemoveInvestor(ctx context.Context, accountID string, investorID id.InvestorID) (*revision.Revision, error) {
	var removed equity.Entry
	res, err := e.mutate(ctx, accountID, revision.ActionInvestorRemoved, func(base *revision.Revision, _ *staging) (equity.Snapshot, error) {
		inv, ok := base.Investor(investorID)
		if !ok {
			return equity.Snapshot{}, fmt.Errorf("%w: %s", ErrInvestorNotFound, investorID)
		}
		removed = inv.Entry()
		return removeStakes(base, removed.Ref)
	})
	if err != nil {
		return nil, err
	}

	e.afterRemove(ctx, accountID, res, removed)
	return res.rev, nil
}

// ──────────────────────────────────────────────────
// Stakes
// ──────────────────────────────────────────────────

// SetEquity re-prices an existing holder to p. The old stake is
// redistributed first and p is then taken from everyone else, so the
// holder ends at p and the others keep their relative sizes.
func (e *Engine) SetEquity(ctx context.Context, accountID string, holderID id.ID, p types.Percent) (*revision.Revision, error) {
	if !holderID.IsHolder() {
		return nil, ValidationError{Field: "holder_id", Message: "is not a member or investor id"}
	}

	res, err := e.mutate(ctx, accountID, revision.ActionEquityAdjusted, func(base *revision.Revision, _ *staging) (equity.Snapshot, error) {
		var entry equity.Entry
		if m, ok := base.Member(holderID); ok {
			entry = m.Entry()
		} else if inv, ok := base.Investor(holderID); ok {
			entry = inv.Entry()
		} else {
			return equity.Snapshot{}, fmt.Errorf("%w: holder %s", ErrNotFound, holderID)
		}
		if entry.Equity == p {
			return equity.Snapshot{}, errNothingToCommit
		}

		t, err := table(base)
		if err != nil {
			return equity.Snapshot{}, err
		}
		without, err := t.Remove(entry.Ref)
		if err != nil {
			return equity.Snapshot{}, err
		}
		entry.Equity = p
		next, err := without.Add(entry)
		if err != nil {
			return equity.Snapshot{}, err
		}
		return next.Snapshot(), nil
	})
	if err != nil {
		return nil, err
	}

	if !res.skipped {
		e.plugins.EmitEquityAdjusted(ctx, accountID, moved(res.changes))
	}
	return res.rev, nil
}

// Snapshot returns the current cap table of an account. An account with
// no revisions has an empty table.
func (e *Engine) Snapshot(ctx context.Context, accountID string) (equity.Snapshot, error) {
	base, err := e.latest(ctx, accountID)
	if err != nil {
		return equity.Snapshot{}, err
	}
	t, err := table(base)
	if err != nil {
		return equity.Snapshot{}, err
	}
	return t.Snapshot(), nil
}

// TotalByCategory returns the combined stake of one category.
func (e *Engine) TotalByCategory(ctx context.Context, accountID string, c equity.Category) (types.Percent, error) {
	if !c.Valid() {
		return 0, ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", c)}
	}
	snap, err := e.Snapshot(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return snap.TotalByCategory(c), nil
}

// Recalculate rebuilds the cap table from stored stakes, forces them back
// onto the revision's allocated total (100.00 unless part of the table is
// unallocated) and commits the corrected stakes. It commits nothing and
// returns no changes when the table is already exact.
func (e *Engine) Recalculate(ctx context.Context, accountID string) ([]equity.Change, error) {
	res, err := e.mutate(ctx, accountID, revision.ActionReconciled, func(base *revision.Revision, _ *staging) (equity.Snapshot, error) {
		snap, err := equity.ReconcileWithTarget(base.Entries(), base.Total)
		if err != nil {
			return equity.Snapshot{}, err
		}
		if !snap.Repaired {
			return snap, errNothingToCommit
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	if res.skipped {
		return nil, nil
	}

	e.logger.Warn("cap table reconciled",
		"account_id", accountID,
		"revision", res.rev.Number,
		"changes", len(res.changes),
	)
	e.plugins.EmitCapTableReconciled(ctx, accountID, res.changes)
	return res.changes, nil
}

// History lists an account's revisions, newest first.
func (e *Engine) History(ctx context.Context, accountID string, opts revision.ListOpts) ([]*revision.Revision, error) {
	return e.revisions.List(ctx, accountID, opts)
}

// Revision returns the latest committed revision of an account.
func (e *Engine) Revision(ctx context.Context, accountID string) (*revision.Revision, error) {
	return e.revisions.Latest(ctx, accountID)
}

// ──────────────────────────────────────────────────
// Rounds
// ──────────────────────────────────────────────────

// CreateRound records a funding round. Investors join it through
// AddInvestor.
func (e *Engine) CreateRound(ctx context.Context, r *round.Round) error {
	var errs MultiError
	if r.AccountID == "" {
		errs.Add(ValidationError{Field: "account_id", Message: "is required"})
	}
	if r.Name == "" {
		errs.Add(ValidationError{Field: "name", Message: "is required"})
	}
	if !r.Raised.IsPositive() {
		errs.Add(ValidationError{Field: "raised", Message: "must be positive"})
	}
	if r.PreMoney.IsNegative() {
		errs.Add(ValidationError{Field: "pre_money", Message: "must not be negative"})
	}
	if r.PreMoney.Currency != r.Raised.Currency {
		errs.Add(ValidationError{Field: "pre_money", Message: "currency must match raised"})
	}
	if err := errs.ErrOrNil(); err != nil {
		return err
	}

	if r.ID.IsNil() {
		r.ID = id.NewRoundID()
	}
	now := e.clock().UTC()
	r.Entity = types.Entity{CreatedAt: now, UpdatedAt: now}

	if err := e.rounds.Create(ctx, r); err != nil {
		return err
	}

	e.plugins.EmitRoundCreated(ctx, r)
	return nil
}

// GetRound retrieves a round by ID.
func (e *Engine) GetRound(ctx context.Context, roundID id.RoundID) (*round.Round, error) {
	return e.rounds.Get(ctx, roundID)
}

// ListRounds lists an account's rounds, oldest first.
func (e *Engine) ListRounds(ctx context.Context, accountID string, opts round.ListOpts) ([]*round.Round, error) {
	return e.rounds.List(ctx, accountID, opts)
}

// DeleteRound removes a round together with its investors. Their stakes
// are redistributed over the whole remaining cap table, one investor at a
// time in stored order. The round record is deleted under the same account
// lock as the commit, so no investor can join it in between.
func (e *Engine) DeleteRound(ctx context.Context, accountID string, roundID id.RoundID) (*revision.Revision, error) {
	rd, err := e.roundFor(ctx, accountID, roundID)
	if err != nil {
		return nil, err
	}

	var (
		removed []equity.Entry
		res     *commitResult
	)
	err = e.locked(ctx, accountID, func() error {
		var err error
		res, err = e.commit(ctx, accountID, revision.ActionRoundDeleted, func(base *revision.Revision, _ *staging) (equity.Snapshot, error) {
			investors := base.InvestorsInRound(roundID)
			if len(investors) == 0 {
				return equity.Snapshot{}, errNothingToCommit
			}
			removed = make([]equity.Entry, 0, len(investors))
			refs := make([]equity.Ref, 0, len(investors))
			for _, inv := range investors {
				removed = append(removed, inv.Entry())
				refs = append(refs, equity.RefFor(inv.ID))
			}
			return removeStakes(base, refs...)
		})
		if err != nil {
			return err
		}
		if err := e.rounds.Delete(ctx, roundID); err != nil {
			return fmt.Errorf("delete round %s: %w", roundID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !res.skipped {
		for _, entry := range removed {
			e.plugins.EmitHolderRemoved(ctx, accountID, entry)
		}
		e.plugins.EmitEquityAdjusted(ctx, accountID, moved(res.changes))
	}
	e.plugins.EmitRoundDeleted(ctx, rd, len(removed))
	return res.rev, nil
}

// roundFor loads a round and checks it belongs to accountID.
func (e *Engine) roundFor(ctx context.Context, accountID string, roundID id.RoundID) (*round.Round, error) {
	rd, err := e.rounds.Get(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if rd.AccountID != accountID {
		return nil, fmt.Errorf("%w: round %s", ErrRoundMismatch, roundID)
	}
	return rd, nil
}

// ──────────────────────────────────────────────────
// Reconciliation worker
// ──────────────────────────────────────────────────

// reconcileWorker periodically recalculates every account.
func (e *Engine) reconcileWorker(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.reconcileAll(ctx)
		}
	}
}

func (e *Engine) reconcileAll(ctx context.Context) {
	start := time.Now()

	accounts, err := e.revisions.Accounts(ctx)
	if err != nil {
		e.logger.Error("failed to list accounts for reconciliation", "error", err)
		return
	}

	repaired := 0
	for _, accountID := range accounts {
		changes, err := e.Recalculate(ctx, accountID)
		if err != nil {
			e.logger.Error("failed to reconcile cap table",
				"account_id", accountID,
				"error", err,
			)
			continue
		}
		if len(changes) > 0 {
			repaired++
		}
	}

	e.logger.Debug("reconciled cap tables",
		"accounts", len(accounts),
		"repaired", repaired,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// table builds the engine table for a revision. The stored total is the
// allocated share, so a table that holds equity back stays that way.
func table(base *revision.Revision) (*equity.Table, error) {
	t, err := equity.BuildWithTarget(base.Entries(), base.Total)
	if err != nil {
		return nil, fmt.Errorf("build cap table %s revision %d: %w", base.AccountID, base.Number, err)
	}
	return t, nil
}

// removeStakes removes refs one after another on chained tables.
func removeStakes(base *revision.Revision, refs ...equity.Ref) (equity.Snapshot, error) {
	t, err := table(base)
	if err != nil {
		return equity.Snapshot{}, err
	}
	for _, ref := range refs {
		if t, err = t.Remove(ref); err != nil {
			return equity.Snapshot{}, err
		}
	}
	return t.Snapshot(), nil
}

func (e *Engine) afterAdd(ctx context.Context, accountID string, added equity.Entry, res *commitResult) {
	e.plugins.EmitHolderAdded(ctx, accountID, added)
	e.plugins.EmitEquityAdjusted(ctx, accountID, moved(res.changes))
}

func (e *Engine) afterRemove(ctx context.Context, accountID string, res *commitResult, removed equity.Entry) {
	e.plugins.EmitHolderRemoved(ctx, accountID, removed)
	e.plugins.EmitEquityAdjusted(ctx, accountID, moved(res.changes))
}

// moved drops the added and removed holders from changes, leaving the
// stakes that were diluted or topped up as a side effect.
func moved(changes []equity.Change) []equity.Change {
	var out []equity.Change
	for _, c := range changes {
		if !c.Added && !c.Removed {
			out = append(out, c)
		}
	}
	return out
}
