package captable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/xraph/captable/equity"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/investor"
	"github.com/xraph/captable/member"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/types"
)

// errNothingToCommit ends a commit cycle without writing a revision.
var errNothingToCommit = errors.New("captable: nothing to commit")

// step derives the next cap table from the latest revision. Records for
// pending entries, and replacements for stored ones, go into st.
type step func(base *revision.Revision, st *staging) (equity.Snapshot, error)

// staging holds the records a step wants written instead of the stored
// ones, keyed by entry ref.
type staging struct {
	members   map[string]*member.Member
	investors map[string]*investor.Investor
}

func newStaging() *staging {
	return &staging{
		members:   make(map[string]*member.Member),
		investors: make(map[string]*investor.Investor),
	}
}

func (s *staging) member(ref equity.Ref, m *member.Member) { s.members[ref.Key()] = m }

func (s *staging) investor(ref equity.Ref, inv *investor.Investor) {
	s.investors[ref.Key()] = inv
}

// commitResult is one successful cycle.
type commitResult struct {
	base    *revision.Revision
	rev     *revision.Revision
	snap    equity.Snapshot
	changes []equity.Change
	skipped bool
}

// mutate runs load, compute and commit for one account under its lock,
// retrying the whole cycle from stored state when another writer committed
// first.
func (e *Engine) mutate(ctx context.Context, accountID string, action revision.Action, fn step) (*commitResult, error) {
	var res *commitResult
	err := e.locked(ctx, accountID, func() error {
		var err error
		res, err = e.commit(ctx, accountID, action, fn)
		return err
	})
	return res, err
}

// locked runs fn while holding the account lock.
func (e *Engine) locked(ctx context.Context, accountID string, fn func() error) error {
	if accountID == "" {
		return ValidationError{Field: "account_id", Message: "is required"}
	}

	unlock, err := e.locker.Lock(ctx, accountID)
	if err != nil {
		return fmt.Errorf("lock account %s: %w", accountID, err)
	}
	defer unlock()

	return fn()
}

// commit is the retried load-compute-commit loop. The caller holds the
// account lock.
func (e *Engine) commit(ctx context.Context, accountID string, action revision.Action, fn step) (*commitResult, error) {
	attempt := 0
	res, err := backoff.Retry(ctx, func() (*commitResult, error) {
		attempt++
		res, err := e.attempt(ctx, accountID, action, fn)
		switch {
		case err == nil:
			return res, nil
		case IsConflict(err):
			e.plugins.EmitRevisionConflict(ctx, accountID, attempt, err)
			e.logger.Warn("revision conflict, retrying",
				"account_id", accountID,
				"action", action,
				"attempt", attempt,
				"error", err,
			)
			return nil, err
		default:
			return nil, backoff.Permanent(err)
		}
	},
		backoff.WithBackOff(e.newBackOff()),
		backoff.WithMaxTries(e.maxRetries),
	)
	if err != nil {
		return nil, err
	}
	if res.skipped {
		return res, nil
	}

	if res.snap.Repaired {
		e.logger.Warn("stored stakes were renormalized during commit",
			"account_id", accountID,
			"revision", res.rev.Number,
			"action", action,
		)
	}
	e.logger.Info("revision committed",
		"account_id", accountID,
		"revision", res.rev.Number,
		"action", action,
		"holders", len(res.rev.Members)+len(res.rev.Investors),
		"total", res.rev.Total.String(),
	)

	e.plugins.EmitRevisionCommitted(ctx, res.rev)
	return res, nil
}

// attempt is one load-compute-commit cycle. Nothing it computes survives
// a failed append.
func (e *Engine) attempt(ctx context.Context, accountID string, action revision.Action, fn step) (*commitResult, error) {
	base, err := e.latest(ctx, accountID)
	if err != nil {
		return nil, err
	}

	st := newStaging()
	snap, err := fn(base, st)
	if errors.Is(err, errNothingToCommit) {
		return &commitResult{base: base, rev: base, snap: snap, skipped: true}, nil
	}
	if err != nil {
		return nil, err
	}

	next, err := e.materialize(base, action, snap, st)
	if err != nil {
		return nil, err
	}
	if err := e.revisions.Append(ctx, next); err != nil {
		return nil, fmt.Errorf("commit %s revision %d: %w", accountID, next.Number, err)
	}

	return &commitResult{
		base:    base,
		rev:     next,
		snap:    snap,
		changes: equity.Changes(base.Entries(), equity.Snapshot{Entries: next.Entries()}),
	}, nil
}

// latest loads the current revision, or the empty revision 0 for an
// account that has none.
func (e *Engine) latest(ctx context.Context, accountID string) (*revision.Revision, error) {
	rev, err := e.revisions.Latest(ctx, accountID)
	if errors.Is(err, ErrRevisionNotFound) {
		return revision.Initial(accountID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cap table %s: %w", accountID, err)
	}
	return rev, nil
}

// materialize turns a snapshot back into records. Stored records keep
// everything but their stake; pending entries become new records with
// fresh ids.
func (e *Engine) materialize(base *revision.Revision, action revision.Action, snap equity.Snapshot, st *staging) (*revision.Revision, error) {
	now := e.clock().UTC()
	next := &revision.Revision{
		ID:        id.NewRevisionID(),
		AccountID: base.AccountID,
		Number:    base.Number + 1,
		Action:    action,
		Members:   make([]*member.Member, 0, len(base.Members)+1),
		Investors: make([]*investor.Investor, 0, len(base.Investors)+1),
		Total:     snap.Total,
		CreatedAt: now,
	}

	for _, entry := range snap.Entries {
		key := entry.Ref.Key()

		if m, ok := st.members[key]; ok {
			if m.ID.IsNil() {
				m.ID = id.NewMemberID()
			}
			if m.JoinedAt.IsZero() {
				m.JoinedAt = now
			}
			stamp(&m.Entity, now)
			m.Equity = entry.Equity
			next.Members = append(next.Members, m.Clone())
			continue
		}
		if inv, ok := st.investors[key]; ok {
			if inv.ID.IsNil() {
				inv.ID = id.NewInvestorID()
			}
			stamp(&inv.Entity, now)
			inv.Equity = entry.Equity
			next.Investors = append(next.Investors, inv.Clone())
			continue
		}

		ref, ok := entry.Ref.(equity.Persisted)
		if !ok {
			return nil, fmt.Errorf("%w: pending entry %s has no record", ErrInvariantViolation, entry.Ref)
		}
		if m, ok := base.Member(ref.ID); ok {
			c := m.Clone()
			if c.Equity != entry.Equity {
				c.Equity = entry.Equity
				c.UpdatedAt = now
			}
			next.Members = append(next.Members, c)
			continue
		}
		if inv, ok := base.Investor(ref.ID); ok {
			c := inv.Clone()
			if c.Equity != entry.Equity {
				c.Equity = entry.Equity
				c.UpdatedAt = now
			}
			next.Investors = append(next.Investors, c)
			continue
		}
		return nil, fmt.Errorf("%w: entry %s has no stored record", ErrInvariantViolation, ref)
	}

	return next, nil
}

// stamp sets CreatedAt on first write and UpdatedAt on every write.
func stamp(ent *types.Entity, now time.Time) {
	if ent.CreatedAt.IsZero() {
		ent.CreatedAt = now
	}
	ent.UpdatedAt = now
}

// newBackOff returns the delay schedule between conflicting commits.
func (e *Engine) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.retryInterval
	b.MaxInterval = 50 * e.retryInterval
	return b
}
