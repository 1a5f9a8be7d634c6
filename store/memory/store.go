package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/xraph/captable"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/round"
	capstore "github.com/xraph/captable/store"
)

// compile-time interface check
var _ capstore.Store = (*Store)(nil)

// Store keeps everything in process memory. Records are copied on the way
// in and out, so callers never share state with the store.
type Store struct {
	mu     sync.RWMutex
	closed bool

	// Revisions per account, ordered by number.
	revisions map[string][]*revision.Revision

	rounds map[string]*round.Round
}

func New() *Store {
	return &Store{
		revisions: make(map[string][]*revision.Revision),
		rounds:    make(map[string]*round.Round),
	}
}

// ==================== Revision Store ====================

func (s *Store) LatestRevision(_ context.Context, accountID string) (*revision.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, captable.ErrStoreClosed
	}
	revs := s.revisions[accountID]
	if len(revs) == 0 {
		return nil, captable.ErrRevisionNotFound
	}
	return revs[len(revs)-1].Clone(), nil
}

func (s *Store) AppendRevision(_ context.Context, rev *revision.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return captable.ErrStoreClosed
	}
	revs := s.revisions[rev.AccountID]
	next := int64(len(revs)) + 1
	if rev.Number < next {
		return fmt.Errorf("%w: %s revision %d", captable.ErrRevisionConflict, rev.AccountID, rev.Number)
	}
	if rev.Number > next {
		return fmt.Errorf("%w: revision %d skips %d", captable.ErrInvalidInput, rev.Number, next)
	}
	s.revisions[rev.AccountID] = append(revs, rev.Clone())
	return nil
}

func (s *Store) ListRevisions(_ context.Context, accountID string, opts revision.ListOpts) ([]*revision.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, captable.ErrStoreClosed
	}
	revs := s.revisions[accountID]
	result := make([]*revision.Revision, 0, len(revs))
	for i := len(revs) - 1; i >= 0; i-- {
		result = append(result, revs[i].Clone())
	}
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) ListAccounts(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, captable.ErrStoreClosed
	}
	accounts := make([]string, 0, len(s.revisions))
	for account, revs := range s.revisions {
		if len(revs) > 0 {
			accounts = append(accounts, account)
		}
	}
	slices.Sort(accounts)
	return accounts, nil
}

// ==================== Round Store ====================

func (s *Store) CreateRound(_ context.Context, r *round.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return captable.ErrStoreClosed
	}
	if _, exists := s.rounds[r.ID.String()]; exists {
		return captable.ErrAlreadyExists
	}
	cp := *r
	s.rounds[r.ID.String()] = &cp
	return nil
}

func (s *Store) GetRound(_ context.Context, roundID id.RoundID) (*round.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, captable.ErrStoreClosed
	}
	r, ok := s.rounds[roundID.String()]
	if !ok {
		return nil, captable.ErrRoundNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListRounds(_ context.Context, accountID string, opts round.ListOpts) ([]*round.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, captable.ErrStoreClosed
	}
	result := make([]*round.Round, 0)
	for _, r := range s.rounds {
		if r.AccountID != accountID {
			continue
		}
		if opts.Stage != "" && r.Stage != opts.Stage {
			continue
		}
		cp := *r
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateRound(_ context.Context, r *round.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return captable.ErrStoreClosed
	}
	if _, exists := s.rounds[r.ID.String()]; !exists {
		return captable.ErrRoundNotFound
	}
	cp := *r
	s.rounds[r.ID.String()] = &cp
	return nil
}

func (s *Store) DeleteRound(_ context.Context, roundID id.RoundID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return captable.ErrStoreClosed
	}
	if _, exists := s.rounds[roundID.String()]; !exists {
		return captable.ErrRoundNotFound
	}
	delete(s.rounds, roundID.String())
	return nil
}

// ==================== Core ====================

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return captable.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	start := min(offset, len(items))
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return items[start:end]
}
