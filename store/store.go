package store

import (
	"context"

	"github.com/xraph/captable/id"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/round"
)

// Store is the storage interface for cap-table data.
// Methods are declared explicitly rather than by embedding the per-package
// interfaces, whose method names collide.
type Store interface {
	// Revision methods
	LatestRevision(ctx context.Context, accountID string) (*revision.Revision, error)
	AppendRevision(ctx context.Context, rev *revision.Revision) error
	ListRevisions(ctx context.Context, accountID string, opts revision.ListOpts) ([]*revision.Revision, error)
	ListAccounts(ctx context.Context) ([]string, error)

	// Round methods
	CreateRound(ctx context.Context, r *round.Round) error
	GetRound(ctx context.Context, roundID id.RoundID) (*round.Round, error)
	ListRounds(ctx context.Context, accountID string, opts round.ListOpts) ([]*round.Round, error)
	UpdateRound(ctx context.Context, r *round.Round) error
	DeleteRound(ctx context.Context, roundID id.RoundID) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Revisions adapts a Store to revision.Store.
func Revisions(s Store) revision.Store { return revisionStore{s} }

// Rounds adapts a Store to round.Store.
func Rounds(s Store) round.Store { return roundStore{s} }

type revisionStore struct{ s Store }

func (r revisionStore) Latest(ctx context.Context, accountID string) (*revision.Revision, error) {
	return r.s.LatestRevision(ctx, accountID)
}

func (r revisionStore) Append(ctx context.Context, rev *revision.Revision) error {
	return r.s.AppendRevision(ctx, rev)
}

func (r revisionStore) List(ctx context.Context, accountID string, opts revision.ListOpts) ([]*revision.Revision, error) {
	return r.s.ListRevisions(ctx, accountID, opts)
}

func (r revisionStore) Accounts(ctx context.Context) ([]string, error) {
	return r.s.ListAccounts(ctx)
}

type roundStore struct{ s Store }

func (r roundStore) Create(ctx context.Context, rd *round.Round) error {
	return r.s.CreateRound(ctx, rd)
}

func (r roundStore) Get(ctx context.Context, roundID id.RoundID) (*round.Round, error) {
	return r.s.GetRound(ctx, roundID)
}

func (r roundStore) List(ctx context.Context, accountID string, opts round.ListOpts) ([]*round.Round, error) {
	return r.s.ListRounds(ctx, accountID, opts)
}

func (r roundStore) Update(ctx context.Context, rd *round.Round) error {
	return r.s.UpdateRound(ctx, rd)
}

func (r roundStore) Delete(ctx context.Context, roundID id.RoundID) error {
	return r.s.DeleteRound(ctx, roundID)
}
