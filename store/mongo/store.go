package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/captable"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/round"
	capstore "github.com/xraph/captable/store"
)

// Collection name constants.
const (
	colRevisions = "captable_revisions"
	colRounds    = "captable_rounds"
)

// compile-time interface check
var _ capstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all cap-table collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("captable/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Revision Store ====================

func (s *Store) LatestRevision(ctx context.Context, accountID string) (*revision.Revision, error) {
	var m revisionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"account_id": accountID}).
		Sort(bson.D{{Key: "number", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, captable.ErrRevisionNotFound
		}
		return nil, fmt.Errorf("captable/mongo: latest revision: %w", err)
	}
	return fromRevisionModel(&m)
}

// AppendRevision inserts the revision. The unique (account_id, number)
// index turns a lost race into ErrRevisionConflict.
func (s *Store) AppendRevision(ctx context.Context, rev *revision.Revision) error {
	m := toRevisionModel(rev)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s revision %d", captable.ErrRevisionConflict, rev.AccountID, rev.Number)
		}
		return fmt.Errorf("captable/mongo: append revision: %w", err)
	}
	return nil
}

func (s *Store) ListRevisions(ctx context.Context, accountID string, opts revision.ListOpts) ([]*revision.Revision, error) {
	var models []revisionModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"account_id": accountID}).
		Sort(bson.D{{Key: "number", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("captable/mongo: list revisions: %w", err)
	}

	result := make([]*revision.Revision, len(models))
	for i := range models {
		r, err := fromRevisionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// ListAccounts returns every account with a committed revision.
func (s *Store) ListAccounts(ctx context.Context) ([]string, error) {
	var models []revisionModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"number": 1}).
		Sort(bson.D{{Key: "account_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("captable/mongo: list accounts: %w", err)
	}

	accounts := make([]string, len(models))
	for i := range models {
		accounts[i] = models[i].AccountID
	}
	return accounts, nil
}

// ==================== Round Store ====================

func (s *Store) CreateRound(ctx context.Context, r *round.Round) error {
	m := toRoundModel(r)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return captable.ErrAlreadyExists
		}
		return fmt.Errorf("captable/mongo: create round: %w", err)
	}
	return nil
}

func (s *Store) GetRound(ctx context.Context, roundID id.RoundID) (*round.Round, error) {
	var m roundModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": roundID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, captable.ErrRoundNotFound
		}
		return nil, fmt.Errorf("captable/mongo: get round: %w", err)
	}
	return fromRoundModel(&m)
}

func (s *Store) ListRounds(ctx context.Context, accountID string, opts round.ListOpts) ([]*round.Round, error) {
	var models []roundModel

	filter := bson.M{"account_id": accountID}
	if opts.Stage != "" {
		filter["stage"] = string(opts.Stage)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("captable/mongo: list rounds: %w", err)
	}

	result := make([]*round.Round, len(models))
	for i := range models {
		r, err := fromRoundModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) UpdateRound(ctx context.Context, r *round.Round) error {
	m := toRoundModel(r)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("captable/mongo: update round: %w", err)
	}
	if res.MatchedCount() == 0 {
		return captable.ErrRoundNotFound
	}
	return nil
}

func (s *Store) DeleteRound(ctx context.Context, roundID id.RoundID) error {
	res, err := s.mdb.NewDelete((*roundModel)(nil)).
		Filter(bson.M{"_id": roundID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("captable/mongo: delete round: %w", err)
	}
	if res.DeletedCount() == 0 {
		return captable.ErrRoundNotFound
	}
	return nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all cap-table collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colRevisions: {
			{
				Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "number", Value: 1}, {Key: "account_id", Value: 1}}},
		},
		colRounds: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "stage", Value: 1}}},
		},
	}
}
