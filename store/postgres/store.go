package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/captable"
	"github.com/xraph/captable/id"
	"github.com/xraph/captable/revision"
	"github.com/xraph/captable/round"
	capstore "github.com/xraph/captable/store"
)

// compile-time interface check
var _ capstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("captable/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("captable/postgres: migration failed: %w", err)
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
	m := new(revisionModel)
	err := s.pg.NewSelect(m).
		Where("account_id = $1", accountID).
		OrderExpr("number DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, captable.ErrRevisionNotFound
		}
		return nil, err
	}
	return fromRevisionModel(m)
}

// AppendRevision inserts the revision. The unique (account_id, number)
// index turns a lost race into ErrRevisionConflict.
func (s *Store) AppendRevision(ctx context.Context, rev *revision.Revision) error {
	m, err := toRevisionModel(rev)
	if err != nil {
		return fmt.Errorf("captable/postgres: %w", err)
	}
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s revision %d", captable.ErrRevisionConflict, rev.AccountID, rev.Number)
		}
		return err
	}
	return nil
}

func (s *Store) ListRevisions(ctx context.Context, accountID string, opts revision.ListOpts) ([]*revision.Revision, error) {
	var models []revisionModel
	q := s.pg.NewSelect(&models).
		Where("account_id = $1", accountID).
		OrderExpr("number DESC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
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

// ListAccounts returns every account with a committed revision. Each
// account has exactly one revision number 1.
func (s *Store) ListAccounts(ctx context.Context) ([]string, error) {
	var models []revisionModel
	err := s.pg.NewSelect(&models).
		Where("number = $1", 1).
		OrderExpr("account_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return captable.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) GetRound(ctx context.Context, roundID id.RoundID) (*round.Round, error) {
	m := new(roundModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", roundID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, captable.ErrRoundNotFound
		}
		return nil, err
	}
	return fromRoundModel(m)
}

func (s *Store) ListRounds(ctx context.Context, accountID string, opts round.ListOpts) ([]*round.Round, error) {
	var models []roundModel
	q := s.pg.NewSelect(&models).Where("account_id = $1", accountID)

	argIdx := 1
	if opts.Stage != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("stage = $%d", argIdx), string(opts.Stage))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return captable.ErrRoundNotFound
	}
	return nil
}

func (s *Store) DeleteRound(ctx context.Context, roundID id.RoundID) error {
	res, err := s.pg.NewDelete((*roundModel)(nil)).
		Where("id = $1", roundID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return captable.ErrRoundNotFound
	}
	return nil
}

// ==================== Helpers ====================

const pgerrUniqueViolation = "23505"

func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports a unique_violation (SQLSTATE 23505). The
// message check covers drivers that flatten the pgx error into text.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrUniqueViolation
	}
	return strings.Contains(err.Error(), "(SQLSTATE "+pgerrUniqueViolation+")")
}
