package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the cap-table store (PostgreSQL).
var Migrations = migrate.NewGroup("captable")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_captable_revisions",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS captable_revisions (
    id           TEXT PRIMARY KEY,
    account_id   TEXT NOT NULL,
    number       BIGINT NOT NULL,
    action       TEXT NOT NULL DEFAULT '',
    members      JSONB NOT NULL DEFAULT '[]',
    investors    JSONB NOT NULL DEFAULT '[]',
    total_equity BIGINT NOT NULL DEFAULT 0,
    metadata     JSONB NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT captable_revisions_number_positive CHECK (number > 0)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_captable_revisions_account_number ON captable_revisions (account_id, number);
CREATE INDEX IF NOT EXISTS idx_captable_revisions_first ON captable_revisions (account_id) WHERE number = 1;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS captable_revisions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_captable_rounds",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS captable_rounds (
    id               TEXT PRIMARY KEY,
    account_id       TEXT NOT NULL,
    name             TEXT NOT NULL DEFAULT '',
    stage            TEXT NOT NULL DEFAULT '',
    raised_amount    BIGINT NOT NULL DEFAULT 0,
    pre_money_amount BIGINT NOT NULL DEFAULT 0,
    currency         TEXT NOT NULL DEFAULT 'usd',
    closed_at        TIMESTAMPTZ,
    metadata         JSONB NOT NULL DEFAULT '{}',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_captable_rounds_account ON captable_rounds (account_id, created_at);
CREATE INDEX IF NOT EXISTS idx_captable_rounds_stage ON captable_rounds (account_id, stage);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS captable_rounds`)
				return err
			},
		},
	)
}
