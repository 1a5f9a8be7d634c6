package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the cap-table store (SQLite).
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
    number       INTEGER NOT NULL,
    action       TEXT NOT NULL DEFAULT '',
    members      TEXT NOT NULL DEFAULT '[]',
    investors    TEXT NOT NULL DEFAULT '[]',
    total_equity INTEGER NOT NULL DEFAULT 0,
    metadata     TEXT NOT NULL DEFAULT '{}',
    created_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_captable_revisions_account_number ON captable_revisions (account_id, number);
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
    raised_amount    INTEGER NOT NULL DEFAULT 0,
    pre_money_amount INTEGER NOT NULL DEFAULT 0,
    currency         TEXT NOT NULL DEFAULT 'usd',
    closed_at        TEXT,
    metadata         TEXT NOT NULL DEFAULT '{}',
    created_at       TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
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
