package db

import (
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations. Statements are idempotent so the full
// set re-runs safely on every startup.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		voice       TEXT NOT NULL DEFAULT '',
		principles  TEXT NOT NULL DEFAULT '[]',
		interests   TEXT NOT NULL DEFAULT '[]',
		keywords    TEXT NOT NULL DEFAULT '[]',
		communities TEXT NOT NULL DEFAULT '[]',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS accounts (
		id                TEXT PRIMARY KEY,
		platform          TEXT NOT NULL,
		handle            TEXT NOT NULL,
		profile_id        TEXT NOT NULL REFERENCES profiles(id),
		status            TEXT NOT NULL DEFAULT 'active'
		                  CHECK(status IN ('active','paused','error')),
		discovery_last_at TEXT,
		discovery_error   TEXT,
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS discovery_schedules (
		account_id      TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		type            TEXT NOT NULL CHECK(type IN ('replies','search')),
		enabled         INTEGER NOT NULL DEFAULT 1,
		cron_expression TEXT NOT NULL,
		last_run_at     TEXT,
		PRIMARY KEY (account_id, type)
	)`,

	`CREATE TABLE IF NOT EXISTS authors (
		id               TEXT PRIMARY KEY,
		platform         TEXT NOT NULL,
		platform_user_id TEXT NOT NULL,
		handle           TEXT NOT NULL DEFAULT '',
		display_name     TEXT NOT NULL DEFAULT '',
		bio              TEXT NOT NULL DEFAULT '',
		follower_count   INTEGER NOT NULL DEFAULT 0,
		updated_at       TEXT NOT NULL,
		UNIQUE(platform, platform_user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS opportunities (
		id                TEXT PRIMARY KEY,
		account_id        TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		author_id         TEXT NOT NULL REFERENCES authors(id),
		platform          TEXT NOT NULL,
		post_id           TEXT NOT NULL,
		content           TEXT NOT NULL,
		content_posted_at TEXT NOT NULL,
		score_recency     INTEGER NOT NULL DEFAULT 0,
		score_impact      INTEGER NOT NULL DEFAULT 0,
		score_total       INTEGER NOT NULL DEFAULT 0,
		status            TEXT NOT NULL DEFAULT 'pending'
		                  CHECK(status IN ('pending','dismissed','responded','expired')),
		discovered_at     TEXT NOT NULL,
		expires_at        TEXT NOT NULL,
		discovery_type    TEXT NOT NULL CHECK(discovery_type IN ('replies','search')),
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL,
		UNIQUE(account_id, post_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_opportunities_account_status
		ON opportunities(account_id, status)`,

	`CREATE INDEX IF NOT EXISTS idx_opportunities_pending_expiry
		ON opportunities(status, expires_at)`,

	`CREATE TABLE IF NOT EXISTS responses (
		id                TEXT PRIMARY KEY,
		opportunity_id    TEXT NOT NULL REFERENCES opportunities(id) ON DELETE CASCADE,
		account_id        TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		text              TEXT NOT NULL,
		status            TEXT NOT NULL DEFAULT 'draft'
		                  CHECK(status IN ('draft','posted','dismissed')),
		version           INTEGER NOT NULL DEFAULT 1,
		metadata          TEXT NOT NULL DEFAULT '{}',
		platform_post_id  TEXT NOT NULL DEFAULT '',
		platform_post_url TEXT NOT NULL DEFAULT '',
		posted_at         TEXT,
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL,
		UNIQUE(opportunity_id, version)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_responses_opportunity
		ON responses(opportunity_id)`,
}
