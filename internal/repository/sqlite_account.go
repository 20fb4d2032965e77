package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sparrow/internal/db"
	"sparrow/internal/domain"
)

const accountColumns = `id, platform, handle, profile_id, status, discovery_last_at, discovery_error, created_at, updated_at`

// SQLiteAccountRepo implements AccountRepo on SQLite. Schedule entries live
// in the discovery_schedules child table and are loaded with the account.
type SQLiteAccountRepo struct {
	conn db.DBTX
}

func NewSQLiteAccountRepo(conn db.DBTX) *SQLiteAccountRepo {
	return &SQLiteAccountRepo{conn: conn}
}

func (r *SQLiteAccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.conn.ExecContext(ctx, query,
		a.ID,
		a.Platform,
		a.Handle,
		a.ProfileID,
		string(a.Status),
		nullableTimeToString(a.DiscoveryLastAt),
		nullableString(a.DiscoveryError),
		a.CreatedAt.UTC().Format(time.RFC3339),
		a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	for i := range a.Schedules {
		a.Schedules[i].AccountID = a.ID
		if err := r.upsertSchedule(ctx, &a.Schedules[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	a, err := r.scanAccount(r.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadSchedules(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *SQLiteAccountRepo) List(ctx context.Context) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at`
	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		a, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, a := range out {
		if err := r.loadSchedules(ctx, a); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SQLiteAccountRepo) Update(ctx context.Context, a *domain.Account) error {
	a.UpdatedAt = time.Now().UTC()
	query := `UPDATE accounts SET platform = ?, handle = ?, profile_id = ?, status = ?,
		discovery_last_at = ?, discovery_error = ?, updated_at = ? WHERE id = ?`
	res, err := r.conn.ExecContext(ctx, query,
		a.Platform,
		a.Handle,
		a.ProfileID,
		string(a.Status),
		nullableTimeToString(a.DiscoveryLastAt),
		nullableString(a.DiscoveryError),
		a.UpdatedAt.Format(time.RFC3339),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account: %w", ErrNotFound)
	}
	for i := range a.Schedules {
		a.Schedules[i].AccountID = a.ID
		if err := r.upsertSchedule(ctx, &a.Schedules[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteAccountRepo) MarkDiscoverySuccess(ctx context.Context, accountID string, typ domain.DiscoveryType, at time.Time) error {
	ts := at.UTC().Format(time.RFC3339)
	res, err := r.conn.ExecContext(ctx,
		`UPDATE accounts SET discovery_last_at = ?, discovery_error = NULL, updated_at = ? WHERE id = ?`,
		ts, ts, accountID)
	if err != nil {
		return fmt.Errorf("recording discovery success: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account: %w", ErrNotFound)
	}
	_, err = r.conn.ExecContext(ctx,
		`UPDATE discovery_schedules SET last_run_at = ? WHERE account_id = ? AND type = ?`,
		ts, accountID, string(typ))
	if err != nil {
		return fmt.Errorf("recording schedule run: %w", err)
	}
	return nil
}

func (r *SQLiteAccountRepo) MarkDiscoveryError(ctx context.Context, accountID string, msg string) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE accounts SET discovery_error = ?, updated_at = ? WHERE id = ?`,
		msg, time.Now().UTC().Format(time.RFC3339), accountID)
	if err != nil {
		return fmt.Errorf("recording discovery error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account: %w", ErrNotFound)
	}
	return nil
}

func (r *SQLiteAccountRepo) upsertSchedule(ctx context.Context, s *domain.DiscoverySchedule) error {
	query := `INSERT INTO discovery_schedules (account_id, type, enabled, cron_expression, last_run_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account_id, type) DO UPDATE SET
			enabled = excluded.enabled,
			cron_expression = excluded.cron_expression`
	_, err := r.conn.ExecContext(ctx, query,
		s.AccountID,
		string(s.Type),
		boolToInt(s.Enabled),
		s.CronExpression,
		nullableTimeToString(s.LastRunAt),
	)
	if err != nil {
		return fmt.Errorf("upserting discovery schedule: %w", err)
	}
	return nil
}

func (r *SQLiteAccountRepo) loadSchedules(ctx context.Context, a *domain.Account) error {
	query := `SELECT account_id, type, enabled, cron_expression, last_run_at
		FROM discovery_schedules WHERE account_id = ? ORDER BY type`
	rows, err := r.conn.QueryContext(ctx, query, a.ID)
	if err != nil {
		return fmt.Errorf("loading discovery schedules: %w", err)
	}
	defer rows.Close()

	a.Schedules = nil
	for rows.Next() {
		var s domain.DiscoverySchedule
		var typ string
		var enabled int
		var lastRun sql.NullString
		if err := rows.Scan(&s.AccountID, &typ, &enabled, &s.CronExpression, &lastRun); err != nil {
			return fmt.Errorf("scanning discovery schedule: %w", err)
		}
		s.Type = domain.DiscoveryType(typ)
		s.Enabled = intToBool(enabled)
		s.LastRunAt = parseNullableTime(lastRun)
		a.Schedules = append(a.Schedules, s)
	}
	return rows.Err()
}

func (r *SQLiteAccountRepo) scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	var status, createdAt, updatedAt string
	var lastAt, discErr sql.NullString
	err := row.Scan(&a.ID, &a.Platform, &a.Handle, &a.ProfileID, &status, &lastAt, &discErr, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("account: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}
	a.Status = domain.AccountStatus(status)
	a.DiscoveryLastAt = parseNullableTime(lastAt)
	a.DiscoveryError = parseNullableString(discErr)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &a, nil
}
