package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sparrow/internal/db"
	"sparrow/internal/domain"
)

const opportunityColumns = `id, account_id, author_id, platform, post_id, content, content_posted_at,
		score_recency, score_impact, score_total, status, discovered_at, expires_at, discovery_type,
		created_at, updated_at`

// SQLiteOpportunityRepo implements OpportunityRepo on SQLite.
type SQLiteOpportunityRepo struct {
	conn db.DBTX
}

func NewSQLiteOpportunityRepo(conn db.DBTX) *SQLiteOpportunityRepo {
	return &SQLiteOpportunityRepo{conn: conn}
}

func (r *SQLiteOpportunityRepo) Create(ctx context.Context, o *domain.Opportunity) error {
	query := `INSERT INTO opportunities (` + opportunityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.conn.ExecContext(ctx, query,
		o.ID,
		o.AccountID,
		o.AuthorID,
		o.Platform,
		o.PostID,
		o.Content,
		o.ContentPostedAt.UTC().Format(time.RFC3339),
		o.Scoring.Recency,
		o.Scoring.Impact,
		o.Scoring.Total,
		string(o.Status),
		o.DiscoveredAt.UTC().Format(time.RFC3339),
		o.ExpiresAt.UTC().Format(time.RFC3339),
		string(o.DiscoveryType),
		o.CreatedAt.UTC().Format(time.RFC3339),
		o.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("opportunity for post %s: %w", o.PostID, ErrDuplicate)
		}
		return fmt.Errorf("inserting opportunity: %w", err)
	}
	return nil
}

func (r *SQLiteOpportunityRepo) GetByID(ctx context.Context, id string) (*domain.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE id = ?`
	return r.scanOpportunity(r.conn.QueryRowContext(ctx, query, id))
}

func (r *SQLiteOpportunityRepo) ExistsByPost(ctx context.Context, accountID, postID string) (bool, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM opportunities WHERE account_id = ? AND post_id = ?`,
		accountID, postID)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("checking opportunity existence: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteOpportunityRepo) List(ctx context.Context, q OpportunityQuery) ([]*domain.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE 1=1`
	var args []any
	if q.AccountID != "" {
		query += ` AND account_id = ?`
		args = append(args, q.AccountID)
	}
	if q.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*q.Status))
		if *q.Status == domain.OpportunityPending {
			// Pending reads must never surface stale rows, even between
			// sweeps. Strict greater-than: expiring at the query instant
			// is already expired.
			now := q.Now
			if now.IsZero() {
				now = time.Now()
			}
			query += ` AND expires_at > ?`
			args = append(args, now.UTC().Format(time.RFC3339))
		}
	}
	query += ` ORDER BY score_total DESC, discovered_at DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing opportunities: %w", err)
	}
	defer rows.Close()

	var out []*domain.Opportunity
	for rows.Next() {
		o, err := r.scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *SQLiteOpportunityRepo) UpdateStatus(ctx context.Context, id string, status domain.OpportunityStatus) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE opportunities SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating opportunity status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("opportunity: %w", ErrNotFound)
	}
	return nil
}

func (r *SQLiteOpportunityRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	ts := now.UTC().Format(time.RFC3339)
	res, err := r.conn.ExecContext(ctx,
		`UPDATE opportunities SET status = 'expired', updated_at = ?
		 WHERE status = 'pending' AND expires_at < ?`,
		ts, ts)
	if err != nil {
		return 0, fmt.Errorf("expiring opportunities: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting expired opportunities: %w", err)
	}
	return n, nil
}

func (r *SQLiteOpportunityRepo) scanOpportunity(row rowScanner) (*domain.Opportunity, error) {
	var o domain.Opportunity
	var status, discoveryType string
	var contentPostedAt, discoveredAt, expiresAt, createdAt, updatedAt string
	err := row.Scan(&o.ID, &o.AccountID, &o.AuthorID, &o.Platform, &o.PostID, &o.Content, &contentPostedAt,
		&o.Scoring.Recency, &o.Scoring.Impact, &o.Scoring.Total, &status, &discoveredAt, &expiresAt, &discoveryType,
		&createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("opportunity: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning opportunity: %w", err)
	}
	o.Status = domain.OpportunityStatus(status)
	o.DiscoveryType = domain.DiscoveryType(discoveryType)
	o.ContentPostedAt, _ = time.Parse(time.RFC3339, contentPostedAt)
	o.DiscoveredAt, _ = time.Parse(time.RFC3339, discoveredAt)
	o.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
	o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	o.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &o, nil
}
