package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"sparrow/internal/db"
	"sparrow/internal/domain"
)

const responseColumns = `id, opportunity_id, account_id, text, status, version, metadata,
		platform_post_id, platform_post_url, posted_at, created_at, updated_at`

// SQLiteResponseRepo implements ResponseRepo on SQLite.
type SQLiteResponseRepo struct {
	conn db.DBTX
}

func NewSQLiteResponseRepo(conn db.DBTX) *SQLiteResponseRepo {
	return &SQLiteResponseRepo{conn: conn}
}

func (r *SQLiteResponseRepo) Create(ctx context.Context, resp *domain.Response) error {
	meta, err := json.Marshal(resp.Metadata)
	if err != nil {
		return fmt.Errorf("encoding response metadata: %w", err)
	}
	query := `INSERT INTO responses (` + responseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.conn.ExecContext(ctx, query,
		resp.ID,
		resp.OpportunityID,
		resp.AccountID,
		resp.Text,
		string(resp.Status),
		resp.Version,
		string(meta),
		resp.PlatformPostID,
		resp.PlatformPostURL,
		nullableTimeToString(resp.PostedAt),
		resp.CreatedAt.UTC().Format(time.RFC3339),
		resp.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("response version %d for opportunity %s: %w", resp.Version, resp.OpportunityID, ErrDuplicate)
		}
		return fmt.Errorf("inserting response: %w", err)
	}
	return nil
}

func (r *SQLiteResponseRepo) GetByID(ctx context.Context, id string) (*domain.Response, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE id = ?`
	return r.scanResponse(r.conn.QueryRowContext(ctx, query, id))
}

func (r *SQLiteResponseRepo) ListByOpportunity(ctx context.Context, opportunityID string) ([]*domain.Response, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE opportunity_id = ? ORDER BY version`
	rows, err := r.conn.QueryContext(ctx, query, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("listing responses: %w", err)
	}
	defer rows.Close()

	var out []*domain.Response
	for rows.Next() {
		resp, err := r.scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

func (r *SQLiteResponseRepo) MaxVersion(ctx context.Context, opportunityID string) (int, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM responses WHERE opportunity_id = ?`, opportunityID)
	var v int
	if err := row.Scan(&v); err != nil {
		return 0, fmt.Errorf("reading max response version: %w", err)
	}
	return v, nil
}

func (r *SQLiteResponseRepo) UpdateText(ctx context.Context, id, text string) error {
	// Text edits are only legal while the response is still a draft.
	res, err := r.conn.ExecContext(ctx,
		`UPDATE responses SET text = ?, updated_at = ? WHERE id = ? AND status = 'draft'`,
		text, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating response text: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("draft response: %w", ErrNotFound)
	}
	return nil
}

func (r *SQLiteResponseRepo) UpdateStatus(ctx context.Context, id string, status domain.ResponseStatus) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE responses SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating response status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("response: %w", ErrNotFound)
	}
	return nil
}

func (r *SQLiteResponseRepo) MarkPosted(ctx context.Context, id, platformPostID, platformPostURL string, postedAt time.Time) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE responses SET status = 'posted', platform_post_id = ?, platform_post_url = ?, posted_at = ?, updated_at = ?
		 WHERE id = ?`,
		platformPostID, platformPostURL,
		postedAt.UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("marking response posted: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("response: %w", ErrNotFound)
	}
	return nil
}

func (r *SQLiteResponseRepo) scanResponse(row rowScanner) (*domain.Response, error) {
	var resp domain.Response
	var status, meta, createdAt, updatedAt string
	var postedAt sql.NullString
	err := row.Scan(&resp.ID, &resp.OpportunityID, &resp.AccountID, &resp.Text, &status, &resp.Version, &meta,
		&resp.PlatformPostID, &resp.PlatformPostURL, &postedAt, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("response: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning response: %w", err)
	}
	resp.Status = domain.ResponseStatus(status)
	if meta != "" {
		_ = json.Unmarshal([]byte(meta), &resp.Metadata)
	}
	resp.PostedAt = parseNullableTime(postedAt)
	resp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	resp.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &resp, nil
}
