package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sparrow/internal/db"
	"sparrow/internal/domain"
)

const authorColumns = `id, platform, platform_user_id, handle, display_name, bio, follower_count, updated_at`

// SQLiteAuthorRepo implements AuthorRepo on SQLite.
type SQLiteAuthorRepo struct {
	conn db.DBTX
}

func NewSQLiteAuthorRepo(conn db.DBTX) *SQLiteAuthorRepo {
	return &SQLiteAuthorRepo{conn: conn}
}

func (r *SQLiteAuthorRepo) Upsert(ctx context.Context, a *domain.Author) error {
	a.UpdatedAt = a.UpdatedAt.UTC()
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	query := `INSERT INTO authors (` + authorColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(platform, platform_user_id) DO UPDATE SET
			handle = excluded.handle,
			display_name = excluded.display_name,
			bio = excluded.bio,
			follower_count = excluded.follower_count,
			updated_at = excluded.updated_at`
	_, err := r.conn.ExecContext(ctx, query,
		a.ID,
		a.Platform,
		a.PlatformUserID,
		a.Handle,
		a.DisplayName,
		a.Bio,
		a.FollowerCount,
		a.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting author: %w", err)
	}

	// On conflict the stored row keeps its original id; reflect it back so
	// callers reference the canonical row.
	row := r.conn.QueryRowContext(ctx,
		`SELECT id FROM authors WHERE platform = ? AND platform_user_id = ?`,
		a.Platform, a.PlatformUserID)
	if err := row.Scan(&a.ID); err != nil {
		return fmt.Errorf("resolving author id: %w", err)
	}
	return nil
}

func (r *SQLiteAuthorRepo) GetByID(ctx context.Context, id string) (*domain.Author, error) {
	query := `SELECT ` + authorColumns + ` FROM authors WHERE id = ?`
	return r.scanAuthor(r.conn.QueryRowContext(ctx, query, id))
}

func (r *SQLiteAuthorRepo) GetByPlatformUserID(ctx context.Context, platform, platformUserID string) (*domain.Author, error) {
	query := `SELECT ` + authorColumns + ` FROM authors WHERE platform = ? AND platform_user_id = ?`
	return r.scanAuthor(r.conn.QueryRowContext(ctx, query, platform, platformUserID))
}

func (r *SQLiteAuthorRepo) scanAuthor(row rowScanner) (*domain.Author, error) {
	var a domain.Author
	var updatedAt string
	err := row.Scan(&a.ID, &a.Platform, &a.PlatformUserID, &a.Handle, &a.DisplayName, &a.Bio, &a.FollowerCount, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("author: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning author: %w", err)
	}
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &a, nil
}
