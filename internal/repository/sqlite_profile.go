package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sparrow/internal/db"
	"sparrow/internal/domain"
)

const profileColumns = `id, name, voice, principles, interests, keywords, communities, created_at, updated_at`

// SQLiteProfileRepo implements ProfileRepo on SQLite.
type SQLiteProfileRepo struct {
	conn db.DBTX
}

func NewSQLiteProfileRepo(conn db.DBTX) *SQLiteProfileRepo {
	return &SQLiteProfileRepo{conn: conn}
}

func (r *SQLiteProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	query := `INSERT INTO profiles (` + profileColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.conn.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Voice,
		encodeStringList(p.Principles),
		encodeStringList(p.Interests),
		encodeStringList(p.Keywords),
		encodeStringList(p.Communities),
		p.CreatedAt.UTC().Format(time.RFC3339),
		p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

func (r *SQLiteProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`
	return r.scanProfile(r.conn.QueryRowContext(ctx, query, id))
}

func (r *SQLiteProfileRepo) List(ctx context.Context) ([]*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at`
	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var out []*domain.Profile
	for rows.Next() {
		p, err := r.scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteProfileRepo) Update(ctx context.Context, p *domain.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	query := `UPDATE profiles SET name = ?, voice = ?, principles = ?, interests = ?, keywords = ?, communities = ?, updated_at = ? WHERE id = ?`
	res, err := r.conn.ExecContext(ctx, query,
		p.Name,
		p.Voice,
		encodeStringList(p.Principles),
		encodeStringList(p.Interests),
		encodeStringList(p.Keywords),
		encodeStringList(p.Communities),
		p.UpdatedAt.Format(time.RFC3339),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("profile: %w", ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteProfileRepo) scanProfile(row rowScanner) (*domain.Profile, error) {
	var p domain.Profile
	var principles, interests, keywords, communities string
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.Voice, &principles, &interests, &keywords, &communities, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	p.Principles = decodeStringList(principles)
	p.Interests = decodeStringList(interests)
	p.Keywords = decodeStringList(keywords)
	p.Communities = decodeStringList(communities)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}
