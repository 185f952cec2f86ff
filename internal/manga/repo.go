package manga

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"mangacover/pkg/models"
)

const selectColumns = `id, provider_id, title, cover_url, status, created_at, updated_at`

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) GetByProviderID(ctx context.Context, providerID string) (*models.MangaRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM manga
		WHERE provider_id = ?
	`, providerID)

	m, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get manga %s: %w", providerID, err)
	}
	return &m, nil
}

func (r *Repo) ListAll(ctx context.Context) ([]models.MangaRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM manga
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.MangaRecord, 0)
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Upsert writes n keyed by provider id: an existing row has its title, cover
// and status replaced, otherwise a row is inserted. The lookup and the write
// are separate statements; an insert that loses a race on the unique key is
// retried once as an update.
func (r *Repo) Upsert(ctx context.Context, n models.NormalizedManga) (models.SaveResult, error) {
	if strings.TrimSpace(n.ProviderID) == "" {
		return models.SaveResult{}, errors.New("upsert manga: provider id required")
	}
	if strings.TrimSpace(n.Title) == "" {
		return models.SaveResult{}, fmt.Errorf("upsert manga %s: title required", n.ProviderID)
	}
	if n.Status == "" {
		n.Status = "ongoing"
	}

	existing, err := r.GetByProviderID(ctx, n.ProviderID)
	if err != nil {
		return models.SaveResult{}, err
	}

	if existing == nil {
		err = r.insert(ctx, n)
		switch {
		case err == nil:
			return r.reload(ctx, n.ProviderID, true)
		case !isUniqueViolation(err):
			return models.SaveResult{}, err
		}
		// another writer inserted the same provider id first
	}

	if err := r.update(ctx, n); err != nil {
		return models.SaveResult{}, err
	}
	return r.reload(ctx, n.ProviderID, false)
}

func (r *Repo) insert(ctx context.Context, n models.NormalizedManga) error {
	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO manga (provider_id, title, cover_url, status)
		VALUES (?, ?, ?, ?)
	`, n.ProviderID, n.Title, nullableString(n.CoverURL), n.Status); err != nil {
		return fmt.Errorf("insert manga %s: %w", n.ProviderID, err)
	}
	return nil
}

func (r *Repo) update(ctx context.Context, n models.NormalizedManga) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE manga
		SET title = ?, cover_url = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE provider_id = ?
	`, n.Title, nullableString(n.CoverURL), n.Status, n.ProviderID)
	if err != nil {
		return fmt.Errorf("update manga %s: %w", n.ProviderID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update manga %s rows: %w", n.ProviderID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update manga %s: row vanished", n.ProviderID)
	}
	return nil
}

func (r *Repo) reload(ctx context.Context, providerID string, created bool) (models.SaveResult, error) {
	saved, err := r.GetByProviderID(ctx, providerID)
	if err != nil {
		return models.SaveResult{}, err
	}
	if saved == nil {
		return models.SaveResult{}, fmt.Errorf("reload manga %s: not found after write", providerID)
	}
	return models.SaveResult{MangaRecord: *saved, Created: created, Updated: !created}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.MangaRecord, error) {
	var (
		m        models.MangaRecord
		coverURL sql.NullString
	)
	if err := s.Scan(&m.ID, &m.ProviderID, &m.Title, &coverURL, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return models.MangaRecord{}, err
	}
	if coverURL.Valid {
		v := coverURL.String
		m.CoverURL = &v
	}
	return m, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
