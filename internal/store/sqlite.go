package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores records in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps db and creates the models table when missing.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS dictionary_models (
		tenant TEXT NOT NULL,
		name TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		format TEXT NOT NULL,
		document BLOB NOT NULL,
		checksum TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL,
		PRIMARY KEY (tenant, name)
	);`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("migrate sqlite store: %w", err)
	}
	return nil
}

func (s *SQLite) Put(ctx context.Context, rec Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	query := `
	INSERT INTO dictionary_models (tenant, name, version, format, document, checksum, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (tenant, name) DO UPDATE SET
		version = excluded.version,
		format = excluded.format,
		document = excluded.document,
		checksum = excluded.checksum,
		updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query,
		rec.Tenant, rec.Name, rec.Version, rec.Format, rec.Document, rec.Checksum,
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put model %s: %w", rec.Name, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, tenant, name string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT tenant, name, version, format, document, checksum, updated_at
	FROM dictionary_models
	WHERE tenant = ? AND name = ?`, tenant, name)
	rec, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get model %s: %w", name, err)
	}
	return rec, nil
}

func (s *SQLite) List(ctx context.Context, tenant string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT tenant, name, version, format, document, checksum, updated_at
	FROM dictionary_models
	WHERE tenant = ?
	ORDER BY name`, tenant)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return out, nil
}

func (s *SQLite) Delete(ctx context.Context, tenant, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dictionary_models WHERE tenant = ? AND name = ?`, tenant, name)
	if err != nil {
		return fmt.Errorf("delete model %s: %w", name, err)
	}
	return affectedOne(res)
}

func (s *SQLite) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row scanner) (Record, error) {
	var (
		rec     Record
		updated string
	)
	if err := row.Scan(&rec.Tenant, &rec.Name, &rec.Version, &rec.Format, &rec.Document, &rec.Checksum, &updated); err != nil {
		return Record{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return Record{}, fmt.Errorf("updated_at %q: %w", updated, err)
	}
	rec.UpdatedAt = t
	return rec, nil
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
