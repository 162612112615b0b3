package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Postgres stores records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps db. Call Init to create the schema.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Init creates the models table when missing.
func (s *Postgres) Init(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS dictionary_models (
		tenant TEXT NOT NULL,
		name TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		format TEXT NOT NULL,
		document BYTEA NOT NULL,
		checksum TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (tenant, name)
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("init postgres store: %w", err)
	}
	return nil
}

func (s *Postgres) Put(ctx context.Context, rec Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO dictionary_models (tenant, name, version, format, document, checksum, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant, name) DO UPDATE SET
			version = EXCLUDED.version,
			format = EXCLUDED.format,
			document = EXCLUDED.document,
			checksum = EXCLUDED.checksum,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.Tenant, rec.Name, rec.Version, rec.Format, rec.Document, rec.Checksum, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put model %s: %w", rec.Name, err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, tenant, name string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT tenant, name, version, format, document, checksum, updated_at FROM dictionary_models WHERE tenant = $1 AND name = $2",
		tenant, name)
	var rec Record
	err := row.Scan(&rec.Tenant, &rec.Name, &rec.Version, &rec.Format, &rec.Document, &rec.Checksum, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get model %s: %w", name, err)
	}
	return rec, nil
}

func (s *Postgres) List(ctx context.Context, tenant string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT tenant, name, version, format, document, checksum, updated_at FROM dictionary_models WHERE tenant = $1 ORDER BY name",
		tenant)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Tenant, &rec.Name, &rec.Version, &rec.Format, &rec.Document, &rec.Checksum, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return out, nil
}

func (s *Postgres) Delete(ctx context.Context, tenant, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM dictionary_models WHERE tenant = $1 AND name = $2", tenant, name)
	if err != nil {
		return fmt.Errorf("delete model %s: %w", name, err)
	}
	return affectedOne(res)
}

func (s *Postgres) Close() error { return s.db.Close() }
