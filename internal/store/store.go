// Package store persists model documents per tenant.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports a missing record.
var ErrNotFound = errors.New("model record not found")

// Record is a stored model document.
type Record struct {
	Tenant    string
	Name      string
	Version   string
	Format    string
	Document  []byte
	Checksum  string
	UpdatedAt time.Time
}

// Store persists model documents. Records are keyed by tenant and model name;
// Put replaces an existing record.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, tenant, name string) (Record, error)
	List(ctx context.Context, tenant string) ([]Record, error)
	Delete(ctx context.Context, tenant, name string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the store for driver. dsn is ignored by the memory driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverSQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		s, err := NewSQLite(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		s := NewPostgres(db)
		if err := s.Init(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func validateRecord(rec Record) error {
	if rec.Name == "" {
		return errors.New("record has no model name")
	}
	if len(rec.Document) == 0 {
		return fmt.Errorf("record %s has no document", rec.Name)
	}
	return nil
}
