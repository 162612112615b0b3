package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(tenant, name, version string) Record {
	return Record{
		Tenant:    tenant,
		Name:      name,
		Version:   version,
		Format:    "yaml",
		Document:  []byte("name: " + name + "\n"),
		Checksum:  "sum-" + version,
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	sqlite, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "models.db"))
	require.NoError(t, err)
	memory, err := Open(ctx, DriverMemory, "")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlite.Close()
		_ = memory.Close()
	})
	return map[string]Store{"memory": memory, "sqlite": sqlite}
}

func TestStoreContract(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "", "cm:content")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, record("", "cm:content", "1.0.0")))
			require.NoError(t, s.Put(ctx, record("", "app:model", "1.0.0")))
			require.NoError(t, s.Put(ctx, record("acme", "cm:content", "2.0.0")))

			got, err := s.Get(ctx, "", "cm:content")
			require.NoError(t, err)
			assert.Equal(t, record("", "cm:content", "1.0.0"), got)

			require.NoError(t, s.Put(ctx, record("", "cm:content", "1.1.0")))
			got, err = s.Get(ctx, "", "cm:content")
			require.NoError(t, err)
			assert.Equal(t, "1.1.0", got.Version)
			assert.Equal(t, "sum-1.1.0", got.Checksum)

			list, err := s.List(ctx, "")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "app:model", list[0].Name)
			assert.Equal(t, "cm:content", list[1].Name)

			list, err = s.List(ctx, "acme")
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "2.0.0", list[0].Version)

			require.NoError(t, s.Delete(ctx, "", "cm:content"))
			require.ErrorIs(t, s.Delete(ctx, "", "cm:content"), ErrNotFound)
			_, err = s.Get(ctx, "", "cm:content")
			require.ErrorIs(t, err, ErrNotFound)

			_, err = s.Get(ctx, "acme", "cm:content")
			require.NoError(t, err)

			list, err = s.List(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestStoreRejectsIncompleteRecords(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.Error(t, s.Put(ctx, Record{Document: []byte("x")}))
			require.Error(t, s.Put(ctx, Record{Name: "cm:content"}))
		})
	}
}

func TestMemoryCopiesDocuments(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := record("", "cm:content", "1.0.0")
	require.NoError(t, m.Put(ctx, rec))
	rec.Document[0] = 'X'

	got, err := m.Get(ctx, "", "cm:content")
	require.NoError(t, err)
	assert.Equal(t, byte('n'), got.Document[0])
}

func TestMemoryDefaultsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := record("", "cm:content", "1.0.0")
	rec.UpdatedAt = time.Time{}
	require.NoError(t, m.Put(ctx, rec))
	got, err := m.Get(ctx, "", "cm:content")
	require.NoError(t, err)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mongo", "")
	require.Error(t, err)
}
