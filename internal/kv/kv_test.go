package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	// Absent key.
	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	// Set then get.
	require.NoError(t, s.Set(ctx, "a", "1"))
	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	// Overwrite replaces the whole value.
	require.NoError(t, s.Set(ctx, "a", "2"))
	v, _, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	// Keys lists everything.
	require.NoError(t, s.Set(ctx, "b", "3"))
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)

	// Delete is idempotent.
	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a"))
	_, ok, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	// Replace swaps the entire dictionary.
	require.NoError(t, s.Replace(ctx, map[string]string{"x": "9"}))
	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, keys)
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemory())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installerpro.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	runStoreContract(t, s)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "installerpro.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "tecnico_id", "TEC-ABCD1234"))
	require.NoError(t, s.Close())

	s2, err := NewSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	v, ok, err := s2.Get(ctx, "tecnico_id")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "TEC-ABCD1234", v)
}
