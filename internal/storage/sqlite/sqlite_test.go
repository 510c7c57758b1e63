package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pribylovaa/duta-client/internal/storage"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := New(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_CRUD_InMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t, ":memory:")

	_, err := s.Get(ctx, "access_token")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "access_token", "tok-1"))
	require.NoError(t, s.Set(ctx, "access_token", "tok-2"), "upsert must overwrite")

	v, err := s.Get(ctx, "access_token")
	require.NoError(t, err)
	require.Equal(t, "tok-2", v)

	require.NoError(t, s.Delete(ctx, "access_token"))
	require.NoError(t, s.Delete(ctx, "access_token"))

	_, err = s.Get(ctx, "access_token")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, s.Set(ctx, "", "x"), storage.ErrEmptyKey)
}

// TestStore_PersistsAcrossReopen — значение переживает закрытие и повторное открытие файла.
func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "duta.db")

	first, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "access_token", "tok-persist"))
	require.NoError(t, first.Close())

	second := newStore(t, path)
	v, err := second.Get(ctx, "access_token")
	require.NoError(t, err)
	require.Equal(t, "tok-persist", v)
}
