package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/restaurant-mis/internal/storage"
)

func TestStore_LoadMissingKey(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	data, err := s.Load(context.Background(), storage.OrdersKey)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, storage.OrdersKey, []byte(`[{"id":"1"}]`)))
	require.NoError(t, s.Save(ctx, storage.OrdersKey, []byte(`[]`)))

	data, err := s.Load(ctx, storage.OrdersKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
	assert.Equal(t, "restaurant_orders.json", entries[0].Name())
}

func TestStore_KeyCannotEscapeDir(t *testing.T) {
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "data"))
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "../escape", []byte(`{}`)))
	_, err = os.Stat(filepath.Join(dir, "escape.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_Ping(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, s.Ping(context.Background()))
}
