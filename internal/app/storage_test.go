package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-mis/internal/domain/auth"
	"github.com/xenking/restaurant-mis/internal/storage"
)

func TestOpenStorage(t *testing.T) {
	hash := auth.HashKey([]byte("pepper"), "secret")

	t.Run("file", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Dir = filepath.Join(t.TempDir(), "nested", "data")
		cfg.AdminKeyHashes = []string{hash}

		b, err := OpenStorage(context.Background(), zap.NewNop(), &cfg)
		require.NoError(t, err)
		defer b.Close()

		_, ok := b.Port.(storage.Pinger)
		assert.True(t, ok)
		require.NoError(t, b.Port.Save(context.Background(), storage.OrdersKey, []byte(`[]`)))
		assert.FileExists(t, filepath.Join(cfg.Storage.Dir, storage.OrdersKey+".json"))

		info, err := b.APIKeys.FindByHash(context.Background(), hash)
		require.NoError(t, err)
		assert.Equal(t, hash[:8], info.ID)
	})

	t.Run("memory", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Driver = DriverMemory

		b, err := OpenStorage(context.Background(), zap.NewNop(), &cfg)
		require.NoError(t, err)
		defer b.Close()

		_, err = b.APIKeys.FindByHash(context.Background(), hash)
		assert.ErrorIs(t, err, auth.ErrKeyNotFound)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Driver = "tape"
		_, err := OpenStorage(context.Background(), zap.NewNop(), &cfg)
		assert.Error(t, err)
	})
}

func TestReceiptOptions(t *testing.T) {
	opts := receiptOptions(zap.NewNop(), ReceiptConfig{
		StoreName: "Spice Corner",
		LogoPath:  filepath.Join(t.TempDir(), "missing.png"),
		PrintQR:   true,
	})
	assert.Equal(t, "Spice Corner", opts.StoreName)
	assert.True(t, opts.PrintQR)
	assert.Nil(t, opts.Logo)
}
