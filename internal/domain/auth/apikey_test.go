package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKey(t *testing.T) {
	a := HashKey([]byte("pepper"), "secret")
	b := HashKey([]byte("pepper"), "secret")
	c := HashKey([]byte("other"), "secret")

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestStaticRepository(t *testing.T) {
	hash := HashKey([]byte("p"), "k")
	repo := NewStaticRepository(APIKeyInfo{ID: "admin", KeyHash: hash, Name: "Back office"})

	info, err := repo.FindByHash(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, "admin", info.ID)

	_, err = repo.FindByHash(context.Background(), "nope")
	require.ErrorIs(t, err, ErrKeyNotFound)
}
