package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown jti is not revoked", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()

		revoked, err := bl.IsRevoked(ctx, "unknown")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoked jti is reported revoked", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()

		require.NoError(t, bl.Revoke(ctx, "jti-1", time.Hour))

		revoked, err := bl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("entry expires with the token", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()

		require.NoError(t, bl.Revoke(ctx, "jti-2", -time.Second))

		revoked, err := bl.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoking twice is harmless", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()

		require.NoError(t, bl.Revoke(ctx, "jti-3", time.Hour))
		require.NoError(t, bl.Revoke(ctx, "jti-3", time.Hour))

		revoked, err := bl.IsRevoked(ctx, "jti-3")
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}
