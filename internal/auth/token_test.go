package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/auth"
	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

func TestTokenService(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewTokenService("test-secret")

	t.Run("issue and verify round-trip", func(t *testing.T) {
		user, err := domain.NewUser("u1", "alice")
		require.NoError(t, err)

		token, err := svc.Issue(user)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		got, err := svc.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.Username, got.Username)
	})

	t.Run("empty token is unauthorized", func(t *testing.T) {
		_, err := svc.Verify(ctx, "")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		_, err := svc.Verify(ctx, "not-a-token")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("token from a different secret is unauthorized", func(t *testing.T) {
		other := auth.NewTokenService("other-secret")
		user, _ := domain.NewUser("u1", "alice")
		token, err := other.Issue(user)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
