package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecardhq/tradecard/svc/user"
)

func TestService_FindOrCreate(t *testing.T) {
	t.Parallel()

	t.Run("creates on first sight", func(t *testing.T) {
		t.Parallel()
		svc := user.NewService(user.NewMemoryStore())

		u, err := svc.FindOrCreate(context.Background(), "Merchant@Example.COM", "Merchant", "")
		require.NoError(t, err)
		assert.Equal(t, "merchant@example.com", u.Email)
		assert.Equal(t, "Merchant", u.Name)
		assert.NotZero(t, u.ID)
	})

	t.Run("returns existing user without overwriting profile", func(t *testing.T) {
		t.Parallel()
		svc := user.NewService(user.NewMemoryStore())

		first, err := svc.FindOrCreate(context.Background(), "m@example.com", "Original Name", "")
		require.NoError(t, err)

		second, err := svc.FindOrCreate(context.Background(), "M@example.com ", "Billing Event Name", "")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Original Name", second.Name)
	})

	t.Run("rejects empty email", func(t *testing.T) {
		t.Parallel()
		svc := user.NewService(user.NewMemoryStore())

		_, err := svc.FindOrCreate(context.Background(), "   ", "x", "")
		assert.ErrorIs(t, err, user.ErrEmptyEmail)
	})
}

func TestService_UpdateProfile(t *testing.T) {
	t.Parallel()

	svc := user.NewService(user.NewMemoryStore())

	u, err := svc.FindOrCreate(context.Background(), "m@example.com", "Old", "")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(context.Background(), u.ID, "New", "https://cdn.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "https://cdn.example.com/a.png", updated.AvatarURL)
}
