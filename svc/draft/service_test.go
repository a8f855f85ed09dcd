package draft_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecardhq/tradecard/svc/draft"
)

func TestService_Create(t *testing.T) {
	t.Parallel()

	svc := draft.NewService(draft.NewMemoryStore())
	userID := uuid.New()

	t.Run("derives slug from title", func(t *testing.T) {
		t.Parallel()

		d, err := svc.Create(context.Background(), userID, draft.CreateInput{
			Title: "Vintage Café Table",
			Price: "120.00",
		})
		require.NoError(t, err)
		assert.Equal(t, "vintage-cafe-table", d.Slug)
		assert.Equal(t, userID, d.UserID)
		assert.NotZero(t, d.CreatedAt)
	})

	t.Run("rejects blank title", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Create(context.Background(), userID, draft.CreateInput{Title: "   "})
		assert.ErrorIs(t, err, draft.ErrEmptyTitle)
	})
}

func TestService_Ownership(t *testing.T) {
	t.Parallel()

	svc := draft.NewService(draft.NewMemoryStore())
	owner := uuid.New()
	stranger := uuid.New()

	d, err := svc.Create(context.Background(), owner, draft.CreateInput{Title: "Chair"})
	require.NoError(t, err)

	t.Run("owner can read", func(t *testing.T) {
		t.Parallel()
		got, err := svc.Get(context.Background(), owner, d.ID)
		require.NoError(t, err)
		assert.Equal(t, d.ID, got.ID)
	})

	t.Run("stranger sees not found", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Get(context.Background(), stranger, d.ID)
		assert.ErrorIs(t, err, draft.ErrDraftNotFound)
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		t.Parallel()
		err := svc.Delete(context.Background(), stranger, d.ID)
		assert.ErrorIs(t, err, draft.ErrDraftNotFound)
	})
}

func TestService_Update(t *testing.T) {
	t.Parallel()

	svc := draft.NewService(draft.NewMemoryStore())
	userID := uuid.New()

	d, err := svc.Create(context.Background(), userID, draft.CreateInput{Title: "Old Lamp"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), userID, d.ID, draft.CreateInput{
		Title:       "Art Deco Lamp",
		Description: "Brass base, restored wiring.",
		Price:       "340.00",
		PhotoURLs:   []string{"https://cdn.test/lamp.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "art-deco-lamp", updated.Slug)
	assert.Equal(t, "340.00", updated.Price)
	assert.True(t, updated.UpdatedAt.After(d.UpdatedAt) || updated.UpdatedAt.Equal(d.UpdatedAt))
}

func TestService_SetCardContent(t *testing.T) {
	t.Parallel()

	svc := draft.NewService(draft.NewMemoryStore())
	userID := uuid.New()

	d, err := svc.Create(context.Background(), userID, draft.CreateInput{Title: "Mirror"})
	require.NoError(t, err)

	content := map[string]any{"headline": "Timeless wall mirror", "bullets": []any{"solid oak frame"}}
	updated, err := svc.SetCardContent(context.Background(), userID, d.ID, content)
	require.NoError(t, err)
	assert.Equal(t, "Timeless wall mirror", updated.CardContent["headline"])
}

func TestService_List(t *testing.T) {
	t.Parallel()

	svc := draft.NewService(draft.NewMemoryStore())
	userID := uuid.New()

	for _, title := range []string{"First", "Second", "Third"} {
		_, err := svc.Create(context.Background(), userID, draft.CreateInput{Title: title})
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), uuid.New(), draft.CreateInput{Title: "Someone else's"})
	require.NoError(t, err)

	drafts, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, drafts, 3)
}
