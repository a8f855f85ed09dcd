package quota_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecardhq/tradecard/svc/quota"
)

// stubResolver reports a fixed plan for every user.
type stubResolver struct {
	plan string
}

func (r stubResolver) PlanForUser(context.Context, uuid.UUID, bool) string {
	return r.plan
}

func newTestService(t *testing.T, plan string) (*quota.Service, *quota.MemoryStore) {
	t.Helper()
	store := quota.NewMemoryStore()
	svc, err := quota.NewService(context.Background(), quota.DefaultPlans(), store, stubResolver{plan: plan}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return svc, store
}

const period = "2026-08"

func TestService_Check(t *testing.T) {
	t.Parallel()

	t.Run("free plan boundary", func(t *testing.T) {
		t.Parallel()

		svc, store := newTestService(t, quota.PlanFree)
		userID := uuid.New()
		id := quota.UserIdentity(userID)

		// 49 of 50 photos used: one left.
		for range 49 {
			_, err := store.Increment(context.Background(), id, period, quota.FeaturePhotos, quota.Unlimited)
			require.NoError(t, err)
		}

		res, err := svc.Check(context.Background(), id, "photos", period)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.EqualValues(t, 49, res.Current)
		assert.EqualValues(t, 50, res.Limit)
		assert.EqualValues(t, 1, res.Remaining)

		// The 50th exhausts the quota.
		_, err = store.Increment(context.Background(), id, period, quota.FeaturePhotos, quota.Unlimited)
		require.NoError(t, err)

		res, err = svc.Check(context.Background(), id, "photos", period)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.EqualValues(t, 0, res.Remaining)
		assert.Equal(t, quota.PlanFree, res.Plan)
	})

	t.Run("unused identity reports zero", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, quota.PlanFree)
		res, err := svc.Check(context.Background(), quota.UserIdentity(uuid.New()), "export", period)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Zero(t, res.Current)
		assert.EqualValues(t, 10, res.Limit)
	})

	t.Run("pro plan is unlimited", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, quota.PlanPro)
		res, err := svc.Check(context.Background(), quota.UserIdentity(uuid.New()), "magicFill", period)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, quota.Unlimited, res.Limit)
		assert.Equal(t, quota.Unlimited, res.Remaining)
	})

	t.Run("invalid feature", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, quota.PlanFree)
		_, err := svc.Check(context.Background(), quota.UserIdentity(uuid.New()), "teleport", period)
		assert.ErrorIs(t, err, quota.ErrInvalidFeature)
	})

	t.Run("feature aliases share a counter", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, quota.PlanFree)
		id := quota.UserIdentity(uuid.New())

		_, err := svc.Consume(context.Background(), id, "photos", period)
		require.NoError(t, err)

		res, err := svc.Check(context.Background(), id, "imageProcessing", period)
		require.NoError(t, err)
		assert.EqualValues(t, 1, res.Current)
	})

	t.Run("anonymous identity uses anonymous plan", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, quota.PlanPro)
		res, err := svc.Check(context.Background(), quota.AnonymousIdentity("203.0.113.7"), "photos", period)
		require.NoError(t, err)
		assert.Equal(t, quota.PlanAnonymous, res.Plan)
		assert.EqualValues(t, 5, res.Limit)
	})
}

func TestService_Consume(t *testing.T) {
	t.Parallel()

	t.Run("refuses beyond limit", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, quota.PlanAnonymous)
		// The resolver is irrelevant here; anonymous plan allows 2 exports.
		id := quota.AnonymousIdentity("198.51.100.2")

		for i := 1; i <= 2; i++ {
			res, err := svc.Consume(context.Background(), id, "export", period)
			require.NoError(t, err)
			assert.EqualValues(t, i, res.Current)
		}

		res, err := svc.Consume(context.Background(), id, "export", period)
		assert.ErrorIs(t, err, quota.ErrQuotaExceeded)
		require.NotNil(t, res)
		assert.False(t, res.Allowed)
		assert.EqualValues(t, 0, res.Remaining)
	})

	t.Run("periods are independent", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, quota.PlanAnonymous)
		id := quota.AnonymousIdentity("198.51.100.3")

		for range 2 {
			_, err := svc.Consume(context.Background(), id, "export", "2026-07")
			require.NoError(t, err)
		}

		res, err := svc.Consume(context.Background(), id, "export", "2026-08")
		require.NoError(t, err)
		assert.EqualValues(t, 1, res.Current)
	})

	t.Run("user and ip keyspaces are independent", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, quota.PlanFree)
		userID := uuid.New()

		_, err := svc.Consume(context.Background(), quota.UserIdentity(userID), "photos", period)
		require.NoError(t, err)

		res, err := svc.Check(context.Background(), quota.AnonymousIdentity("192.0.2.10"), "photos", period)
		require.NoError(t, err)
		assert.Zero(t, res.Current)
	})

	t.Run("concurrent consumers never exceed the limit", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, quota.PlanAnonymous)
		id := quota.AnonymousIdentity("198.51.100.4")

		var allowed atomic.Int64
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.Consume(context.Background(), id, "photos", period); err == nil {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()

		// The anonymous plan allows 5 photos; exactly 5 claims win.
		assert.EqualValues(t, 5, allowed.Load())
	})
}

func TestYAMLFileSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plans:
  anonymous:
    photos: 3
    magicFill: 1
    export: 1
  free:
    photos: 50
    magicFill: 10
    export: 10
  pro:
    photos: -1
    magicFill: -1
    export: -1
`), 0o600))

	plans, err := quota.YAMLFileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, plans["anonymous"].Limits[quota.FeaturePhotos])
	assert.Equal(t, quota.Unlimited, plans["pro"].Limits[quota.FeatureExport])
}
