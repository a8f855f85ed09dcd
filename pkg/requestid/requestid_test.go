package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecardhq/tradecard/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	serve := func(t *testing.T, header string) (seen string, rec *httptest.ResponseRecorder) {
		t.Helper()
		handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = requestid.FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(requestid.Header, header)
		}
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return seen, rec
	}

	t.Run("generates an ID when none is supplied", func(t *testing.T) {
		t.Parallel()

		seen, rec := serve(t, "")
		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(requestid.Header))
	})

	t.Run("reuses a valid client ID", func(t *testing.T) {
		t.Parallel()

		seen, rec := serve(t, "req-abc_123")
		assert.Equal(t, "req-abc_123", seen)
		assert.Equal(t, "req-abc_123", rec.Header().Get(requestid.Header))
	})

	t.Run("replaces IDs with unsafe characters", func(t *testing.T) {
		t.Parallel()

		for _, bad := range []string{"has space", "a/b", "<script>", "x@y#z"} {
			seen, _ := serve(t, bad)
			assert.NotEqual(t, bad, seen)
			assert.NotEmpty(t, seen)
		}
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	ctx := requestid.WithContext(context.Background(), "abc")
	assert.Equal(t, "abc", requestid.FromContext(ctx))
	assert.Empty(t, requestid.FromContext(context.Background()))
}
