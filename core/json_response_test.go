package core_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecardhq/tradecard/core"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	core.WriteJSON(rec, http.StatusCreated, map[string]string{"id": "42"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body core.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body.Error)
	assert.Equal(t, map[string]any{"id": "42"}, body.Data)
}

func TestWriteRaw(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	core.WriteRaw(rec, http.StatusOK, map[string]any{"isAuthenticated": false})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["isAuthenticated"])
	assert.NotContains(t, rec.Body.String(), `"data"`)
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	t.Run("http error maps to its status", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		core.WriteError(rec, core.ErrNotFound)

		require.Equal(t, http.StatusNotFound, rec.Code)

		var body core.JSONResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotNil(t, body.Error)
		assert.Equal(t, "not_found", body.Error.Code)
	})

	t.Run("wrapped http error is unwrapped", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		core.WriteError(rec, errors.Join(core.ErrUnauthorized, errors.New("session expired")))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("validation error carries field details", func(t *testing.T) {
		t.Parallel()
		valErr := core.NewValidationError()
		valErr.Add("title", "is required")

		rec := httptest.NewRecorder()
		core.WriteError(rec, valErr)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body core.JSONResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotNil(t, body.Error)
		assert.Equal(t, "validation_error", body.Error.Code)
		assert.Equal(t, []string{"is required"}, body.Error.Details["title"])
	})

	t.Run("unknown errors become opaque 500", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		core.WriteError(rec, errors.New("pq: connection reset"))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "pq:")
	})
}
