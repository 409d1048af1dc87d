package httputil

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteSuccess(rec, map[string]string{"status": "ok"})

	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestWriteFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteFieldErrors(rec, map[string]string{
		"last_name": "this field is required",
		"gender":    "must be one of Male, Female",
	})

	assert.Equal(t, 400, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation failed", body["error"])
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "this field is required", fields["last_name"])
	assert.Equal(t, "must be one of Male, Female", fields["gender"])
}

func TestWriteErrorMessageOmitsFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNotFoundError(rec, "child not found")

	assert.Equal(t, 404, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "child not found", body["error"])
	assert.NotContains(t, body, "fields")
}

func TestWriteInternalError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteInternalError(rec, errors.New("boom"))

	assert.Equal(t, 500, rec.Code)
	assert.Equal(t, "boom", decode(t, rec)["error"])
}

func TestWriteNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNoContent(rec)

	assert.Equal(t, 204, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name  string
		write func(rec *httptest.ResponseRecorder)
		code  int
	}{
		{"bad request", func(rec *httptest.ResponseRecorder) { WriteBadRequest(rec, "x") }, 400},
		{"unauthorized", func(rec *httptest.ResponseRecorder) { WriteUnauthorized(rec, "x") }, 401},
		{"forbidden", func(rec *httptest.ResponseRecorder) { WriteForbidden(rec, "x") }, 403},
		{"too many requests", func(rec *httptest.ResponseRecorder) { WriteTooManyRequests(rec, "x") }, 429},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.write(rec)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}
