package errors

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"not found", NotFoundError("no such post").Build(), http.StatusNotFound},
		{"validation", ValidationError("bad tag").Build(), http.StatusBadRequest},
		{"content", ContentError("broken frontmatter").Build(), http.StatusUnprocessableEntity},
		{"network", NetworkError("upstream").Build(), http.StatusBadGateway},
		{"unclassified", stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, adapter.StatusCodeFor(tt.err))
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/en/blog/missing", nil)

	adapter.WriteErrorResponse(rec, req, NotFoundError("content not found").WithContext("slug", "missing").Build())

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "content not found", payload.Error)
	require.Equal(t, "not_found", payload.Code)
	require.Equal(t, "missing", payload.Details["slug"])
	require.False(t, payload.Retryable)
}
