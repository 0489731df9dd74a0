package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/metrics"
)

type recordingRecorder struct {
	metrics.NoopRecorder
	routes []string
	codes  []int
	panics int
}

func (r *recordingRecorder) ObserveRequest(route string, status int, _ time.Duration) {
	r.routes = append(r.routes, route)
	r.codes = append(r.codes, status)
}

func (r *recordingRecorder) IncPanic() { r.panics++ }

func newChain(buf *bytes.Buffer, rec metrics.Recorder) func(http.Handler) http.Handler {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return Chain(logger, ferrors.NewHTTPErrorAdapter(logger), rec)
}

func TestChain_LogsAndRecordsRoute(t *testing.T) {
	var buf bytes.Buffer
	rec := &recordingRecorder{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /en/blog/{slug}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	newChain(&buf, rec)(mux).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/en/blog/hello", nil))

	require.Equal(t, http.StatusTeapot, rr.Code)
	require.Equal(t, []string{"GET /en/blog/{slug}"}, rec.routes)
	require.Equal(t, []int{http.StatusTeapot}, rec.codes)
	require.Contains(t, buf.String(), "path=/en/blog/hello")
	require.Contains(t, buf.String(), "status=418")
}

func TestChain_RecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	rec := &recordingRecorder{}
	h := newChain(&buf, rec)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Contains(t, rr.Body.String(), `"code":"internal"`)
	require.Equal(t, 1, rec.panics)
	require.Equal(t, []string{"unmatched"}, rec.routes)
	require.Contains(t, buf.String(), "HTTP handler panic")
}
