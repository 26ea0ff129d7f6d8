package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelshelf/backend/internal/auth"
	"github.com/reelshelf/backend/internal/logging"
	"github.com/reelshelf/backend/internal/models"
	"github.com/reelshelf/backend/internal/observability"
)

func TestRequestLoggerAddsRequestMetadata(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seenID string
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, seenID, entry["request_id"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	handler := RequestLogger(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movies", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server error"}`, rec.Body.String())
}

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	m := observability.NewMetrics()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /movies/{movieId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := Metrics(m)(mux)

	for _, path := range []string{"/movies/a", "/movies/b", "/nowhere"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "GET /movies/{movieId}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", unmatchedRoute, "404")))
}

type resolverFunc func(ctx context.Context, token string) (models.Identity, error)

func (f resolverFunc) Resolve(ctx context.Context, token string) (models.Identity, error) {
	return f(ctx, token)
}

func TestSessionLoader(t *testing.T) {
	ada := models.Identity{ID: "user-1", Name: "Ada", Email: "ada@example.com"}
	resolver := resolverFunc(func(_ context.Context, token string) (models.Identity, error) {
		switch token {
		case "good":
			return ada, nil
		case "broken":
			return models.Identity{}, errors.New("store offline")
		default:
			return models.Identity{}, models.ErrUnauthorized
		}
	})

	tests := map[string]struct {
		cookie *http.Cookie
		want   models.Identity
		authed bool
		status int
	}{
		"no cookie":      {status: http.StatusOK},
		"valid session":  {cookie: &http.Cookie{Name: "sid", Value: "good"}, want: ada, authed: true, status: http.StatusOK},
		"stale session":  {cookie: &http.Cookie{Name: "sid", Value: "stale"}, status: http.StatusOK},
		"resolver error": {cookie: &http.Cookie{Name: "sid", Value: "broken"}, status: http.StatusInternalServerError},
		"other cookie":   {cookie: &http.Cookie{Name: "theme", Value: "good"}, status: http.StatusOK},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var (
				got    models.Identity
				authed bool
				called bool
			)
			handler := SessionLoader(resolver, "sid")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				called = true
				got, authed = auth.IdentityFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status == http.StatusOK, called)
			assert.Equal(t, tc.authed, authed)
			assert.Equal(t, tc.want, got)
			if tc.status == http.StatusInternalServerError {
				assert.JSONEq(t, `{"message":"Server error"}`, rec.Body.String())
			}
		})
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
