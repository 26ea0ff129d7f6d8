package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/reelshelf/backend/internal/accounts"
	"github.com/reelshelf/backend/internal/auth"
	"github.com/reelshelf/backend/internal/catalog"
	"github.com/reelshelf/backend/internal/middleware"
	"github.com/reelshelf/backend/internal/posters"
	"github.com/reelshelf/backend/internal/repositories"
)

const testCookie = "sid"

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\nposter-bytes")
	jpegBytes = []byte("\xFF\xD8\xFF\xE0jpeg-bytes")
	gifBytes  = []byte("GIF89a-not-allowed")
)

type testEnv struct {
	server    *httptest.Server
	uploadDir string
	movies    *repositories.InMemoryMovieRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := repositories.NewInMemoryUserRepository()
	movies := repositories.NewInMemoryMovieRepository(users)
	store := accounts.NewStore(users, accounts.NewBcryptHasher(bcrypt.MinCost))
	manager := auth.NewManager(auth.NewInMemorySessionStore(), store, auth.WithSessionTTL(time.Hour))

	dir := t.TempDir()
	storage, err := posters.NewFileStorage(dir, "/uploads")
	require.NoError(t, err)

	janitor := posters.NewJanitor(storage, posters.JanitorConfig{Workers: 1}, nil)
	t.Cleanup(func() { _ = janitor.Shutdown(context.Background()) })

	service := catalog.NewService(movies, storage, catalog.WithPosterCleaner(janitor), catalog.WithPageSize(2))

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Accounts:       store,
		Sessions:       manager,
		Catalog:        service,
		Cookie:         CookieConfig{Name: testCookie},
		MaxUploadBytes: 1024,
		UploadDir:      dir,
		UploadPath:     "/uploads",
	})

	server := httptest.NewServer(middleware.Chain(mux, middleware.SessionLoader(manager, testCookie)))
	t.Cleanup(server.Close)

	return &testEnv{server: server, uploadDir: dir, movies: movies}
}

// newClient returns a client with its own cookie jar, i.e. its own browser session.
func (e *testEnv) newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (e *testEnv) do(t *testing.T, client *http.Client, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) postJSON(t *testing.T, client *http.Client, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(t, client, http.MethodPost, path, bytes.NewReader(body), "application/json")
}

// signUp registers and logs in a user on client.
func (e *testEnv) signUp(t *testing.T, client *http.Client, name, email string) {
	t.Helper()
	resp := e.postJSON(t, client, "/register", map[string]string{"name": name, "email": email, "password": "12345678"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = e.postJSON(t, client, "/login", map[string]string{"username": email, "password": "12345678"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

type posterPart struct {
	filename    string
	contentType string
	data        []byte
}

func multipartMovie(t *testing.T, fields map[string]string, poster *posterPart) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if poster != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="poster"; filename=%q`, poster.filename))
		header.Set("Content-Type", poster.contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(poster.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeJSON(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func messageOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body messageResponse
	decodeJSON(t, resp, &body)
	return body.Message
}
