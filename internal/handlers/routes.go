package handlers

import (
	"net/http"
	"strings"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Accounts AccountService
	Sessions SessionManager
	Catalog  CatalogService
	Database Pinger
	Metrics  http.Handler
	Cookie   CookieConfig

	MaxUploadBytes int64
	// UploadDir and UploadPath expose filesystem posters; leave UploadDir empty
	// when posters live in an object store.
	UploadDir  string
	UploadPath string
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Database: deps.Database}
	auth := AuthHandler{Accounts: deps.Accounts, Sessions: deps.Sessions, Cookie: deps.Cookie}
	profile := ProfileHandler{Accounts: deps.Accounts, Sessions: deps.Sessions}
	movies := MovieHandler{Catalog: deps.Catalog, MaxUploadBytes: deps.MaxUploadBytes}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /register", auth.Register)
	mux.HandleFunc("POST /login", auth.Login)
	mux.HandleFunc("GET /logout", auth.Logout)

	mux.HandleFunc("GET /profile", profile.Show)
	mux.HandleFunc("PATCH /profile", profile.Update)

	mux.HandleFunc("POST /movies", movies.Create)
	mux.HandleFunc("GET /movies", movies.List)
	mux.HandleFunc("GET /movies/user/{userId}", movies.GetLegacy)
	mux.HandleFunc("GET /movies/{movieId}", movies.Get)
	mux.HandleFunc("PUT /movies/{movieId}", movies.Update)
	mux.HandleFunc("DELETE /movies/{movieId}", movies.Delete)

	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	if deps.UploadDir != "" {
		prefix := strings.TrimRight(deps.UploadPath, "/") + "/"
		if prefix == "/" {
			prefix = "/uploads/"
		}
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(deps.UploadDir)))
		mux.Handle("GET "+prefix, noDirectoryListing(files))
	}
}

func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
