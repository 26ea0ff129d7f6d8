package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/reelshelf/backend/internal/auth"
	"github.com/reelshelf/backend/internal/catalog"
	"github.com/reelshelf/backend/internal/logging"
	"github.com/reelshelf/backend/internal/models"
	"github.com/reelshelf/backend/internal/posters"
)

const (
	// DefaultMaxUploadBytes bounds a poster when no limit is configured.
	DefaultMaxUploadBytes = 10 << 20
	// multipartMemory is how much of a multipart form is buffered before spilling to temp files.
	multipartMemory = 1 << 20
	// formOverhead leaves room for the text fields and part headers around the poster.
	formOverhead = 64 << 10
)

// MovieHandler implements the catalog endpoints.
type MovieHandler struct {
	Catalog        CatalogService
	MaxUploadBytes int64
}

// Create handles POST /movies.
func (h MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	form, err := h.parseMovieForm(w, r)
	defer form.close()
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	movie, err := h.Catalog.Create(ctx, identity, catalog.CreateInput{
		Title:         form.title,
		PublishedYear: form.publishedYear,
		Poster:        form.poster,
	})
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, movieResponse{Message: "Movie created successfully", Movie: movie})
}

// Update handles PUT /movies/{movieId}.
func (h MovieHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	form, err := h.parseMovieForm(w, r)
	defer form.close()
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	movie, err := h.Catalog.Update(ctx, identity, r.PathValue("movieId"), catalog.UpdateInput{
		Title:         form.title,
		PublishedYear: form.publishedYear,
		Poster:        form.poster,
	})
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	respondJSON(ctx, w, http.StatusOK, movieResponse{Message: "Movie updated successfully", Movie: movie})
}

// Get handles GET /movies/{movieId}.
func (h MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, r.PathValue("movieId"))
}

// GetLegacy handles GET /movies/user/{userId}. The path segment has always
// carried a movie id, not a user id; existing clients rely on that.
func (h MovieHandler) GetLegacy(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, r.PathValue("userId"))
}

func (h MovieHandler) get(w http.ResponseWriter, r *http.Request, movieID string) {
	ctx := r.Context()

	movie, err := h.Catalog.Get(ctx, movieID)
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	respondJSON(ctx, w, http.StatusOK, movieResponse{Message: "Movies retrieved successfully", Movie: movie})
}

// Delete handles DELETE /movies/{movieId}.
func (h MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	movie, err := h.Catalog.Delete(ctx, identity, r.PathValue("movieId"))
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	respondJSON(ctx, w, http.StatusOK, movieResponse{Message: "Movie deleted successfully", Movie: movie})
}

// List handles GET /movies?page=N. Missing or malformed pages mean page 1.
func (h MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.Catalog.ListByUser(ctx, identity, page)
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	respondJSON(ctx, w, http.StatusOK, movieListResponse{
		Message:    "Movies retrieved successfully",
		Movies:     result.Movies,
		Pagination: result.Pagination,
	})
}

type movieForm struct {
	title         string
	publishedYear string
	poster        *posters.Upload
	closers       []io.Closer
	request       *http.Request
}

func (f *movieForm) close() {
	for _, c := range f.closers {
		_ = c.Close()
	}
	if f.request != nil && f.request.MultipartForm != nil {
		if err := f.request.MultipartForm.RemoveAll(); err != nil {
			logging.LogError(f.request.Context(), "remove multipart temp files", err)
		}
	}
}

// parseMovieForm reads title, publishedYear and the optional poster part from
// a multipart or urlencoded body. The returned form must be closed.
func (h MovieHandler) parseMovieForm(w http.ResponseWriter, r *http.Request) (*movieForm, error) {
	limit := h.maxUploadBytes()
	form := &movieForm{request: r}

	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return form, err
		}
		return form, models.NewValidationError("movie", msgInvalidBody)
	}

	form.title = r.FormValue("title")
	form.publishedYear = r.FormValue("publishedYear")

	if r.MultipartForm == nil {
		return form, nil
	}
	parts := r.MultipartForm.File["poster"]
	if len(parts) == 0 {
		return form, nil
	}

	header := parts[0]
	if header.Size > limit {
		return form, &http.MaxBytesError{Limit: limit}
	}

	upload, closer, err := posters.FromFileHeader(header)
	if err != nil {
		return form, err
	}
	form.closers = append(form.closers, closer)
	form.poster = upload
	return form, nil
}

func (h MovieHandler) maxUploadBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return DefaultMaxUploadBytes
}

type movieResponse struct {
	Message string       `json:"message"`
	Movie   models.Movie `json:"movie"`
}

type movieListResponse struct {
	Message    string            `json:"message"`
	Movies     []models.Movie    `json:"movies"`
	Pagination models.Pagination `json:"pagination"`
}
