// Package catalog implements the owner-scoped movie catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/reelshelf/backend/internal/logging"
	"github.com/reelshelf/backend/internal/models"
	"github.com/reelshelf/backend/internal/posters"
	"github.com/reelshelf/backend/internal/repositories"
	"github.com/reelshelf/backend/internal/validate"
)

// DefaultPageSize is the number of movies returned per page.
const DefaultPageSize = 8

const minPublishedYear = 1800

// Messages reported through models.ValidationError.
const (
	MsgCreateInvalid = "Invalid input. Poster, title, and published year are required."
	MsgUpdateInvalid = "Invalid input. Title and published year are required."
)

// CreateInput carries the fields of a new movie.
type CreateInput struct {
	Title         string
	PublishedYear string
	Poster        *posters.Upload
}

// UpdateInput carries the replacement fields of a movie. A nil Poster keeps the current one.
type UpdateInput struct {
	Title         string
	PublishedYear string
	Poster        *posters.Upload
}

// PosterCleaner removes posters that are no longer referenced.
type PosterCleaner interface {
	Enqueue(ctx context.Context, location string) error
}

// Service implements the catalog operations.
type Service struct {
	movies   repositories.MovieRepository
	storage  posters.Storage
	cleaner  PosterCleaner
	pageSize int
	now      func() time.Time
	newID    func() string
}

// Option customises a Service.
type Option func(*Service)

// WithPageSize overrides DefaultPageSize.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithClock overrides the time source used for timestamps, poster names and the year bound.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how movie ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithPosterCleaner sets where orphaned posters are sent for removal.
func WithPosterCleaner(cleaner PosterCleaner) Option {
	return func(s *Service) {
		s.cleaner = cleaner
	}
}

// NewService constructs the catalog service.
func NewService(movies repositories.MovieRepository, storage posters.Storage, opts ...Option) *Service {
	if movies == nil {
		panic("catalog: movie repository must not be nil")
	}
	if storage == nil {
		panic("catalog: poster storage must not be nil")
	}
	s := &Service{
		movies:   movies,
		storage:  storage,
		pageSize: DefaultPageSize,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageSize returns the number of movies per page.
func (s *Service) PageSize() int {
	return s.pageSize
}

// Create stores the poster and records a new movie owned by identity.
func (s *Service) Create(ctx context.Context, identity models.Identity, input CreateInput) (models.Movie, error) {
	if identity.IsZero() {
		return models.Movie{}, models.ErrUnauthorized
	}

	ctx, span := logging.StartSpan(ctx, "catalog.create")
	defer span.End()

	title := strings.TrimSpace(input.Title)
	yearText := strings.TrimSpace(input.PublishedYear)
	if input.Poster == nil || title == "" || !validate.IsNumeric(yearText) {
		return models.Movie{}, models.NewValidationError("movie", MsgCreateInvalid)
	}
	if err := posters.Accept(input.Poster); err != nil {
		return models.Movie{}, err
	}

	now := s.now()
	location, err := s.storage.Save(ctx, posters.Name(now, input.Poster.Filename), input.Poster.Body)
	if err != nil {
		span.Fail(err)
		return models.Movie{}, oops.Code("CATALOG_POSTER_SAVE_FAILED").With("user_id", identity.ID).Wrapf(err, "store poster")
	}

	year, err := s.parseYear(yearText)
	if err != nil {
		s.discard(ctx, location)
		return models.Movie{}, err
	}

	movie := models.Movie{
		ID:            s.newID(),
		Poster:        location,
		Title:         title,
		PublishedYear: year,
		OwnerID:       identity.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.movies.Create(ctx, movie); err != nil {
		s.discard(ctx, location)
		span.Fail(err)
		if errors.Is(err, repositories.ErrNotFound) {
			// The owning account vanished between session resolution and insert.
			return models.Movie{}, models.ErrUnauthorized
		}
		return models.Movie{}, oops.Code("CATALOG_CREATE_FAILED").With("user_id", identity.ID, "movie_id", movie.ID).Wrapf(err, "insert movie")
	}

	logging.FromContext(ctx).InfoContext(ctx, "movie created", "movie_id", movie.ID, "user_id", identity.ID)
	return movie, nil
}

// Update replaces the title, year and optionally the poster of a movie owned by identity.
// Movies owned by someone else are reported as not found.
func (s *Service) Update(ctx context.Context, identity models.Identity, movieID string, input UpdateInput) (models.Movie, error) {
	if identity.IsZero() {
		return models.Movie{}, models.ErrUnauthorized
	}

	ctx, span := logging.StartSpan(ctx, "catalog.update")
	defer span.End()

	title := strings.TrimSpace(input.Title)
	yearText := strings.TrimSpace(input.PublishedYear)
	if title == "" || !validate.IsNumeric(yearText) {
		return models.Movie{}, models.NewValidationError("movie", MsgUpdateInvalid)
	}
	if input.Poster != nil {
		if err := posters.Accept(input.Poster); err != nil {
			return models.Movie{}, err
		}
	}

	existing, err := s.Get(ctx, movieID)
	if err != nil {
		return models.Movie{}, err
	}
	if existing.OwnerID != identity.ID {
		return models.Movie{}, notFound(movieID)
	}

	now := s.now()
	updated := existing
	updated.Title = title
	updated.UpdatedAt = now

	var replaced string
	if input.Poster != nil {
		location, err := s.storage.Save(ctx, posters.Name(now, input.Poster.Filename), input.Poster.Body)
		if err != nil {
			span.Fail(err)
			return models.Movie{}, oops.Code("CATALOG_POSTER_SAVE_FAILED").With("movie_id", movieID).Wrapf(err, "store poster")
		}
		replaced = existing.Poster
		updated.Poster = location
	}

	year, err := s.parseYear(yearText)
	if err != nil {
		if replaced != "" {
			s.discard(ctx, updated.Poster)
		}
		return models.Movie{}, err
	}
	updated.PublishedYear = year

	if err := s.movies.Update(ctx, updated); err != nil {
		if replaced != "" {
			s.discard(ctx, updated.Poster)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Movie{}, notFound(movieID)
		}
		span.Fail(err)
		return models.Movie{}, oops.Code("CATALOG_UPDATE_FAILED").With("movie_id", movieID).Wrapf(err, "update movie")
	}

	if replaced != "" && replaced != updated.Poster {
		s.discard(ctx, replaced)
	}

	return updated, nil
}

// Delete removes a movie owned by identity and returns it. Its poster is scheduled for removal.
func (s *Service) Delete(ctx context.Context, identity models.Identity, movieID string) (models.Movie, error) {
	if identity.IsZero() {
		return models.Movie{}, models.ErrUnauthorized
	}

	movie, err := s.movies.Delete(ctx, movieID, identity.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Movie{}, notFound(movieID)
		}
		return models.Movie{}, oops.Code("CATALOG_DELETE_FAILED").With("movie_id", movieID).Wrapf(err, "delete movie")
	}

	s.discard(ctx, movie.Poster)
	return movie, nil
}

// Get fetches a single movie by id.
func (s *Service) Get(ctx context.Context, movieID string) (models.Movie, error) {
	if strings.TrimSpace(movieID) == "" {
		return models.Movie{}, notFound(movieID)
	}
	movie, err := s.movies.FindByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Movie{}, notFound(movieID)
		}
		return models.Movie{}, oops.Code("CATALOG_LOOKUP_FAILED").With("movie_id", movieID).Wrapf(err, "find movie")
	}
	return movie, nil
}

// ListByUser returns one page of identity's movies. Pages below 1 are treated as 1.
func (s *Service) ListByUser(ctx context.Context, identity models.Identity, page int) (models.MoviePage, error) {
	if identity.IsZero() {
		return models.MoviePage{}, models.ErrUnauthorized
	}
	if page < 1 {
		page = 1
	}

	movies := []models.Movie{}
	// Pages whose offset does not fit in an int lie past any stored movie.
	if page-1 <= math.MaxInt/s.pageSize {
		var err error
		movies, err = s.movies.ListByOwner(ctx, identity.ID, s.pageSize, (page-1)*s.pageSize)
		if err != nil {
			return models.MoviePage{}, oops.Code("CATALOG_LIST_FAILED").With("user_id", identity.ID).Wrapf(err, "list movies")
		}
	}

	total, err := s.movies.CountByOwner(ctx, identity.ID)
	if err != nil {
		return models.MoviePage{}, oops.Code("CATALOG_LIST_FAILED").With("user_id", identity.ID).Wrapf(err, "count movies")
	}

	return models.MoviePage{
		Movies: movies,
		Pagination: models.Pagination{
			CurrentPage: page,
			TotalPages:  (total + s.pageSize - 1) / s.pageSize,
			TotalMovies: total,
			Limit:       s.pageSize,
		},
	}, nil
}

// parseYear converts a numeric string and checks 1800 < year <= current year.
func (s *Service) parseYear(text string) (int, error) {
	year, err := strconv.Atoi(text)
	if err != nil || year <= minPublishedYear || year > s.now().Year() {
		return 0, models.NewValidationError("publishedYear", fmt.Sprintf("%s is not a valid year!", text))
	}
	return year, nil
}

func (s *Service) discard(ctx context.Context, location string) {
	if s.cleaner == nil || location == "" {
		return
	}
	if err := s.cleaner.Enqueue(ctx, location); err != nil {
		logging.LogError(ctx, "schedule poster removal", err, "location", location)
	}
}

func notFound(movieID string) error {
	return oops.Code("CATALOG_MOVIE_NOT_FOUND").With("movie_id", movieID).Wrap(models.ErrNotFound)
}
