package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/reelshelf/backend/internal/logging"
	"github.com/reelshelf/backend/internal/models"
)

// Response messages shared across handlers.
const (
	msgUnauthorized       = "Unauthorized"
	msgInvalidCredentials = "invalid credentials"
	msgUserExists         = "User already exists"
	msgMovieNotFound      = "Movie not found"
	msgServerError        = "Server error"
	msgInvalidBody        = "Invalid request body"
	msgPosterTooLarge     = "Poster is too large"
)

// errorOptions tunes how respondError renders the failures whose status or
// message differ between routes.
type errorOptions struct {
	validationStatus int
	notFound         string
	notFoundStatus   int
	serverError      string
}

func (o errorOptions) withDefaults() errorOptions {
	if o.validationStatus == 0 {
		o.validationStatus = http.StatusBadRequest
	}
	if o.notFound == "" {
		o.notFound = msgMovieNotFound
	}
	if o.notFoundStatus == 0 {
		o.notFoundStatus = http.StatusNotFound
	}
	if o.serverError == "" {
		o.serverError = msgServerError
	}
	return o
}

// respondError maps domain errors to a status and a {"message"} body.
// Unexpected errors are logged and reported generically.
func respondError(ctx context.Context, w http.ResponseWriter, err error, opts errorOptions) {
	opts = opts.withDefaults()

	var (
		validation *models.ValidationError
		tooLarge   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validation):
		respondMessage(ctx, w, opts.validationStatus, validation.Message)
	case errors.Is(err, models.ErrInvalidCredentials):
		respondMessage(ctx, w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, models.ErrUnauthorized):
		respondMessage(ctx, w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, models.ErrDuplicateEmail):
		respondMessage(ctx, w, http.StatusBadRequest, msgUserExists)
	case errors.Is(err, models.ErrNotFound):
		respondMessage(ctx, w, opts.notFoundStatus, opts.notFound)
	case errors.Is(err, models.ErrUnsupportedMediaType):
		respondMessage(ctx, w, http.StatusUnsupportedMediaType, models.ErrUnsupportedMediaType.Error())
	case errors.As(err, &tooLarge):
		respondMessage(ctx, w, http.StatusRequestEntityTooLarge, msgPosterTooLarge)
	default:
		logging.LogError(ctx, "request failed", err)
		respondMessage(ctx, w, http.StatusInternalServerError, opts.serverError)
	}
}
