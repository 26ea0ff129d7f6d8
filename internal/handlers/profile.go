package handlers

import (
	"net/http"
	"net/url"

	"github.com/reelshelf/backend/internal/accounts"
	"github.com/reelshelf/backend/internal/auth"
)

// ProfileHandler exposes the authenticated user's own record.
type ProfileHandler struct {
	Accounts AccountService
	Sessions SessionManager
}

// Show handles GET /profile.
func (h ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	respondJSON(ctx, w, http.StatusOK, identityResponse{Message: "Welcome to your profile", User: identity})
}

// Update handles PATCH /profile. Omitted fields are left unchanged.
func (h ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	var req profileRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.Accounts.Update(ctx, identity.ID, accounts.UpdateInput{Name: req.Name, Password: req.Password})
	if err != nil {
		respondError(ctx, w, err, errorOptions{
			validationStatus: http.StatusUnprocessableEntity,
			notFound:         msgUnauthorized,
			notFoundStatus:   http.StatusUnauthorized,
		})
		return
	}

	h.Sessions.Forget(identity.ID)
	respondJSON(ctx, w, http.StatusOK, identityResponse{Message: "Profile updated successfully", User: user.Identity()})
}

type profileRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (r *profileRequest) fromForm(values url.Values) {
	r.Name = optionalField(values, "name")
	r.Password = optionalField(values, "password")
}
