package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/reelshelf/backend/internal/accounts"
	"github.com/reelshelf/backend/internal/logging"
	"github.com/reelshelf/backend/internal/models"
)

// DefaultCookieName names the session cookie when none is configured.
const DefaultCookieName = "reelshelf_session"

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return DefaultCookieName
	}
	return c.Name
}

func (c CookieConfig) issue(w http.ResponseWriter, token string, ttl time.Duration, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    token,
		Path:     "/",
		Expires:  now.Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// AuthHandler implements registration, login and logout.
type AuthHandler struct {
	Accounts AccountService
	Sessions SessionManager
	Cookie   CookieConfig
	NowFunc  func() time.Time
}

// Register handles POST /register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid register payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.Accounts.Register(ctx, accounts.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(ctx, w, err, errorOptions{validationStatus: http.StatusUnprocessableEntity})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, userResponse{Message: "User registered successfully", User: user})
}

// Login handles POST /login. Unknown users and wrong passwords get the same 401.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid login payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	identity, token, err := h.Sessions.Login(ctx, req.Username, req.Password)
	if err != nil {
		respondError(ctx, w, err, errorOptions{})
		return
	}

	// A fresh login replaces whatever session the browser held before.
	if previous, err := r.Cookie(h.Cookie.name()); err == nil && previous.Value != "" && previous.Value != token {
		if err := h.Sessions.Logout(ctx, previous.Value); err != nil {
			logging.LogError(ctx, "revoke previous session", err, "user_id", identity.ID)
		}
	}

	h.Cookie.issue(w, token, h.Sessions.TTL(), h.now())
	respondJSON(ctx, w, http.StatusOK, identityResponse{Message: "Login successful", User: identity})
}

// Logout handles GET /logout. It succeeds for anonymous callers too.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var token string
	if cookie, err := r.Cookie(h.Cookie.name()); err == nil {
		token = cookie.Value
	}

	if err := h.Sessions.Logout(ctx, token); err != nil {
		respondError(ctx, w, err, errorOptions{serverError: "Error logging out"})
		return
	}

	h.Cookie.clear(w)
	respondMessage(ctx, w, http.StatusOK, "Logged out successfully")
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *registerRequest) fromForm(values url.Values) {
	r.Name = values.Get("name")
	r.Email = values.Get("email")
	r.Password = values.Get("password")
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *loginRequest) fromForm(values url.Values) {
	r.Username = values.Get("username")
	r.Password = values.Get("password")
}

type userResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

type identityResponse struct {
	Message string          `json:"message"`
	User    models.Identity `json:"user"`
}
