package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/reelshelf/backend/internal/logging"
	"github.com/reelshelf/backend/internal/models"
)

// DefaultSessionTTL is how long a login stays valid when no TTL is configured.
const DefaultSessionTTL = 24 * time.Hour

// ErrSessionNotFound indicates the provided token does not map to a stored session.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists issued sessions keyed by the hash of their token.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, tokenHash string) (Session, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Session is the server-side record of a login. The plaintext token is never stored.
type Session struct {
	ID        string
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// UserDirectory is the slice of the credential store the manager needs.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	VerifyPassword(candidate, storedHash string) (bool, error)
}

// Manager issues, resolves and revokes login sessions.
type Manager struct {
	store      SessionStore
	users      UserDirectory
	identities *IdentityCache
	ttl        time.Duration
	now        func() time.Time
	onSweep    func(removed int64)
}

// Option customises a Manager.
type Option func(*Manager)

// WithSessionTTL sets how long issued sessions remain valid.
func WithSessionTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides the manager's time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIdentityCacheTTL sets how long resolved identities are cached.
func WithIdentityCacheTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.identities.ttl = ttl
	}
}

// WithSweepObserver registers a callback invoked with the number of sessions
// removed by every successful sweep.
func WithSweepObserver(observe func(removed int64)) Option {
	return func(m *Manager) {
		m.onSweep = observe
	}
}

// NewManager constructs a Manager backed by store and users.
func NewManager(store SessionStore, users UserDirectory, opts ...Option) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	if users == nil {
		panic("auth: user directory must not be nil")
	}
	m := &Manager{
		store: store,
		users: users,
		ttl:   DefaultSessionTTL,
		now:   func() time.Time { return time.Now().UTC() },
	}
	m.identities = NewIdentityCache(identityLoaderFunc(m.loadIdentity), time.Minute)
	for _, opt := range opts {
		opt(m)
	}
	m.identities.now = m.now
	return m
}

// TTL returns the lifetime of newly issued sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Login authenticates username (the account email) and password and starts a
// session. Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, username, password string) (models.Identity, string, error) {
	ctx, span := logging.StartSpan(ctx, "auth.login")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Identity{}, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(models.ErrInvalidCredentials)
	}

	user, err := m.users.FindByEmail(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Identity{}, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(models.ErrInvalidCredentials)
		}
		span.Fail(err)
		return models.Identity{}, "", oops.Code("AUTH_LOGIN_FAILED").Wrapf(err, "look up user")
	}

	ok, err := m.users.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		span.Fail(err)
		return models.Identity{}, "", oops.Code("AUTH_LOGIN_FAILED").With("user_id", user.ID).Wrapf(err, "verify password")
	}
	if !ok {
		return models.Identity{}, "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(models.ErrInvalidCredentials)
	}

	token, err := randomToken()
	if err != nil {
		span.Fail(err)
		return models.Identity{}, "", oops.Code("AUTH_LOGIN_FAILED").Wrapf(err, "generate session token")
	}

	now := m.now()
	session := Session{
		ID:        ulid.Make().String(),
		TokenHash: HashToken(token),
		UserID:    user.ID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.store.Save(ctx, session); err != nil {
		span.Fail(err)
		return models.Identity{}, "", oops.Code("AUTH_LOGIN_FAILED").With("user_id", user.ID).Wrapf(err, "save session")
	}

	identity := user.Identity()
	m.identities.Put(identity)

	logging.FromContext(ctx).InfoContext(ctx, "user logged in", "user_id", user.ID, "session_id", session.ID)
	return identity, token, nil
}

// Logout destroys the session behind token. Empty and unknown tokens succeed.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, HashToken(token)); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return oops.Code("AUTH_LOGOUT_FAILED").Wrapf(err, "delete session")
	}
	return nil
}

// Resolve maps a session token to the identity that owns it. Unknown, expired
// or orphaned sessions yield ErrUnauthorized; expired ones are deleted.
func (m *Manager) Resolve(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, models.ErrUnauthorized
	}

	hash := HashToken(token)
	session, err := m.store.Find(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return models.Identity{}, models.ErrUnauthorized
		}
		return models.Identity{}, oops.Code("AUTH_RESOLVE_FAILED").Wrapf(err, "find session")
	}

	if session.Expired(m.now()) {
		if err := m.store.Delete(ctx, hash); err != nil && !errors.Is(err, ErrSessionNotFound) {
			logging.LogError(ctx, "delete expired session", err, "session_id", session.ID)
		}
		return models.Identity{}, models.ErrUnauthorized
	}

	identity, err := m.identities.Lookup(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Identity{}, models.ErrUnauthorized
		}
		return models.Identity{}, oops.Code("AUTH_RESOLVE_FAILED").With("user_id", session.UserID).Wrapf(err, "load identity")
	}

	return identity, nil
}

// Forget drops any cached identity for userID, e.g. after a profile change.
func (m *Manager) Forget(userID string) {
	m.identities.Invalidate(userID)
}

// SweepExpired removes every session that has expired and returns how many were deleted.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := m.store.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, oops.Code("AUTH_SWEEP_FAILED").Wrapf(err, "delete expired sessions")
	}
	if m.onSweep != nil {
		m.onSweep(removed)
	}
	return removed, nil
}

func (m *Manager) loadIdentity(ctx context.Context, userID string) (models.Identity, error) {
	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		return models.Identity{}, err
	}
	return user.Identity(), nil
}

// HashToken returns the hex-encoded SHA-256 digest under which a token is stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
