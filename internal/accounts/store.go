// Package accounts owns user registration, lookup and password verification.
package accounts

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/reelshelf/backend/internal/logging"
	"github.com/reelshelf/backend/internal/models"
	"github.com/reelshelf/backend/internal/repositories"
	"github.com/reelshelf/backend/internal/validate"
)

const (
	minPasswordLength = 8
	minNameLength     = 2
)

// Field messages reported through models.ValidationError.
const (
	MsgInvalidPassword = "Invalid Password"
	MsgInvalidEmail    = "Invalid Email"
	MsgInvalidName     = "Invalid Name"
)

// RegisterInput carries the fields submitted at registration.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateInput carries optional profile changes. Nil fields are left untouched.
type UpdateInput struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// Store is the credential store backing registration and login.
type Store struct {
	users  repositories.UserRepository
	hasher PasswordHasher
	now    func() time.Time
	newID  func() string
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how user ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewStore constructs a credential store.
func NewStore(users repositories.UserRepository, hasher PasswordHasher, opts ...Option) *Store {
	if users == nil {
		panic("accounts: user repository must not be nil")
	}
	if hasher == nil {
		hasher = NewBcryptHasher(DefaultCost)
	}
	s := &Store{
		users:  users,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates input, hashes the password and stores a new user.
func (s *Store) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "accounts.register")
	defer span.End()

	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	if !validate.IsEmail(email) {
		return models.User{}, models.NewValidationError("email", MsgInvalidEmail)
	}

	// A taken email is reported as a duplicate whatever the other fields hold.
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, oops.Code("ACCOUNT_DUPLICATE_EMAIL").With("email", email).Wrap(models.ErrDuplicateEmail)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		span.Fail(err)
		return models.User{}, oops.Code("ACCOUNT_LOOKUP_FAILED").Wrapf(err, "check existing email")
	}

	if err := validatePassword(input.Password); err != nil {
		return models.User{}, err
	}
	if err := validateName(name); err != nil {
		return models.User{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return models.User{}, models.NewValidationError("password", MsgInvalidPassword)
		}
		span.Fail(err)
		return models.User{}, oops.Code("ACCOUNT_HASH_FAILED").Wrapf(err, "hash password")
	}

	now := s.now()
	user := models.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, oops.Code("ACCOUNT_DUPLICATE_EMAIL").With("email", email).Wrap(models.ErrDuplicateEmail)
		}
		span.Fail(err)
		return models.User{}, oops.Code("ACCOUNT_CREATE_FAILED").With("user_id", user.ID).Wrapf(err, "create user")
	}

	logging.FromContext(ctx).InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// FindByEmail looks up a user by email.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, models.ErrNotFound
		}
		return models.User{}, oops.Code("ACCOUNT_LOOKUP_FAILED").Wrapf(err, "find user by email")
	}
	return user, nil
}

// FindByID looks up a user by id.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, models.ErrNotFound
		}
		return models.User{}, oops.Code("ACCOUNT_LOOKUP_FAILED").With("user_id", id).Wrapf(err, "find user by id")
	}
	return user, nil
}

// VerifyPassword compares a candidate password with a stored hash.
func (s *Store) VerifyPassword(candidate, storedHash string) (bool, error) {
	ok, err := s.hasher.Compare(storedHash, candidate)
	if err != nil {
		return false, oops.Code("ACCOUNT_HASH_CORRUPT").Wrapf(err, "compare password")
	}
	return ok, nil
}

// Update applies profile changes. The password is re-hashed only when a new
// one is supplied.
func (s *Store) Update(ctx context.Context, id string, input UpdateInput) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "accounts.update")
	defer span.End()

	user, err := s.FindByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if input.Name == nil && input.Password == nil {
		return user, nil
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if err := validateName(name); err != nil {
			return models.User{}, err
		}
		user.Name = name
	}

	if input.Password != nil {
		if err := validatePassword(*input.Password); err != nil {
			return models.User{}, err
		}
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return models.User{}, models.NewValidationError("password", MsgInvalidPassword)
			}
			span.Fail(err)
			return models.User{}, oops.Code("ACCOUNT_HASH_FAILED").With("user_id", id).Wrapf(err, "hash password")
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, models.ErrNotFound
		}
		span.Fail(err)
		return models.User{}, oops.Code("ACCOUNT_UPDATE_FAILED").With("user_id", id).Wrapf(err, "update user")
	}

	return user, nil
}

func validatePassword(password string) error {
	if password == "" || utf8.RuneCountInString(password) < minPasswordLength {
		return models.NewValidationError("password", MsgInvalidPassword)
	}
	return nil
}

func validateName(name string) error {
	if utf8.RuneCountInString(name) < minNameLength || !validate.IsAlphanumeric(name) {
		return models.NewValidationError("name", MsgInvalidName)
	}
	return nil
}
