package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/guthaVamshi/ExpenseTracker/internal/auth"
	"github.com/guthaVamshi/ExpenseTracker/internal/core"
)

// UserStore is the narrow persistence surface for credential records.
// Implemented by storage.Repository.
type UserStore interface {
	CreateUser(ctx context.Context, u *core.User) error
	GetUserByUsername(ctx context.Context, username string) (*core.User, error)
	GetUserByID(ctx context.Context, id int64) (*core.User, error)
}

// UserService handles registration.
type UserService struct {
	store      UserStore
	bcryptCost int
}

func NewUserService(store UserStore, bcryptCost int) *UserService {
	return &UserService{
		store:      store,
		bcryptCost: bcryptCost,
	}
}

// Register creates a credential record: username pre-checked for
// duplicates (the unique constraint is the atomic backstop), password
// bcrypt-hashed, role defaulted to USER when blank. The returned record has
// the password cleared.
func (s *UserService) Register(ctx context.Context, candidate core.User) (core.User, error) {
	if err := candidate.Validate(); err != nil {
		return core.User{}, err
	}

	candidate.Username = strings.TrimSpace(candidate.Username)

	existing, err := s.store.GetUserByUsername(ctx, candidate.Username)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("check existing username: %w", err)
	}
	if existing != nil {
		slog.WarnContext(ctx, "Registration failed - username already exists", "username", candidate.Username)
		return core.User{}, core.ErrConflict
	}

	hash, err := auth.HashPassword(candidate.Password, s.bcryptCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	candidate.Password = hash

	if strings.TrimSpace(candidate.Role) == "" {
		candidate.Role = core.DefaultRole
	}

	if err := s.store.CreateUser(ctx, &candidate); err != nil {
		// A concurrent registration can still hit the unique constraint.
		if errors.Is(err, core.ErrConflict) {
			return core.User{}, core.ErrConflict
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "id", candidate.ID, "username", candidate.Username, "role", candidate.Role)

	// Never echo the hash back to the client.
	candidate.Password = ""
	return candidate, nil
}

// Authenticate verifies a username and plaintext password pair. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.ErrUnauthorized
	}
	if err != nil {
		return core.User{}, fmt.Errorf("look up user: %w", err)
	}

	if !auth.CheckPassword(password, user.Password) {
		return core.User{}, core.ErrUnauthorized
	}

	authenticated := *user
	authenticated.Password = ""
	return authenticated, nil
}
