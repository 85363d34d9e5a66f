package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/patric-chuzhbe/recipes/internal/hasher"
	"github.com/patric-chuzhbe/recipes/internal/user"
)

// Users is the UserService backed by the document store.
type Users struct {
	mu sync.Mutex
	db usersKeeper
}

var _ UserService = (*Users)(nil)

func NewUsers(db usersKeeper) *Users {
	return &Users{db: db}
}

func (s *Users) findUser(ctx context.Context, match func(*user.User) bool) (*user.User, error) {
	users, err := s.db.GetUsers(ctx)
	if err != nil {
		return nil, err
	}

	for i := range users {
		if match(&users[i]) {
			found := users[i]
			return &found, nil
		}
	}

	return nil, nil
}

// Exists reports whether a user with the username is registered.
func (s *Users) Exists(ctx context.Context, username string) (bool, error) {
	usr, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return false, err
	}

	return usr != nil, nil
}

// GetUserByUsername returns nil without an error when the user is absent.
func (s *Users) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	return s.findUser(ctx, func(u *user.User) bool { return u.Username == username })
}

// GetUserByID returns nil without an error when the user is absent.
func (s *Users) GetUserByID(ctx context.Context, userID int) (*user.User, error) {
	return s.findUser(ctx, func(u *user.User) bool { return u.ID == userID })
}

// Add registers a new user with a fresh salt. The id is the number of users plus one.
func (s *Users) Add(ctx context.Context, username, password string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.db.GetUsers(ctx)
	if err != nil {
		return nil, err
	}

	for _, existing := range users {
		if existing.Username == username {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
		}
	}

	salt, err := hasher.NewSalt()
	if err != nil {
		return nil, err
	}

	usr := user.User{
		ID:           len(users) + 1,
		Username:     username,
		PasswordHash: hasher.Hash(password, salt),
		PasswordSalt: salt,
	}

	if err := s.db.InsertUser(ctx, usr); err != nil {
		return nil, fmt.Errorf("in internal/service/users.go/Add(): error while `s.db.InsertUser()` calling: %w", err)
	}

	return &usr, nil
}

// Authorize checks the password against the stored hash and salt.
// An unknown username is not an error, it just fails authorization.
func (s *Users) Authorize(ctx context.Context, username, password string) (bool, error) {
	usr, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if usr == nil {
		return false, nil
	}

	return hasher.Verify(password, usr.PasswordSalt, usr.PasswordHash), nil
}
