package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/splitsub/splitsub/internal/domain/user"
	ierr "github.com/splitsub/splitsub/internal/errors"
)

// InMemoryUserStore is an in-memory implementation of user.Repository
type InMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[string]*user.User)}
}

func (s *InMemoryUserStore) Create(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.Username]; exists {
		return ierr.NewError("user already exists").
			WithHint("A user with this username already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ierr.NewError("email already exists").
				WithHint("A user with this email already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	clone := *u
	s.users[u.Username] = &clone
	return nil
}

func (s *InMemoryUserStore) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getByUsername(user.NormalizeUsername(username))
}

func (s *InMemoryUserStore) GetByUsernameOrEmail(ctx context.Context, identifier string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identifier = user.NormalizeUsername(identifier)
	if u, err := s.getByUsername(identifier); err == nil {
		return u, nil
	}
	for _, u := range s.users {
		if u.Email == identifier {
			clone := *u
			return &clone, nil
		}
	}
	return nil, s.notFound()
}

func (s *InMemoryUserStore) CheckExists(ctx context.Context, username, email string) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, usernameTaken := s.users[user.NormalizeUsername(username)]
	emailTaken := false
	for _, u := range s.users {
		if u.Email == user.NormalizeEmail(email) {
			emailTaken = true
			break
		}
	}
	return usernameTaken, emailTaken, nil
}

func (s *InMemoryUserStore) UpdateEmail(ctx context.Context, username, newEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[user.NormalizeUsername(username)]
	if !ok {
		return s.notFound()
	}
	u.Email = user.NormalizeEmail(newEmail)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryUserStore) UpdateUsername(ctx context.Context, username, newUsername string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldKey := user.NormalizeUsername(username)
	newKey := user.NormalizeUsername(newUsername)

	u, ok := s.users[oldKey]
	if !ok {
		return s.notFound()
	}
	if _, taken := s.users[newKey]; taken {
		return ierr.NewError("username already exists").
			WithHint("This username is already taken").
			Mark(ierr.ErrAlreadyExists)
	}

	delete(s.users, oldKey)
	u.Username = newKey
	u.UpdatedAt = time.Now().UTC()
	s.users[newKey] = u
	return nil
}

func (s *InMemoryUserStore) UpdatePassword(ctx context.Context, username, passwordDigest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[user.NormalizeUsername(username)]
	if !ok {
		return s.notFound()
	}
	u.Password = passwordDigest
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryUserStore) getByUsername(username string) (*user.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, s.notFound()
	}
	clone := *u
	return &clone, nil
}

func (s *InMemoryUserStore) notFound() error {
	return ierr.NewError("user not found").
		WithHint("User was not found").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryUserStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]*user.User)
}
