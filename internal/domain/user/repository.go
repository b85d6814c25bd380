package user

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetByUsernameOrEmail resolves a login identifier that may be either
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*User, error)
	// CheckExists reports whether the username or the email is already
	// taken. Both are checked in a single lookup; the storage layer's
	// uniqueness constraints remain the final authority under races.
	CheckExists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	UpdateEmail(ctx context.Context, username, newEmail string) error
	UpdateUsername(ctx context.Context, username, newUsername string) error
	UpdatePassword(ctx context.Context, username, passwordDigest string) error
}
