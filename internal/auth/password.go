package auth

import (
	"golang.org/x/crypto/bcrypt"

	ierr "github.com/splitsub/splitsub/internal/errors"
)

// HashPassword returns the bcrypt digest of a plaintext password
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ierr.NewError("password is required").
			WithHint("Password is required").
			Mark(ierr.ErrValidation)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to hash password").
			Mark(ierr.ErrSystem)
	}
	return string(digest), nil
}

// CheckPassword reports whether the plaintext password matches the stored
// bcrypt digest. A mismatch is not an error.
func CheckPassword(digest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
