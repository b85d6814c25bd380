package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/splitsub/splitsub/internal/domain/user"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/logger"
	"github.com/splitsub/splitsub/internal/postgres"
)

type userRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUserRepository(db *postgres.DB, logger *logger.Logger) user.Repository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (username, first_name, last_name, email, password, stripe_customer_id, created_at, updated_at)
		VALUES (:username, :first_name, :last_name, :email, :password, :stripe_customer_id, :created_at, :updated_at)`

	_, err := r.db.NamedExecContext(ctx, query, u)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A user with this username or email already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create user").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `SELECT * FROM users WHERE username = $1`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, user.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("User %s was not found", username).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get user").
			Mark(ierr.ErrDatabase)
	}
	return &u, nil
}

func (r *userRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*user.User, error) {
	query := `SELECT * FROM users WHERE username = $1 OR email = $1`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, user.NormalizeUsername(identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No user matches this username or email").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get user").
			Mark(ierr.ErrDatabase)
	}
	return &u, nil
}

func (r *userRepository) CheckExists(ctx context.Context, username, email string) (bool, bool, error) {
	query := `SELECT
		EXISTS (SELECT 1 FROM users WHERE username = $1) AS username_taken,
		EXISTS (SELECT 1 FROM users WHERE email = $2) AS email_taken`

	var row struct {
		UsernameTaken bool `db:"username_taken"`
		EmailTaken    bool `db:"email_taken"`
	}
	err := r.db.GetContext(ctx, &row, query, user.NormalizeUsername(username), user.NormalizeEmail(email))
	if err != nil {
		return false, false, ierr.WithError(err).
			WithHint("Failed to check user existence").
			Mark(ierr.ErrDatabase)
	}
	return row.UsernameTaken, row.EmailTaken, nil
}

func (r *userRepository) UpdateEmail(ctx context.Context, username, newEmail string) error {
	query := `UPDATE users SET email = $1, updated_at = $2 WHERE username = $3`
	return r.execExpectingRow(ctx, query, user.NormalizeEmail(newEmail), time.Now().UTC(), user.NormalizeUsername(username))
}

func (r *userRepository) UpdateUsername(ctx context.Context, username, newUsername string) error {
	query := `UPDATE users SET username = $1, updated_at = $2 WHERE username = $3`
	return r.execExpectingRow(ctx, query, user.NormalizeUsername(newUsername), time.Now().UTC(), user.NormalizeUsername(username))
}

func (r *userRepository) UpdatePassword(ctx context.Context, username, passwordDigest string) error {
	query := `UPDATE users SET password = $1, updated_at = $2 WHERE username = $3`
	return r.execExpectingRow(ctx, query, passwordDigest, time.Now().UTC(), user.NormalizeUsername(username))
}

func (r *userRepository) execExpectingRow(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("This value is already taken").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to update user").
			Mark(ierr.ErrDatabase)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("user not found").
			WithHint("User was not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// isUniqueViolation reports whether err is a postgres unique constraint
// violation (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
