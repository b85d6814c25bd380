package user

import (
	"strings"

	"github.com/splitsub/splitsub/internal/types"
)

// User is an account holder. Usernames are case-insensitive and stored
// lowercase; Password holds the bcrypt digest, never the plaintext.
type User struct {
	Username         string `db:"username" json:"username"`
	FirstName        string `db:"first_name" json:"first_name"`
	LastName         string `db:"last_name" json:"last_name"`
	Email            string `db:"email" json:"email"`
	Password         string `db:"password" json:"-"`
	StripeCustomerID string `db:"stripe_customer_id" json:"-"`
	types.BaseModel
}

func NewUser(username, firstName, lastName, email, passwordDigest, stripeCustomerID string) *User {
	return &User{
		Username:         NormalizeUsername(username),
		FirstName:        firstName,
		LastName:         lastName,
		Email:            NormalizeEmail(email),
		Password:         passwordDigest,
		StripeCustomerID: stripeCustomerID,
		BaseModel:        types.GetDefaultBaseModel(),
	}
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeUsername lowercases and trims a username so lookups are
// case-insensitive
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
