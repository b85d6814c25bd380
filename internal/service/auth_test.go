package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/splitsub/splitsub/internal/api/dto"
	"github.com/splitsub/splitsub/internal/auth"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/testutil"
)

// newTestParams assembles ServiceParams from the suite's fakes
func newTestParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		UserRepo:         stores.UserRepo,
		PlanRepo:         stores.PlanRepo,
		MembershipRepo:   stores.MembershipRepo,
		WebhookEventRepo: stores.WebhookEventRepo,
		Gateway:          s.GetGateway(),
		Email:            s.GetEmailSender(),
		Tokens:           auth.NewTokenProvider(s.GetConfig()),
		PlanLock:         NewPlanLock(),
	}
}

type AuthServiceSuite struct {
	testutil.BaseServiceTestSuite
	authService AuthService
}

func TestAuthService(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.authService = NewAuthService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *AuthServiceSuite) signUp(username, email string) *dto.AuthResponse {
	resp, err := s.authService.SignUp(s.GetContext(), &dto.SignUpRequest{
		Username:  username,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "correct-horse",
	})
	s.NoError(err)
	return resp
}

func (s *AuthServiceSuite) TestSignUp() {
	resp := s.signUp("Ada", "ada@example.com")

	s.NotEmpty(resp.Token)
	s.Equal("ada", resp.Username, "usernames are stored lowercase")
	s.Equal("ada@example.com", resp.Email)

	u, err := s.GetStores().UserRepo.GetByUsername(s.GetContext(), "ada")
	s.NoError(err)
	s.NotEqual("correct-horse", u.Password, "password must be stored hashed")
	s.NotEmpty(u.StripeCustomerID)
	s.Len(s.GetGateway().Customers, 1)
}

func (s *AuthServiceSuite) TestSignUpUsernameCollisionWinsOverEmail() {
	s.signUp("ada", "ada@example.com")

	// Both the username and the email collide; the username error is the
	// one reported
	_, err := s.authService.SignUp(s.GetContext(), &dto.SignUpRequest{
		Username:  "ADA",
		FirstName: "Other",
		LastName:  "Person",
		Email:     "ada@example.com",
		Password:  "some-password",
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
	s.Contains(err.Error(), "username")
}

func (s *AuthServiceSuite) TestSignUpEmailCollision() {
	s.signUp("ada", "ada@example.com")

	_, err := s.authService.SignUp(s.GetContext(), &dto.SignUpRequest{
		Username:  "grace",
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "ADA@example.com",
		Password:  "some-password",
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
	s.Contains(err.Error(), "email")
}

func (s *AuthServiceSuite) TestLogin() {
	s.signUp("ada", "ada@example.com")

	resp, err := s.authService.Login(s.GetContext(), &dto.LoginRequest{
		Username: "Ada",
		Password: "correct-horse",
	})
	s.NoError(err)
	s.NotEmpty(resp.Token)
	s.Equal("ada", resp.Username)
}

func (s *AuthServiceSuite) TestLoginByEmail() {
	s.signUp("ada", "ada@example.com")

	resp, err := s.authService.Login(s.GetContext(), &dto.LoginRequest{
		Username: "ada@example.com",
		Password: "correct-horse",
	})
	s.NoError(err)
	s.NotEmpty(resp.Token)
}

func (s *AuthServiceSuite) TestLoginUnknownUsername() {
	_, err := s.authService.Login(s.GetContext(), &dto.LoginRequest{
		Username: "nobody",
		Password: "whatever-pass",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *AuthServiceSuite) TestLoginWrongPassword() {
	s.signUp("ada", "ada@example.com")

	// The two negative paths differ: a wrong password yields an empty
	// token with no error
	resp, err := s.authService.Login(s.GetContext(), &dto.LoginRequest{
		Username: "ada",
		Password: "wrong-horse",
	})
	s.NoError(err)
	s.Empty(resp.Token)
}

func (s *AuthServiceSuite) TestResetPasswordFlow() {
	s.signUp("ada", "ada@example.com")

	err := s.authService.ResetPassword(s.GetContext(), &dto.ResetPasswordRequest{
		Identifier: "ada@example.com",
	})
	s.NoError(err)

	sent := s.GetEmailSender().ByKind("password_reset")
	s.Len(sent, 1)
	s.Equal("ada@example.com", sent[0].To)
	s.NotEmpty(sent[0].Token)

	resp, err := s.authService.ResetPasswordFromToken(s.GetContext(), &dto.ResetPasswordFromTokenRequest{
		Token:       sent[0].Token,
		NewPassword: "brand-new-horse",
	})
	s.NoError(err)
	s.NotEmpty(resp.Token)

	login, err := s.authService.Login(s.GetContext(), &dto.LoginRequest{
		Username: "ada",
		Password: "brand-new-horse",
	})
	s.NoError(err)
	s.NotEmpty(login.Token)
}

func (s *AuthServiceSuite) TestResetPasswordUnknownAccountIsSilent() {
	err := s.authService.ResetPassword(s.GetContext(), &dto.ResetPasswordRequest{
		Identifier: "ghost@example.com",
	})
	s.NoError(err)
	s.Empty(s.GetEmailSender().Sent)
}

func (s *AuthServiceSuite) TestResetPasswordRejectsSessionToken() {
	resp := s.signUp("ada", "ada@example.com")

	// A session token is not a step-up token
	_, err := s.authService.ResetPasswordFromToken(s.GetContext(), &dto.ResetPasswordFromTokenRequest{
		Token:       resp.Token,
		NewPassword: "brand-new-horse",
	})
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}
