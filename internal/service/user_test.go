package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/splitsub/splitsub/internal/api/dto"
	"github.com/splitsub/splitsub/internal/auth"
	"github.com/splitsub/splitsub/internal/domain/user"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/testutil"
)

type UserServiceSuite struct {
	testutil.BaseServiceTestSuite
	userService UserService
}

func TestUserService(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.userService = NewUserService(newTestParams(&s.BaseServiceTestSuite))

	digest, err := auth.HashPassword("correct-horse")
	s.Require().NoError(err)
	u := user.NewUser("ada", "Ada", "Lovelace", "ada@example.com", digest, "cus_ada")
	s.Require().NoError(s.GetStores().UserRepo.Create(s.GetContext(), u))
}

func (s *UserServiceSuite) TestMe() {
	resp, err := s.userService.Me(s.GetContext(), "ada")
	s.NoError(err)
	s.Equal("ada", resp.Username)
	s.Equal("ada@example.com", resp.Email)
	s.Empty(resp.Token)
}

func (s *UserServiceSuite) TestChangeEmail() {
	resp, err := s.userService.ChangeEmail(s.GetContext(), "ada", &dto.ChangeEmailRequest{
		NewEmail: "Ada.L@example.com",
		Password: "correct-horse",
	})
	s.NoError(err)
	s.Equal("ada.l@example.com", resp.Email)

	u, err := s.GetStores().UserRepo.GetByUsername(s.GetContext(), "ada")
	s.NoError(err)
	s.Equal("ada.l@example.com", u.Email)

	// A verification link goes to the new address
	sent := s.GetEmailSender().ByKind("verification")
	s.Require().Len(sent, 1)
	s.Equal("ada.l@example.com", sent[0].To)
	s.NotEmpty(sent[0].Token)
}

func (s *UserServiceSuite) TestChangeEmailWrongPassword() {
	_, err := s.userService.ChangeEmail(s.GetContext(), "ada", &dto.ChangeEmailRequest{
		NewEmail: "new@example.com",
		Password: "wrong-horse",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Empty(s.GetEmailSender().Sent)
}

func (s *UserServiceSuite) TestChangeEmailToSameAddress() {
	_, err := s.userService.ChangeEmail(s.GetContext(), "ada", &dto.ChangeEmailRequest{
		NewEmail: "ADA@example.com",
		Password: "correct-horse",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *UserServiceSuite) TestChangeUsernameReturnsFreshToken() {
	resp, err := s.userService.ChangeUsername(s.GetContext(), "ada", &dto.ChangeUsernameRequest{
		NewUsername: "Countess",
		Password:    "correct-horse",
	})
	s.NoError(err)
	s.Equal("countess", resp.Username)
	s.NotEmpty(resp.Token, "the old session names the old username")

	_, err = s.GetStores().UserRepo.GetByUsername(s.GetContext(), "ada")
	s.True(ierr.IsNotFound(err))
	u, err := s.GetStores().UserRepo.GetByUsername(s.GetContext(), "countess")
	s.NoError(err)
	s.Equal("ada@example.com", u.Email)
}

func (s *UserServiceSuite) TestChangePassword() {
	err := s.userService.ChangePassword(s.GetContext(), "ada", &dto.ChangePasswordRequest{
		CurrentPassword: "correct-horse",
		NewPassword:     "brand-new-horse",
	})
	s.NoError(err)

	u, err := s.GetStores().UserRepo.GetByUsername(s.GetContext(), "ada")
	s.NoError(err)
	s.True(auth.CheckPassword(u.Password, "brand-new-horse"))
	s.False(auth.CheckPassword(u.Password, "correct-horse"))
}

func (s *UserServiceSuite) TestChangePasswordWrongCurrent() {
	err := s.userService.ChangePassword(s.GetContext(), "ada", &dto.ChangePasswordRequest{
		CurrentPassword: "wrong-horse",
		NewPassword:     "brand-new-horse",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}
