package service

import (
	"context"

	"github.com/splitsub/splitsub/internal/api/dto"
	"github.com/splitsub/splitsub/internal/auth"
	"github.com/splitsub/splitsub/internal/domain/user"
	ierr "github.com/splitsub/splitsub/internal/errors"
)

type UserService interface {
	Me(ctx context.Context, username string) (*dto.UserResponse, error)
	ChangeEmail(ctx context.Context, username string, req *dto.ChangeEmailRequest) (*dto.UserResponse, error)
	ChangeUsername(ctx context.Context, username string, req *dto.ChangeUsernameRequest) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, username string, req *dto.ChangePasswordRequest) error
}

type userService struct {
	ServiceParams
}

func NewUserService(params ServiceParams) UserService {
	return &userService{ServiceParams: params}
}

func (s *userService) Me(ctx context.Context, username string) (*dto.UserResponse, error) {
	u, err := s.UserRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &dto.UserResponse{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}, nil
}

func (s *userService) ChangeEmail(ctx context.Context, username string, req *dto.ChangeEmailRequest) (*dto.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.checkPassword(ctx, username, req.Password)
	if err != nil {
		return nil, err
	}

	newEmail := user.NormalizeEmail(req.NewEmail)
	if newEmail == u.Email {
		return nil, ierr.NewError("email unchanged").
			WithHint("The new email is the same as the current one").
			Mark(ierr.ErrValidation)
	}

	if err := s.UserRepo.UpdateEmail(ctx, username, newEmail); err != nil {
		return nil, err
	}

	// The verification link carries a short-lived step-up token
	token, err := s.Tokens.IssueVerifyToken(username)
	if err != nil {
		return nil, err
	}
	s.Email.SendVerificationCode(ctx, newEmail, username, token)

	s.Logger.Infow("email changed", "username", username)
	return &dto.UserResponse{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     newEmail,
	}, nil
}

// ChangeUsername renames the account. The old session token names the old
// username, so a fresh token is returned.
func (s *userService) ChangeUsername(ctx context.Context, username string, req *dto.ChangeUsernameRequest) (*dto.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.checkPassword(ctx, username, req.Password)
	if err != nil {
		return nil, err
	}

	newUsername := user.NormalizeUsername(req.NewUsername)
	if newUsername == u.Username {
		return nil, ierr.NewError("username unchanged").
			WithHint("The new username is the same as the current one").
			Mark(ierr.ErrValidation)
	}

	if err := s.UserRepo.UpdateUsername(ctx, username, newUsername); err != nil {
		return nil, err
	}

	token, err := s.Tokens.IssueSessionToken(newUsername)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("username changed", "username", username, "new_username", newUsername)
	return &dto.UserResponse{
		Username:  newUsername,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Token:     token,
	}, nil
}

func (s *userService) ChangePassword(ctx context.Context, username string, req *dto.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if _, err := s.checkPassword(ctx, username, req.CurrentPassword); err != nil {
		return err
	}

	digest, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.UserRepo.UpdatePassword(ctx, username, digest); err != nil {
		return err
	}

	s.Logger.Infow("password changed", "username", username)
	return nil
}

func (s *userService) checkPassword(ctx context.Context, username, password string) (*user.User, error) {
	u, err := s.UserRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.Password, password) {
		return nil, ierr.NewError("wrong password").
			WithHint("The password is incorrect").
			Mark(ierr.ErrValidation)
	}
	return u, nil
}
