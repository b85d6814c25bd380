package service

import (
	"context"

	"github.com/splitsub/splitsub/internal/api/dto"
	"github.com/splitsub/splitsub/internal/auth"
	"github.com/splitsub/splitsub/internal/domain/user"
	ierr "github.com/splitsub/splitsub/internal/errors"
)

type AuthService interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
	ResetPasswordFromToken(ctx context.Context, req *dto.ResetPasswordFromTokenRequest) (*dto.AuthResponse, error)
}

type authService struct {
	ServiceParams
}

func NewAuthService(params ServiceParams) AuthService {
	return &authService{ServiceParams: params}
}

func (s *authService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	username := user.NormalizeUsername(req.Username)
	emailAddr := user.NormalizeEmail(req.Email)

	// Username collision is reported before email collision
	usernameTaken, emailTaken, err := s.UserRepo.CheckExists(ctx, username, emailAddr)
	if err != nil {
		return nil, err
	}
	if usernameTaken {
		return nil, ierr.NewError("username already exists").
			WithHintf("The username %s is already taken", username).
			Mark(ierr.ErrAlreadyExists)
	}
	if emailTaken {
		return nil, ierr.NewError("email already exists").
			WithHint("An account with this email already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	digest, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := user.NewUser(username, req.FirstName, req.LastName, emailAddr, digest, "")

	customerID, err := s.Gateway.CreateCustomer(ctx, u.FullName(), emailAddr)
	if err != nil {
		return nil, err
	}
	u.StripeCustomerID = customerID

	if err := s.UserRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	token, err := s.Tokens.IssueSessionToken(username)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("user signed up", "username", username)
	return &dto.AuthResponse{
		Token:     token,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.UserRepo.GetByUsernameOrEmail(ctx, req.Username)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewError("unknown account").
				WithHint("This username does not exist").
				Mark(ierr.ErrValidation)
		}
		return nil, err
	}

	// A wrong password is not an error: the response simply carries no
	// token, so the two negative paths stay distinguishable
	if !auth.CheckPassword(u.Password, req.Password) {
		return &dto.AuthResponse{}, nil
	}

	token, err := s.Tokens.IssueSessionToken(u.Username)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token:     token,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}, nil
}

// ResetPassword emails a reset link. Unknown accounts succeed silently so
// the endpoint does not reveal which accounts exist.
func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	u, err := s.UserRepo.GetByUsernameOrEmail(ctx, req.Identifier)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Debugw("password reset requested for unknown account", "identifier", req.Identifier)
			return nil
		}
		return err
	}

	token, err := s.Tokens.IssueVerifyToken(u.Username)
	if err != nil {
		return err
	}

	s.Email.SendPasswordReset(ctx, u.Email, u.Username, token)
	return nil
}

func (s *authService) ResetPasswordFromToken(ctx context.Context, req *dto.ResetPasswordFromTokenRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.Tokens.ValidateVerifyToken(req.Token)
	if err != nil {
		return nil, err
	}

	digest, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.UserRepo.UpdatePassword(ctx, claims.Username, digest); err != nil {
		return nil, err
	}

	token, err := s.Tokens.IssueSessionToken(claims.Username)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("password reset completed", "username", claims.Username)
	return &dto.AuthResponse{Token: token, Username: claims.Username}, nil
}
