package dto

import (
	"github.com/go-playground/validator/v10"
)

type ChangeEmailRequest struct {
	NewEmail string `json:"new_email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

type ChangeUsernameRequest struct {
	NewUsername string `json:"new_username" binding:"required" validate:"required,min=3,max=30"`
	Password    string `json:"password" binding:"required" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required" validate:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8" validate:"required,min=8"`
}

type UserResponse struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	// Token is set when the operation invalidates the previous session
	Token string `json:"token,omitempty"`
}

func (r *ChangeEmailRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *ChangeUsernameRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *ChangePasswordRequest) Validate() error {
	return validator.New().Struct(r)
}
