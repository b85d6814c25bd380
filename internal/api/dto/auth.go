package dto

import (
	"github.com/go-playground/validator/v10"
)

type SignUpRequest struct {
	Username  string `json:"username" binding:"required" validate:"required,min=3,max=30"`
	FirstName string `json:"first_name" binding:"required" validate:"required"`
	LastName  string `json:"last_name" binding:"required" validate:"required"`
	Email     string `json:"email" binding:"required,email" validate:"required,email"`
	Password  string `json:"password" binding:"required,min=8" validate:"required,min=8"`
}

type LoginRequest struct {
	// Username also accepts the account email
	Username string `json:"username" binding:"required" validate:"required"`
	Password string `json:"password" binding:"required" validate:"required"`
}

type AuthResponse struct {
	// Token is empty when the password did not match
	Token     string `json:"token"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

type ResetPasswordRequest struct {
	// Identifier is a username or an email
	Identifier string `json:"identifier" binding:"required" validate:"required"`
}

type ResetPasswordFromTokenRequest struct {
	Token       string `json:"token" binding:"required" validate:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8" validate:"required,min=8"`
}

func (r *SignUpRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *LoginRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *ResetPasswordRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *ResetPasswordFromTokenRequest) Validate() error {
	return validator.New().Struct(r)
}
