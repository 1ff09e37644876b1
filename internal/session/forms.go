package session

import (
	"strings"

	"github.com/angelmondragon/stylinx-storefront/pkg/validation"
)

// LoginForm is the login screen input.
type LoginForm struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupForm is the signup screen input.
type SignupForm struct {
	FullName        string `json:"fullName" validate:"required"`
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

var formMessages = validation.Messages{
	"fullName.required":       "Please enter your full name",
	"email.required":          "Please enter your email",
	"password.required":       "Please enter your password",
	"password.min":            "Password must be at least 6 characters",
	"confirmPassword.eqfield": "Passwords do not match",
}

// Normalize trims the email. Passwords are taken as typed.
func (f LoginForm) Normalize() LoginForm {
	f.Email = strings.TrimSpace(f.Email)
	return f
}

// Validate reports the first problem in screen order.
func (f LoginForm) Validate() error {
	return validation.Check(f.Normalize(), formMessages)
}

// Normalize trims the name and email. Passwords are taken as typed.
func (f SignupForm) Normalize() SignupForm {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	return f
}

// Validate reports the first problem in screen order.
func (f SignupForm) Validate() error {
	return validation.Check(f.Normalize(), formMessages)
}
