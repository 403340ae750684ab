package types

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Auth form error messages.
const (
	MsgLoginRequired    = "Email and password are required"
	MsgAllFields        = "All fields are required"
	MsgPasswordMismatch = "Passwords do not match"
	MsgPasswordTooShort = "Password must be at least 8 characters"
	MsgEmailRequired    = "Email is required"
)

var validate = validator.New()

// LoginForm is the form body of POST /auth/login.
type LoginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
	Remember bool
}

// SignupForm is the form body of POST /auth/signup.
type SignupForm struct {
	Email           string `validate:"required"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// ForgotPasswordForm is the form body of POST /auth/forgot-password.
type ForgotPasswordForm struct {
	Email string `validate:"required"`
}

// ResetPasswordForm is the form body of POST /auth/reset-password.
type ResetPasswordForm struct {
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// Validate returns the user-facing message for the first failed rule, or nil.
func (f *LoginForm) Validate() error {
	if err := validate.Struct(f); err != nil {
		return errors.New(MsgLoginRequired)
	}
	return nil
}

// Validate returns the user-facing message for the first failed rule, or nil.
func (f *SignupForm) Validate() error {
	return passwordFormError(validate.Struct(f))
}

// Validate returns the user-facing message for the first failed rule, or nil.
func (f *ForgotPasswordForm) Validate() error {
	if err := validate.Struct(f); err != nil {
		return errors.New(MsgEmailRequired)
	}
	return nil
}

// Validate returns the user-facing message for the first failed rule, or nil.
func (f *ResetPasswordForm) Validate() error {
	return passwordFormError(validate.Struct(f))
}

// passwordFormError reports missing fields first, then a mismatch, then length.
func passwordFormError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	seen := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		seen[fe.Tag()] = true
	}
	switch {
	case seen["required"]:
		return errors.New(MsgAllFields)
	case seen["eqfield"]:
		return errors.New(MsgPasswordMismatch)
	case seen["min"]:
		return errors.New(MsgPasswordTooShort)
	}
	return errors.New(MsgAllFields)
}
