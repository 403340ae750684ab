// Package server provides the HTTP API for the cover letter service.
package server

import (
	"errors"
	"net/http"
)

// User-facing messages.
const (
	MsgInvalidJSON       = "Invalid JSON payload"
	MsgRateLimited       = "Rate limit exceeded, please try again later"
	MsgAuthConfig        = "AI service requires API key configuration"
	MsgGenerationFailed  = "Failed to generate cover letter"
	MsgUnexpected        = "An unexpected error occurred"
	MsgInvalidFeedback   = "Invalid feedback data"
	MsgFeedbackFailed    = "Failed to process feedback"
	MsgFeedbackThanks    = "Thank you for your feedback!"
	MsgAuthUnavailable   = "Authentication service not available"
	MsgInvalidConfirm    = "Invalid confirmation link"
	MsgConfirmFailed     = "Confirmation failed"
	MsgPasswordUpdate    = "Password update failed"
	MsgSessionMissing    = "Auth session missing!"
	MsgResetEmailSent    = "Password reset email sent. Please check your inbox."
	MsgDemoResetEmail    = "Demo mode: Password reset email sent. (Authentication service not configured)"
	MsgDemoPasswordReset = "Demo mode: Password updated successfully! (Authentication service not configured)"
)

// ValidationError is a rejected request body. Message is shown to the client.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Cause }

// AuthConfigError means the upstream model rejected the configured credential.
type AuthConfigError struct {
	Cause error
}

func (e *AuthConfigError) Error() string { return MsgAuthConfig }

func (e *AuthConfigError) Unwrap() error { return e.Cause }

// RateLimitError is a request refused by the local limiter or by the upstream model.
type RateLimitError struct {
	Upstream bool
	Cause    error
}

func (e *RateLimitError) Error() string { return MsgRateLimited }

func (e *RateLimitError) Unwrap() error { return e.Cause }

// GenerationEmptyError means the upstream model answered with no text.
type GenerationEmptyError struct {
	Cause error
}

func (e *GenerationEmptyError) Error() string { return MsgGenerationFailed }

func (e *GenerationEmptyError) Unwrap() error { return e.Cause }

// UnknownError wraps anything unexpected, including recovered panics.
type UnknownError struct {
	Cause error
}

func (e *UnknownError) Error() string { return MsgUnexpected }

func (e *UnknownError) Unwrap() error { return e.Cause }

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ValidationError
		authErr       *AuthConfigError
		rateErr       *RateLimitError
		emptyErr      *GenerationEmptyError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &authErr):
		return http.StatusPaymentRequired
	case errors.As(err, &rateErr):
		return http.StatusTooManyRequests
	case errors.As(err, &emptyErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to send to the client for err.
func PublicMessage(err error) string {
	var (
		validationErr *ValidationError
		authErr       *AuthConfigError
		rateErr       *RateLimitError
		emptyErr      *GenerationEmptyError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &authErr):
		return MsgAuthConfig
	case errors.As(err, &rateErr):
		return MsgRateLimited
	case errors.As(err, &emptyErr):
		return MsgGenerationFailed
	default:
		return MsgUnexpected
	}
}
