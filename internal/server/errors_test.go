package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cause := errors.New("upstream said no")
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "ValidationError",
			err:         &ValidationError{Message: "Valid resume text is required"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Valid resume text is required",
		},
		{
			name:        "AuthConfigError",
			err:         &AuthConfigError{Cause: cause},
			wantStatus:  http.StatusPaymentRequired,
			wantMessage: "AI service requires API key configuration",
		},
		{
			name:        "local RateLimitError",
			err:         &RateLimitError{},
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: "Rate limit exceeded, please try again later",
		},
		{
			name:        "upstream RateLimitError",
			err:         &RateLimitError{Upstream: true, Cause: cause},
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: "Rate limit exceeded, please try again later",
		},
		{
			name:        "GenerationEmptyError",
			err:         &GenerationEmptyError{},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Failed to generate cover letter",
		},
		{
			name:        "UnknownError",
			err:         &UnknownError{Cause: cause},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "wrapped",
			err:         fmt.Errorf("handler: %w", &AuthConfigError{}),
			wantStatus:  http.StatusPaymentRequired,
			wantMessage: "AI service requires API key configuration",
		},
		{
			name:        "plain error hides details",
			err:         errors.New("pq: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, HTTPStatus(tt.err))
			assert.Equal(t, tt.wantMessage, PublicMessage(tt.err))
		})
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("root")
	for _, err := range []error{
		&ValidationError{Message: "x", Cause: cause},
		&AuthConfigError{Cause: cause},
		&RateLimitError{Cause: cause},
		&GenerationEmptyError{Cause: cause},
		&UnknownError{Cause: cause},
	} {
		assert.ErrorIs(t, err, cause)
	}
}
