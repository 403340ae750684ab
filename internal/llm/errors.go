package llm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Sentinel errors callers branch on with errors.Is.
var (
	ErrNoCredentials = errors.New("upstream credential not configured")
	ErrUnauthorized  = errors.New("upstream rejected credentials")
	ErrRateLimited   = errors.New("upstream rate limit exceeded")
)

// classify wraps provider errors that callers must distinguish from
// ordinary upstream failures. Anything else is returned wrapped as is.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		return fmt.Errorf("upstream request failed: %w", err)
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		case codes.ResourceExhausted:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}
	return fmt.Errorf("upstream request failed: %w", err)
}
