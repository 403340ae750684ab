package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jonathan/cover-letter/internal/letters"
	"github.com/jonathan/cover-letter/internal/schemas"
	"github.com/jonathan/cover-letter/internal/types"
	"github.com/jonathan/cover-letter/internal/validation"
)

// maxBodyBytes caps JSON request bodies. Two 10,000 character fields fit with room to spare.
const maxBodyBytes = 256 << 10

// LetterSourceHeader tells the client whether the model or the template wrote the letter.
const LetterSourceHeader = "X-Letter-Source"

// handleGenerateLetter runs Received, RateChecked, Validated, Generated and
// Responded in order. Each request ends in exactly one tracked outcome.
func (s *Server) handleGenerateLetter(w http.ResponseWriter, r *http.Request) {
	requestID := chimw.GetReqID(r.Context())
	clientID := extractClientID(r)
	s.sink.LogStage(requestID, "received", "ip", clientID)

	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.failGeneration(w, requestID, &UnknownError{Cause: fmt.Errorf("panic: %v", rec)})
		}
	}()

	allowed, info := s.limiter.Allow(clientID, r.URL.Path, r.Method)
	s.setRateLimitHeaders(w, info)
	if !allowed {
		s.failGeneration(w, requestID, &RateLimitError{})
		return
	}
	s.sink.LogStage(requestID, "rate_checked", "remaining", info.Remaining)

	input, err := s.decodeGeneration(w, r)
	if err != nil {
		s.failGeneration(w, requestID, err)
		return
	}
	s.sink.LogStage(requestID, "validated",
		"tone", string(input.Tone),
		"language", input.Language,
		"resumeChars", len([]rune(input.ResumeText)),
		"jobChars", len([]rune(input.JobDescription)),
	)

	result := s.generator.Generate(r.Context(), *input)
	if err := generationError(result); err != nil {
		s.failGeneration(w, requestID, err)
		return
	}

	attrs := []any{"source", result.Kind.String(), "chars", len([]rune(result.Text))}
	if result.Kind == letters.KindFellBack {
		attrs = append(attrs, "reason", string(result.Reason))
		if result.Err != nil {
			attrs = append(attrs, "cause", result.Err.Error())
		}
	}
	s.sink.LogStage(requestID, "generated", attrs...)

	s.sink.TrackSuccess()
	w.Header().Set(LetterSourceHeader, result.Kind.String())
	s.jsonResponse(w, http.StatusOK, types.GenerationResult{Success: true, Letter: result.Text})
	s.sink.LogStage(requestID, "responded", "status", http.StatusOK)
}

// decodeGeneration reads, shape-checks and validates the request body.
func (s *Server) decodeGeneration(w http.ResponseWriter, r *http.Request) (*types.LetterInput, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &ValidationError{Message: MsgInvalidJSON, Cause: err}
	}
	if err := schemas.ValidatePayload(schemas.GenerateLetter, body); err != nil {
		return nil, &ValidationError{Message: MsgInvalidJSON, Cause: err}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ValidationError{Message: MsgInvalidJSON, Cause: err}
	}

	input, err := validation.ValidateGeneration(raw)
	if err != nil {
		return nil, &ValidationError{Message: err.Error(), Cause: err}
	}
	return input, nil
}

// generationError maps a failed result onto the HTTP error taxonomy.
func generationError(result letters.Result) error {
	if result.OK() {
		return nil
	}
	if result.Kind != letters.KindFailed {
		return &GenerationEmptyError{Cause: letters.ErrEmptyResponse}
	}
	switch result.Failure {
	case letters.FailureAuthentication:
		return &AuthConfigError{Cause: result.Err}
	case letters.FailureUpstreamRateLimited:
		return &RateLimitError{Upstream: true, Cause: result.Err}
	case letters.FailureEmptyResponse:
		return &GenerationEmptyError{Cause: result.Err}
	default:
		return &UnknownError{Cause: result.Err}
	}
}

func (s *Server) failGeneration(w http.ResponseWriter, requestID string, err error) {
	status := HTTPStatus(err)
	s.sink.TrackFailure()
	logged := err
	if cause := errors.Unwrap(err); cause != nil {
		logged = fmt.Errorf("%w: %v", err, cause)
	}
	s.sink.LogError(logged, "generate-letter "+requestID)
	s.jsonResponse(w, status, types.GenerationResult{Success: false, Error: PublicMessage(err)})
	s.sink.LogStage(requestID, "responded", "status", status)
}
