package server

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/cover-letter/internal/schemas"
	"github.com/jonathan/cover-letter/internal/types"
)

// handleFeedback records a rating and optional comment. The client IP is not stored.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || schemas.ValidatePayload(schemas.Feedback, body) != nil {
		s.feedbackResponse(w, http.StatusBadRequest, types.FeedbackResponse{Error: MsgInvalidFeedback})
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		s.feedbackResponse(w, http.StatusBadRequest, types.FeedbackResponse{Error: MsgInvalidFeedback})
		return
	}

	comments, _ := raw["comments"].(string)
	fb := types.Feedback{
		Rating:    coerceRating(raw["rating"]),
		Comments:  comments,
		UserAgent: r.UserAgent(),
		Timestamp: time.Now().UTC(),
	}

	if err := s.sink.CollectFeedback(r.Context(), fb); err != nil {
		s.sink.LogError(err, "feedback")
		s.feedbackResponse(w, http.StatusInternalServerError, types.FeedbackResponse{Error: MsgFeedbackFailed})
		return
	}

	s.feedbackResponse(w, http.StatusOK, types.FeedbackResponse{Success: true, Message: MsgFeedbackThanks})
}

func (s *Server) feedbackResponse(w http.ResponseWriter, status int, resp types.FeedbackResponse) {
	s.jsonResponse(w, status, resp)
}

// coerceRating converts a loosely typed rating to a number. Numeric strings
// are parsed, true counts as 1 and anything unusable becomes 0.
func coerceRating(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if x {
			f = 1
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
