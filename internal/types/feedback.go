package types

import "time"

// FeedbackRequest is the JSON body of POST /api/feedback.
type FeedbackRequest struct {
	Rating   float64 `json:"rating"`
	Comments string  `json:"comments,omitempty"`
}

// Feedback is a feedback submission ready to be recorded.
// It never carries the client IP.
type Feedback struct {
	Rating    float64   `json:"rating"`
	Comments  string    `json:"comments,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FeedbackResponse is the JSON response of POST /api/feedback.
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
