package db

import (
	"context"
	"fmt"

	"github.com/jonathan/cover-letter/internal/types"
)

// SaveFeedback records a feedback submission.
func (db *DB) SaveFeedback(ctx context.Context, fb types.Feedback) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO feedback (rating, comments, user_agent, created_at) VALUES ($1, $2, $3, $4)`,
		fb.Rating, fb.Comments, fb.UserAgent, fb.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}
