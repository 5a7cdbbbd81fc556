package sip

import (
	"context"
	"fmt"
)

// FeedbackGenerator produces a short coaching message for a day's intake.
// Implementations may call out to a remote text generator and may fail.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, intakeMl int64, goalMl int64) (string, error)
}

// FeedbackUnavailableMessage is shown when no generator is configured.
const FeedbackUnavailableMessage = "⚠️ Hydration coach is not configured."

// Feedback returns a coaching message for the user's intake on date (the server's
// today when empty). Generator failures become an informational message rather
// than an error; only bad input or storage failures are returned as errors.
func (s *SipService) Feedback(ctx context.Context, userID string, goal int64, date string) (string, error) {
	date, err := s.resolveToday(date)
	if err != nil {
		return "", err
	}
	goal, err = s.goalOrDefault(userID, goal)
	if err != nil {
		return "", err
	}
	total, err := s.database.SumIntakeForDate(userID, date)
	if err != nil {
		return "", fmt.Errorf("summing intake: %w", err)
	}

	if s.feedback == nil {
		return FeedbackUnavailableMessage, nil
	}
	message, err := s.feedback.GenerateFeedback(ctx, total, goal)
	if err != nil {
		s.logger.Warn("feedback generation failed", "user", userID, "error", err)
		return fmt.Sprintf("AI Error: %v", err), nil
	}
	return message, nil
}
