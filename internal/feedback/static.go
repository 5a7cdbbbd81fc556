package feedback

import (
	"context"

	"sip-go/internal/sip"
)

// Static is an offline coach that picks a canned message by progress.
type Static struct{}

func (Static) GenerateFeedback(ctx context.Context, intakeMl int64, goalMl int64) (string, error) {
	switch {
	case intakeMl < 500:
		return "🌵 You are basically a cactus. Drink water! 🥤", nil
	case intakeMl < 1500:
		return "📉 Decent start, but don't slack off. 👀", nil
	case intakeMl < goalMl:
		return "🚀 Almost there! Keep going! 💧", nil
	default:
		return "🌊 You are a Hydration God! 🔱", nil
	}
}

// Unavailable always answers with a fixed notice, for a coach that is
// configured but cannot run (a missing API key).
type Unavailable struct {
	Message string
}

func (u Unavailable) GenerateFeedback(ctx context.Context, intakeMl int64, goalMl int64) (string, error) {
	return u.Message, nil
}

var (
	_ sip.FeedbackGenerator = Static{}
	_ sip.FeedbackGenerator = Unavailable{}
)
