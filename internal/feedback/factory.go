package feedback

import (
	"fmt"

	"sip-go/internal/config"
	"sip-go/internal/sip"
)

// MissingKeyMessage is returned by the openai coach when no API key is configured.
const MissingKeyMessage = "⚠️ AI key missing. Set SIP_FEEDBACK_API_KEY or feedback.api_key."

// NewGeneratorFromConfig creates a FeedbackGenerator based on the feedback config type.
// Type "none" (or empty) returns a nil generator.
func NewGeneratorFromConfig(cfg config.FeedbackConfig) (sip.FeedbackGenerator, error) {
	switch cfg.Type {
	case "openai":
		if cfg.APIKey == "" {
			return Unavailable{Message: MissingKeyMessage}, nil
		}
		coach, err := NewOpenAICoach(cfg)
		if err != nil {
			return nil, err
		}
		return coach, nil
	case "static":
		return Static{}, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown feedback type: %s", cfg.Type)
	}
}
