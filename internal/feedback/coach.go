package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/prompts"

	"sip-go/internal/config"
	"sip-go/internal/sip"
)

// Sampling defaults used when the config leaves them unset.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 150
)

const coachPrompt = `You are a friendly hydration coach. The user has consumed {{.intake}}ml of water today ({{.percentage}}% of their {{.goal}}ml goal).
Give a brief, encouraging message about their hydration status.
Use emojis and keep it under 2 sentences.`

// Coach generates feedback with an LLM chain.
type Coach struct {
	chain       *chains.LLMChain
	temperature float64
	maxTokens   int
}

// NewCoach builds a coach over any langchaingo model. Non-positive sampling
// settings fall back to the defaults.
func NewCoach(llm llms.Model, temperature float64, maxTokens int) *Coach {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	chain := chains.NewLLMChain(
		llm,
		prompts.NewPromptTemplate(coachPrompt, []string{"intake", "goal", "percentage"}),
	)
	return &Coach{chain: chain, temperature: temperature, maxTokens: maxTokens}
}

// NewOpenAICoach builds a coach against an OpenAI-compatible endpoint.
func NewOpenAICoach(cfg config.FeedbackConfig) (*Coach, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return NewCoach(llm, cfg.Temperature, cfg.MaxTokens), nil
}

func (c *Coach) GenerateFeedback(ctx context.Context, intakeMl int64, goalMl int64) (string, error) {
	input := map[string]any{
		"intake":     intakeMl,
		"goal":       goalMl,
		"percentage": fmt.Sprintf("%.0f", percentOf(intakeMl, goalMl)),
	}

	result, err := chains.Call(ctx, c.chain, input,
		chains.WithTemperature(c.temperature),
		chains.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("calling chain: %w", err)
	}

	text, ok := result[c.chain.OutputKey].(string)
	if !ok {
		return "", fmt.Errorf("unexpected chain output: %v", result)
	}
	return strings.TrimSpace(text), nil
}

func percentOf(intakeMl, goalMl int64) float64 {
	if goalMl <= 0 {
		return 0
	}
	return float64(intakeMl) / float64(goalMl) * 100
}

var _ sip.FeedbackGenerator = (*Coach)(nil)
