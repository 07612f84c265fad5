package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
	"docqa/internal/models"
)

// Params control one generation call.
type Params struct {
	MaxTokens         int
	Temperature       float64
	TopP              float64
	RepetitionPenalty float64
	Timeout           time.Duration
}

// Generator is the text-generation capability.
type Generator interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}

// LangchainGenerator generates through a langchaingo model, remote
// OpenAI-compatible or local Ollama.
type LangchainGenerator struct {
	model llms.Model
}

func NewGenerator(cfg *config.GenConfig) (*LangchainGenerator, error) {
	var model llms.Model
	var err error
	switch cfg.Provider {
	case "local":
		model, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, models.WrapError(models.ErrResource, "generator: init ollama client", err)
		}
	default:
		key := cfg.APIKey()
		if key == "" {
			return nil, models.WrapError(models.ErrAuth,
				"generator: missing credential, set "+cfg.APIKeyEnv+" to your API key", nil)
		}
		model, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, models.WrapError(models.ErrConfiguration, "generator: init client", err)
		}
	}
	return &LangchainGenerator{model: model}, nil
}

func (g *LangchainGenerator) Generate(ctx context.Context, promptText string, params Params) (string, error) {
	if params.Timeout <= 0 {
		params.Timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, params.Timeout)
	defer cancel()

	completion, err := llms.GenerateFromSinglePrompt(ctx, g.model, promptText,
		llms.WithMaxTokens(params.MaxTokens),
		llms.WithTemperature(params.Temperature),
		llms.WithTopP(params.TopP),
		llms.WithRepetitionPenalty(params.RepetitionPenalty),
	)
	if err != nil {
		return "", models.WrapError(classify(err), "generate answer", err)
	}
	return completion, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.ErrTransient
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "invalid api key") || strings.Contains(msg, "incorrect api key") {
		return models.ErrAuth
	}
	return models.ErrTransient
}

// ParamsFromConfig maps the configured sampling settings onto call params.
func ParamsFromConfig(cfg *config.GenConfig) Params {
	return Params{
		MaxTokens:         cfg.MaxTokens,
		Temperature:       cfg.Temperature,
		TopP:              cfg.TopP,
		RepetitionPenalty: cfg.RepetitionPenalty,
		Timeout:           time.Duration(cfg.TimeoutSecs) * time.Second,
	}
}
