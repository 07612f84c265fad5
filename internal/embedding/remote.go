package embedding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
	"docqa/internal/models"
)

// Remote embeds through an OpenAI-compatible endpoint. Calls run behind a
// circuit breaker so a flapping service fails fast instead of hammering it.
type Remote struct {
	embedder  *embeddings.EmbedderImpl
	breaker   *gobreaker.CircuitBreaker[[]float32]
	dimension int
	timeout   time.Duration
}

func NewRemote(cfg *config.EmbedConfig) (*Remote, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, models.WrapError(models.ErrAuth,
			"remote embedder: missing credential, set "+cfg.APIKeyEnv+" to your API key", nil)
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(key, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, models.WrapError(models.ErrConfiguration, "remote embedder: init client", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, models.WrapError(models.ErrConfiguration, "remote embedder: init embedder", err)
	}

	breaker := gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
		Name:        "remote-embed",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		IsSuccessful: func(err error) bool {
			// Auth failures are not the service's fault; they must not trip
			// the breaker, they need a credential fix.
			return err == nil || errors.Is(classifyRemote(err), models.ErrAuth)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	return &Remote{
		embedder:  embedder,
		breaker:   breaker,
		dimension: cfg.Dimension,
		timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
	}, nil
}

func (r *Remote) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vector, err := r.breaker.Execute(func() ([]float32, error) {
		return r.embedder.EmbedQuery(ctx, text)
	})
	if err != nil {
		return nil, models.WrapError(classifyRemote(err), "embed text", err)
	}
	return vector, nil
}

func (r *Remote) Dimension() int { return r.dimension }

func (r *Remote) Mode() string { return ModeRemote }

// classifyRemote maps transport failures onto the error taxonomy.
func classifyRemote(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return models.ErrTransient
	}
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
