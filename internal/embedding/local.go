package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"docqa/internal/config"
	"docqa/internal/models"
)

// Local embeds through an in-process Ollama server, no credential required.
type Local struct {
	embedder  *embeddings.EmbedderImpl
	dimension int
	timeout   time.Duration
}

func NewLocal(cfg *config.EmbedConfig) (*Local, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, models.WrapError(models.ErrResource, "local embedder: init client", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, models.WrapError(models.ErrResource, "local embedder: init embedder", err)
	}
	return &Local{
		embedder:  embedder,
		dimension: cfg.Dimension,
		timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
	}, nil
}

func (l *Local) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	vector, err := l.embedder.EmbedQuery(ctx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, models.WrapError(models.ErrTransient, "embed text", err)
		}
		// Anything else here means the model assets or server are missing.
		return nil, models.WrapError(models.ErrResource, "embed text", err)
	}
	return vector, nil
}

func (l *Local) Dimension() int { return l.dimension }

func (l *Local) Mode() string { return ModeLocal }

// NewProvider selects the provider variant once per session.
func NewProvider(cfg *config.EmbedConfig) (Provider, error) {
	if cfg.Provider == ModeLocal {
		return NewLocal(cfg)
	}
	return NewRemote(cfg)
}
