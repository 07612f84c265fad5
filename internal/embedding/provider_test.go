package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/config"
	"docqa/internal/models"
)

func localConfig() *config.EmbedConfig {
	cfg := &config.Default().Embed
	cfg.Provider = "local"
	cfg.BaseURL = "http://localhost:11434"
	cfg.Model = "nomic-embed-text"
	return cfg
}

func TestNewRemoteMissingCredential(t *testing.T) {
	cfg := &config.Default().Embed
	cfg.APIKeyEnv = "DOCQA_TEST_MISSING_KEY"

	_, err := NewRemote(cfg)
	require.ErrorIs(t, err, models.ErrAuth)
	assert.Contains(t, err.Error(), "DOCQA_TEST_MISSING_KEY", "the error must name the variable to set")
}

func TestNewProviderSelectsVariant(t *testing.T) {
	provider, err := NewProvider(localConfig())
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, provider.Mode())
	assert.Equal(t, 768, provider.Dimension())

	remoteCfg := &config.Default().Embed
	remoteCfg.APIKeyEnv = "DOCQA_TEST_REMOTE_KEY"
	t.Setenv("DOCQA_TEST_REMOTE_KEY", "sk-test")
	remote, err := NewProvider(remoteCfg)
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, remote.Mode())
}

func TestClassifyRemote(t *testing.T) {
	assert.NoError(t, classifyRemote(nil))
	assert.ErrorIs(t, classifyRemote(context.DeadlineExceeded), models.ErrTransient)
	assert.ErrorIs(t, classifyRemote(gobreaker.ErrOpenState), models.ErrTransient)
	assert.ErrorIs(t, classifyRemote(gobreaker.ErrTooManyRequests), models.ErrTransient)
	assert.ErrorIs(t, classifyRemote(errors.New("API returned unexpected status code: 401")), models.ErrAuth)
	assert.ErrorIs(t, classifyRemote(errors.New("Incorrect API key provided")), models.ErrAuth)
	assert.ErrorIs(t, classifyRemote(errors.New("connection refused")), models.ErrTransient)
}
