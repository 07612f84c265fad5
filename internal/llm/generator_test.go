package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/config"
	"docqa/internal/models"
)

func TestNewGeneratorMissingCredential(t *testing.T) {
	cfg := &config.Default().Gen
	cfg.APIKeyEnv = "DOCQA_TEST_GEN_KEY_UNSET"

	_, err := NewGenerator(cfg)
	require.ErrorIs(t, err, models.ErrAuth)
	assert.Contains(t, err.Error(), "DOCQA_TEST_GEN_KEY_UNSET")
}

func TestNewGeneratorLocal(t *testing.T) {
	cfg := &config.Default().Gen
	cfg.Provider = "local"
	cfg.BaseURL = "http://localhost:11434"
	cfg.Model = "llama3"

	_, err := NewGenerator(cfg)
	require.NoError(t, err)
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify(context.DeadlineExceeded), models.ErrTransient)
	assert.ErrorIs(t, classify(errors.New("status 401 Unauthorized")), models.ErrAuth)
	assert.ErrorIs(t, classify(errors.New("dial tcp: connection refused")), models.ErrTransient)
}

func TestParamsFromConfig(t *testing.T) {
	cfg := &config.Default().Gen
	params := ParamsFromConfig(cfg)
	assert.Equal(t, cfg.MaxTokens, params.MaxTokens)
	assert.Equal(t, cfg.Temperature, params.Temperature)
	assert.Equal(t, cfg.TopP, params.TopP)
	assert.Equal(t, cfg.RepetitionPenalty, params.RepetitionPenalty)
	assert.Equal(t, time.Duration(cfg.TimeoutSecs)*time.Second, params.Timeout)
}
