// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	require.NoError(t, BindEnv(v))
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	want := types.DefaultConfig()
	assert.Equal(t, want, cfg)
	assert.Equal(t, 1, cfg.VectorDB.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.VectorDB.RetryDelay)
	assert.Equal(t, 3, cfg.VectorDB.MaxAttempts)
}

func TestOllamaBaseURLFromEnv(t *testing.T) {
	t.Setenv(BaseURLEnv, "http://gpu-box:11434/")

	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.BaseURL)
}

func TestPrefixedEnvOverride(t *testing.T) {
	t.Setenv("BRAINSTORM_MODELS_GENERATOR", "qwen3:8b")
	t.Setenv("BRAINSTORM_VECTOR_DB_RETRY_DELAY", "250ms")

	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, "qwen3:8b", cfg.Models.Generator)
	assert.Equal(t, 250*time.Millisecond, cfg.VectorDB.RetryDelay)
}

func TestYAMLFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topic-brainstorm.yaml")
	body := "models:\n  evaluator: llama3:8b\nvector_db:\n  batch_size: 8\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "llama3:8b", cfg.Models.Evaluator)
	assert.Equal(t, 8, cfg.VectorDB.BatchSize)
	assert.Equal(t, "nomic-embed-text:latest", cfg.Models.Embedding)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("BRAINSTORM_DOTENV_PROBE=from-file\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("BRAINSTORM_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("BRAINSTORM_DOTENV_PROBE"))
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.Config)
		wantErr string
	}{
		{"defaults ok", func(*types.Config) {}, ""},
		{"zero batch", func(c *types.Config) { c.VectorDB.BatchSize = 0 }, "batch_size"},
		{"no generator", func(c *types.Config) { c.Models.Generator = "" }, "models.generator"},
		{"negative delay", func(c *types.Config) { c.VectorDB.RetryDelay = -time.Second }, "retry_delay"},
		{"zero topics", func(c *types.Config) { c.Generation.TopicCount = 0 }, "topic_count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := types.DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
