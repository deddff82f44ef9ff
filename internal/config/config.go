// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config builds the single types.Config used by every component.
// Values come from compiled-in defaults, an optional YAML file, a .env file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// EnvPrefix prefixes environment overrides (e.g. BRAINSTORM_MODELS_GENERATOR).
const EnvPrefix = "BRAINSTORM"

// BaseURLEnv overrides the Ollama base URL.
const BaseURLEnv = "OLLAMA_BASE_URL"

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error. Variables already set are left untouched.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// SetDefaults registers every key of types.DefaultConfig on v so that
// AutomaticEnv can override it and Unmarshal sees all fields.
func SetDefaults(v *viper.Viper) {
	d := types.DefaultConfig()

	v.SetDefault("ollama.base_url", d.Ollama.BaseURL)
	v.SetDefault("ollama.timeout", d.Ollama.Timeout)

	v.SetDefault("models.embedding", d.Models.Embedding)
	v.SetDefault("models.generator", d.Models.Generator)
	v.SetDefault("models.evaluator", d.Models.Evaluator)
	v.SetDefault("models.translator", d.Models.Translator)
	v.SetDefault("models.generator_temperature", d.Models.GeneratorTemperature)
	v.SetDefault("models.evaluator_temperature", d.Models.EvaluatorTemperature)
	v.SetDefault("models.translator_temperature", d.Models.TranslatorTemperature)
	v.SetDefault("models.generator_keep_alive", d.Models.GeneratorKeepAlive)

	v.SetDefault("collector.api_url", d.Collector.APIURL)
	v.SetDefault("collector.email", d.Collector.Email)
	v.SetDefault("collector.paper_limit", d.Collector.PaperLimit)
	v.SetDefault("collector.authors_limit", d.Collector.AuthorsLimit)
	v.SetDefault("collector.institutions_limit", d.Collector.InstitutionsLimit)
	v.SetDefault("collector.csv_dir", d.Collector.CSVDir)

	v.SetDefault("vector_db.persist_dir", d.VectorDB.PersistDir)
	v.SetDefault("vector_db.collection", d.VectorDB.Collection)
	v.SetDefault("vector_db.batch_size", d.VectorDB.BatchSize)
	v.SetDefault("vector_db.search_k", d.VectorDB.SearchK)
	v.SetDefault("vector_db.max_attempts", d.VectorDB.MaxAttempts)
	v.SetDefault("vector_db.retry_delay", d.VectorDB.RetryDelay)
	v.SetDefault("vector_db.abstract_limit", d.VectorDB.AbstractLimit)

	v.SetDefault("generation.topic_count", d.Generation.TopicCount)
	v.SetDefault("generation.latest_papers", d.Generation.LatestPapers)

	v.SetDefault("report.output_dir", d.Report.OutputDir)
	v.SetDefault("report.language", d.Report.Language)

	v.SetDefault("dashboard.addr", d.Dashboard.Addr)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.mode", d.Log.Mode)
}

// BindEnv wires the environment into v: BRAINSTORM_<SECTION>_<KEY> for all
// keys, and OLLAMA_BASE_URL for the model host.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v.BindEnv("ollama.base_url", BaseURLEnv, EnvPrefix+"_OLLAMA_BASE_URL")
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Ollama.BaseURL = strings.TrimRight(cfg.Ollama.BaseURL, "/")
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func Validate(cfg types.Config) error {
	var problems []string
	if cfg.Ollama.BaseURL == "" {
		problems = append(problems, "ollama.base_url is empty")
	}
	if cfg.Models.Embedding == "" {
		problems = append(problems, "models.embedding is empty")
	}
	if cfg.Models.Generator == "" {
		problems = append(problems, "models.generator is empty")
	}
	if cfg.Models.Evaluator == "" {
		problems = append(problems, "models.evaluator is empty")
	}
	if cfg.VectorDB.BatchSize <= 0 {
		problems = append(problems, "vector_db.batch_size must be positive")
	}
	if cfg.VectorDB.SearchK <= 0 {
		problems = append(problems, "vector_db.search_k must be positive")
	}
	if cfg.VectorDB.MaxAttempts <= 0 {
		problems = append(problems, "vector_db.max_attempts must be positive")
	}
	if cfg.VectorDB.RetryDelay < 0 {
		problems = append(problems, "vector_db.retry_delay must not be negative")
	}
	if cfg.Collector.PaperLimit <= 0 {
		problems = append(problems, "collector.paper_limit must be positive")
	}
	if cfg.Generation.TopicCount <= 0 {
		problems = append(problems, "generation.topic_count must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
