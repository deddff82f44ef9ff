// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// OllamaConfig holds settings for the model-serving host.
type OllamaConfig struct {
	// BaseURL is the root URL of the Ollama server (e.g. "http://localhost:11434").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds a single non-streaming request. Zero disables the limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// ModelConfig names the models used by each stage and their sampling settings.
type ModelConfig struct {
	Embedding  string `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Generator  string `json:"generator" yaml:"generator" mapstructure:"generator"`
	Evaluator  string `json:"evaluator" yaml:"evaluator" mapstructure:"evaluator"`
	Translator string `json:"translator" yaml:"translator" mapstructure:"translator"`

	GeneratorTemperature  float64 `json:"generator_temperature" yaml:"generator_temperature" mapstructure:"generator_temperature"`
	EvaluatorTemperature  float64 `json:"evaluator_temperature" yaml:"evaluator_temperature" mapstructure:"evaluator_temperature"`
	TranslatorTemperature float64 `json:"translator_temperature" yaml:"translator_temperature" mapstructure:"translator_temperature"`

	// GeneratorKeepAlive keeps the generator resident between calls (e.g. "5m").
	GeneratorKeepAlive string `json:"generator_keep_alive" yaml:"generator_keep_alive" mapstructure:"generator_keep_alive"`
}

// TranslatorModel returns the translator model, falling back to the evaluator.
func (m ModelConfig) TranslatorModel() string {
	if m.Translator != "" {
		return m.Translator
	}
	return m.Evaluator
}

// CollectorConfig holds settings for paper collection from OpenAlex.
type CollectorConfig struct {
	// APIURL is the OpenAlex works endpoint.
	APIURL string `json:"api_url" yaml:"api_url" mapstructure:"api_url"`

	// Email is sent in the User-Agent for polite pool access.
	Email string `json:"email" yaml:"email" mapstructure:"email"`

	// PaperLimit is the default number of papers requested (per-page).
	PaperLimit int `json:"paper_limit" yaml:"paper_limit" mapstructure:"paper_limit"`

	// AuthorsLimit caps the authorships considered per paper.
	AuthorsLimit int `json:"authors_limit" yaml:"authors_limit" mapstructure:"authors_limit"`

	// InstitutionsLimit caps the deduplicated institutions kept per paper.
	InstitutionsLimit int `json:"institutions_limit" yaml:"institutions_limit" mapstructure:"institutions_limit"`

	// CSVDir receives the timestamped paper snapshots.
	CSVDir string `json:"csv_dir" yaml:"csv_dir" mapstructure:"csv_dir"`
}

// VectorDBConfig holds settings for the persisted vector store.
type VectorDBConfig struct {
	PersistDir string `json:"persist_dir" yaml:"persist_dir" mapstructure:"persist_dir"`
	Collection string `json:"collection" yaml:"collection" mapstructure:"collection"`

	// BatchSize is the number of documents inserted per attempt.
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// SearchK is the default number of neighbours returned by retrieval.
	SearchK int `json:"search_k" yaml:"search_k" mapstructure:"search_k"`

	// MaxAttempts bounds insertion attempts per batch.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// RetryDelay is the fixed pause between insertion attempts.
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`

	// AbstractLimit truncates abstracts before embedding.
	AbstractLimit int `json:"abstract_limit" yaml:"abstract_limit" mapstructure:"abstract_limit"`
}

// GenerationConfig holds settings for topic generation.
type GenerationConfig struct {
	TopicCount int `json:"topic_count" yaml:"topic_count" mapstructure:"topic_count"`

	// LatestPapers is the size of the state-of-the-art digest.
	LatestPapers int `json:"latest_papers" yaml:"latest_papers" mapstructure:"latest_papers"`
}

// ReportConfig holds settings for report output.
type ReportConfig struct {
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Language is the translation target. Empty skips translation.
	Language string `json:"language" yaml:"language" mapstructure:"language"`
}

// DashboardConfig holds settings for the HTTP dashboard.
type DashboardConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// LogConfig selects the logger level and encoder.
type LogConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
	// Mode is "development" (console) or "production" (JSON).
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`
}

// Config groups all settings. It is built once at startup and passed to
// each component constructor.
type Config struct {
	Ollama     OllamaConfig     `json:"ollama" yaml:"ollama" mapstructure:"ollama"`
	Models     ModelConfig      `json:"models" yaml:"models" mapstructure:"models"`
	Collector  CollectorConfig  `json:"collector" yaml:"collector" mapstructure:"collector"`
	VectorDB   VectorDBConfig   `json:"vector_db" yaml:"vector_db" mapstructure:"vector_db"`
	Generation GenerationConfig `json:"generation" yaml:"generation" mapstructure:"generation"`
	Report     ReportConfig     `json:"report" yaml:"report" mapstructure:"report"`
	Dashboard  DashboardConfig  `json:"dashboard" yaml:"dashboard" mapstructure:"dashboard"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the compiled-in defaults.
func DefaultConfig() Config {
	return Config{
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Timeout: 10 * time.Minute,
		},
		Models: ModelConfig{
			Embedding:             "nomic-embed-text:latest",
			Generator:             "deepseek-v3.1:671b-cloud",
			Evaluator:             "gpt-oss:20b",
			GeneratorTemperature:  0.3,
			EvaluatorTemperature:  0.3,
			TranslatorTemperature: 0.3,
			GeneratorKeepAlive:    "5m",
		},
		Collector: CollectorConfig{
			APIURL:            "https://api.openalex.org/works",
			Email:             "test@example.com",
			PaperLimit:        200,
			AuthorsLimit:      3,
			InstitutionsLimit: 3,
			CSVDir:            "results/csv",
		},
		VectorDB: VectorDBConfig{
			PersistDir:    "vector_db",
			Collection:    "research_papers",
			BatchSize:     1,
			SearchK:       10,
			MaxAttempts:   3,
			RetryDelay:    5 * time.Second,
			AbstractLimit: 1000,
		},
		Generation: GenerationConfig{
			TopicCount:   5,
			LatestPapers: 5,
		},
		Report: ReportConfig{
			OutputDir: "results",
			Language:  "Korean",
		},
		Dashboard: DashboardConfig{
			Addr: ":8501",
		},
		Log: LogConfig{
			Level: "info",
			Mode:  "development",
		},
	}
}
