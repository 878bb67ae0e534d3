// Package config loads the analyzer settings from the environment and
// an optional analyzer.yml overlay. The resulting Config is a plain
// value threaded through constructors; nothing reads the environment
// after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxSearchResults = 3
	defaultCheckpointDir    = ".product-analyzer/checkpoints"
)

// Config holds every setting the analyzer needs.
type Config struct {
	OpenAIAPIKey string
	TavilyAPIKey string
	OpenAIBaseURL string

	FastModel        string
	LongContextModel string
	EmbeddingModel   string

	MaxSearchResults int
	CheckpointDir    string
	Verbose          bool
}

// fileConfig is the analyzer.yml overlay. Only non-secret settings
// live here; credentials come from the environment.
type fileConfig struct {
	FastModel        string `yaml:"fastModel"`
	LongContextModel string `yaml:"longContextModel"`
	EmbeddingModel   string `yaml:"embeddingModel"`
	MaxSearchResults int    `yaml:"maxSearchResults"`
	CheckpointDir    string `yaml:"checkpointDir"`
}

// Load builds a Config from .env (best effort), the process
// environment, and analyzer.yml / analyzer.yaml in the working
// directory if present. Missing credentials are an error so runs fail
// before any stage executes.
func Load() (Config, error) {
	// A missing .env file is fine; explicit env vars win either way.
	_ = godotenv.Load()

	cfg := Config{
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		TavilyAPIKey:     os.Getenv("TAVILY_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		MaxSearchResults: defaultMaxSearchResults,
		CheckpointDir:    defaultCheckpointDir,
	}

	overlay, err := loadFileConfig()
	if err != nil {
		return Config{}, err
	}
	applyOverlay(&cfg, overlay)

	if v := os.Getenv("ANALYZER_MAX_SEARCH_RESULTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: invalid ANALYZER_MAX_SEARCH_RESULTS %q", v)
		}
		cfg.MaxSearchResults = n
	}
	if v := os.Getenv("ANALYZER_CHECKPOINT_DIR"); v != "" {
		cfg.CheckpointDir = v
	}

	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("config: OPENAI_API_KEY is not set")
	}
	if cfg.TavilyAPIKey == "" {
		return Config{}, fmt.Errorf("config: TAVILY_API_KEY is not set")
	}
	return cfg, nil
}

func loadFileConfig() (fileConfig, error) {
	for _, name := range []string{"analyzer.yml", "analyzer.yaml"} {
		data, err := os.ReadFile(name)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fileConfig{}, fmt.Errorf("config: read %s: %w", name, err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fileConfig{}, fmt.Errorf("config: parse %s: %w", name, err)
		}
		return fc, nil
	}
	return fileConfig{}, nil
}

func applyOverlay(cfg *Config, fc fileConfig) {
	if fc.FastModel != "" {
		cfg.FastModel = fc.FastModel
	}
	if fc.LongContextModel != "" {
		cfg.LongContextModel = fc.LongContextModel
	}
	if fc.EmbeddingModel != "" {
		cfg.EmbeddingModel = fc.EmbeddingModel
	}
	if fc.MaxSearchResults > 0 {
		cfg.MaxSearchResults = fc.MaxSearchResults
	}
	if fc.CheckpointDir != "" {
		cfg.CheckpointDir = fc.CheckpointDir
	}
}
