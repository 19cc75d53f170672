// Package config loads runtime settings from snello.yaml, a .env file
// and environment variables. Env vars win over the yaml file; the yaml
// file wins over the built-in defaults.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultModel is used when neither the file nor the env names one.
const DefaultModel = "gemini:gemini-2.0-flash"

// Config holds all runtime settings.
type Config struct {
	DataDir       string `yaml:"data_dir"`
	Model         string `yaml:"model"` // "provider:model", e.g. "gemini:gemini-2.0-flash"
	SystemPrompt  string `yaml:"system_prompt"`
	MaxToolRounds int    `yaml:"max_tool_rounds"`
	HistoryWindow int    `yaml:"history_window"`
	HistoryLimit  int    `yaml:"history_limit"`
	MaxTokens     int    `yaml:"max_tokens"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	LogLevel      string `yaml:"log_level"`

	// Secrets come from the environment only, never from the file.
	GeminiAPIKey string `yaml:"-"`
	OpenAIAPIKey string `yaml:"-"`
	LLMBaseURL   string `yaml:"llm_base_url"` // OpenAI-compatible endpoints (Ollama)
}

// Load reads the config file at path (skipped when the file does not
// exist) and applies environment overrides. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	// Missing .env is the common case, not an error.
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:       "data",
		Model:         DefaultModel,
		MaxToolRounds: 4,
		HistoryWindow: 10,
		HistoryLimit:  100,
		MaxTokens:     1024,
		Host:          "0.0.0.0",
		Port:          8000,
		LogLevel:      "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Run on defaults and env alone.
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg.DataDir = envOr("SNELLO_DATA_DIR", cfg.DataDir)
	cfg.Model = envOr("SNELLO_MODEL", cfg.Model)
	cfg.Host = envOr("HOST", cfg.Host)
	cfg.Port = envIntOr("PORT", cfg.Port)
	cfg.LogLevel = envOr("SNELLO_LOG_LEVEL", cfg.LogLevel)
	cfg.LLMBaseURL = envOr("SNELLO_LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// envOr returns the environment variable or a default value.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envIntOr returns the environment variable as int or a default value.
func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return def
	}
	return n
}
