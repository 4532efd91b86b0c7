package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config aggregates all application configuration
type Config struct {
	TSETMC TSETMCConfig `yaml:"tsetmc"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	AI     AIConfig     `yaml:"ai"`
}

type TSETMCConfig struct {
	BaseURL   string `yaml:"base_url" env:"TSETMC_BASE_URL" env-default:"https://cdn.tsetmc.com/api"`
	UserAgent string `yaml:"user_agent" env:"TSETMC_USER_AGENT" env-default:"tsetools/1.0"`
	// TimeoutSeconds of 0 leaves outbound calls bounded only by the caller's context.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"TSETMC_TIMEOUT_SECONDS" env-default:"0"`
}

// Timeout returns the configured HTTP client timeout
func (c TSETMCConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type ServerConfig struct {
	Port string `yaml:"port" env:"PORT" env-default:"8000"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type AIConfig struct {
	// Plugin selects the model backing the analyst agent: none, ollama or gemini.
	Plugin string       `yaml:"plugin" env:"AI_PLUGIN" env-default:"none"`
	Gemini GeminiConfig `yaml:"gemini"`
	Ollama OllamaConfig `yaml:"ollama"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model  string `yaml:"model" env:"GEMINI_MODEL" env-default:"gemini-2.5-flash"`
}

type OllamaConfig struct {
	Model   string `yaml:"model" env:"OLLAMA_MODEL" env-default:"qwen3:4b"`
	BaseURL string `yaml:"base_url" env:"OLLAMA_BASE_URL" env-default:"http://localhost:11434"`
}

// Load reads configuration from config.yaml and environment variables
// Priority: Env Vars > Config File > Defaults
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit config file path. A missing or
// unreadable file falls back to environment variables only.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the application cannot start with
func (c *Config) Validate() error {
	switch c.AI.Plugin {
	case "none", "ollama":
	case "gemini":
		if c.AI.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be set when AI_PLUGIN=gemini")
		}
	default:
		return fmt.Errorf("unknown AI_PLUGIN %q (want none, ollama or gemini)", c.AI.Plugin)
	}
	if c.TSETMC.BaseURL == "" {
		return fmt.Errorf("TSETMC_BASE_URL must not be empty")
	}
	return nil
}
