package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderGoogle     = "google"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
)

const (
	HistorySQLite = "sqlite"
	HistoryMemory = "memory"
	HistoryNone   = "none"
)

// Config represents the application configuration
type Config struct {
	LLMProvider  string          `json:"llm_provider"`
	Providers    ProvidersConfig `json:"providers"`
	SystemPrompt string          `json:"system_prompt"`
	History      HistoryConfig   `json:"history"`
	Server       ServerConfig    `json:"server"`
	LogLevel     string          `json:"log_level"`
	LogFormat    string          `json:"log_format"`
	LogFile      string          `json:"log_file"`
}

// ProvidersConfig holds per-provider settings.
type ProvidersConfig struct {
	Google     ProviderConfig `json:"google"`
	OpenAI     ProviderConfig `json:"openai"`
	OpenRouter ProviderConfig `json:"openrouter"`
	Anthropic  ProviderConfig `json:"anthropic"`
}

// ProviderConfig holds the API configuration of a single provider.
type ProviderConfig struct {
	APIKey            string  `json:"api_key"`
	APIURL            string  `json:"api_url,omitempty"`
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
}

// HistoryConfig selects where saved conversations live.
type HistoryConfig struct {
	Driver string `json:"driver"` // "sqlite", "memory" or "none"
	Path   string `json:"path"`
}

// ServerConfig holds the browser UI listener settings.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		LLMProvider: ProviderGoogle,
		Providers: ProvidersConfig{
			Google: ProviderConfig{
				Model:             "gemini-2.5-flash",
				Temperature:       0.7,
				MaxTokens:         2048,
				APITimeoutSeconds: 60,
			},
			OpenAI: ProviderConfig{
				APIURL:            "https://api.openai.com/v1",
				Model:             "gpt-4o",
				Temperature:       0.7,
				MaxTokens:         2048,
				APITimeoutSeconds: 60,
			},
			OpenRouter: ProviderConfig{
				APIURL:            "https://openrouter.ai/api/v1",
				Model:             "google/gemini-2.5-flash",
				Temperature:       0.7,
				MaxTokens:         2048,
				APITimeoutSeconds: 60,
			},
			Anthropic: ProviderConfig{
				APIURL:            "https://api.anthropic.com/v1",
				Model:             "claude-3-5-sonnet-20241022",
				Temperature:       0.7,
				MaxTokens:         2048,
				APITimeoutSeconds: 60,
			},
		},
		History: HistoryConfig{
			Driver: HistorySQLite,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load loads configuration from the specified path
// If the file doesn't exist, creates one with default values.
// Fields missing from an existing file keep their defaults.
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(configPath, cfg); err != nil {
				return Config{}, fmt.Errorf("failed to create default config: %w", err)
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ApplyEnv overlays API keys and a few settings from the environment.
// A .env file in the working directory is read first if present; variables
// already set in the process environment win over it.
func ApplyEnv(cfg Config) Config {
	_ = godotenv.Load()

	setIfPresent := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setIfPresent(&cfg.Providers.Google.APIKey, "GEMINI_API_KEY")
	setIfPresent(&cfg.Providers.OpenAI.APIKey, "OPENAI_API_KEY")
	setIfPresent(&cfg.Providers.OpenRouter.APIKey, "OPENROUTER_API_KEY")
	setIfPresent(&cfg.Providers.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setIfPresent(&cfg.LLMProvider, "GEMCHAT_PROVIDER")
	setIfPresent(&cfg.Server.Addr, "GEMCHAT_ADDR")
	return cfg
}

// Active returns the settings of the selected provider.
func (c Config) Active() ProviderConfig {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return c.Providers.OpenAI
	case ProviderOpenRouter:
		return c.Providers.OpenRouter
	case ProviderAnthropic:
		return c.Providers.Anthropic
	default:
		return c.Providers.Google
	}
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGoogle, ProviderOpenAI, ProviderOpenRouter, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}

	p := c.Active()
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("%s API key is required (set in config file or environment)", c.LLMProvider)
	}

	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got: %f", p.Temperature)
	}

	if p.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative, got: %d", p.MaxTokens)
	}

	if p.APITimeoutSeconds < 0 {
		return fmt.Errorf("api_timeout_seconds must not be negative, got: %d", p.APITimeoutSeconds)
	}

	switch c.History.Driver {
	case HistorySQLite, HistoryMemory, HistoryNone, "":
	default:
		return fmt.Errorf("unsupported history driver: %s", c.History.Driver)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	return filepath.Join(baseDir(), "config.json")
}

// HistoryPath returns the sqlite database path, falling back to the default location.
func (c Config) HistoryPath() string {
	if p := strings.TrimSpace(c.History.Path); p != "" {
		return p
	}
	return filepath.Join(baseDir(), "history.db")
}

func baseDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(homeDir) == "" {
		return ".gemchat"
	}
	return filepath.Join(homeDir, ".gemchat")
}
