package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/bz888/tsdr/internal/api/server/client"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	Server     ServerConfig
	Completion CompletionConfig
	Logging    LoggingConfig
	Preference PreferenceConfig
}

type ServerConfig struct {
	Addr       string
	ServerOnly bool
	// URL of a running server. Empty means the TUI starts its own on Addr.
	URL string
}

type CompletionConfig struct {
	Provider string
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

type LoggingConfig struct {
	Level string
	Path  string
	Dev   bool
}

type PreferenceConfig struct {
	File          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads .env, then the environment, then args. Flags win over env.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr: getEnv("TSDR_ADDR", ":8080"),
			URL:  getEnv("TSDR_SERVER_URL", ""),
		},
		Completion: CompletionConfig{
			Provider: getEnv("TSDR_PROVIDER", client.ProviderHackClub),
			Endpoint: getEnv("TSDR_ENDPOINT", ""),
			Model:    getEnv("TSDR_MODEL", ""),
			Timeout:  getEnvDuration("TSDR_TIMEOUT", 0),
		},
		Logging: LoggingConfig{
			Level: getEnv("TSDR_LOG_LEVEL", "info"),
			Path:  getEnv("TSDR_LOG_PATH", ""),
			Dev:   getEnvBool("TSDR_DEV", false),
		},
		Preference: PreferenceConfig{
			File:          getEnv("TSDR_PREF_FILE", ""),
			RedisAddr:     getEnv("TSDR_REDIS_ADDR", ""),
			RedisPassword: getEnv("TSDR_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("TSDR_REDIS_DB", 0),
		},
	}

	fs := pflag.NewFlagSet("tsdr", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.BoolVar(&cfg.Server.ServerOnly, "server-only", false, "Run only the HTTP server, without the terminal UI")
	fs.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "Address the HTTP server listens on")
	fs.StringVar(&cfg.Server.URL, "server-url", cfg.Server.URL, "Use an already running server instead of starting one")
	fs.BoolVar(&cfg.Logging.Dev, "dev", cfg.Logging.Dev, "Development mode, shows the debug console")
	fs.StringVar(&cfg.Logging.Path, "log-path", cfg.Logging.Path, "Directory to save the log file in")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.Completion.Provider, "provider", cfg.Completion.Provider, "Completion provider: hackclub, openai, ollama, gemini")
	fs.StringVar(&cfg.Completion.Endpoint, "endpoint", cfg.Completion.Endpoint, "Override the provider base URL")
	fs.StringVar(&cfg.Completion.Model, "model", cfg.Completion.Model, "Model name, where the provider needs one")
	fs.DurationVar(&cfg.Completion.Timeout, "timeout", cfg.Completion.Timeout, "Upstream request timeout, 0 for none")
	fs.StringVar(&cfg.Preference.RedisAddr, "redis", cfg.Preference.RedisAddr, "Store preferences in Redis at this address")
	fs.StringVar(&cfg.Preference.File, "pref-file", cfg.Preference.File, "Preferences file, defaults to the user config dir")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Completion.APIKey = apiKeyFor(cfg.Completion.Provider)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" && c.Server.URL == "" {
		return fmt.Errorf("TSDR_ADDR or TSDR_SERVER_URL is required")
	}
	if !slices.Contains(client.Providers(), c.Completion.Provider) {
		return fmt.Errorf("unknown provider %q", c.Completion.Provider)
	}
	if c.Completion.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	switch c.Completion.Provider {
	case client.ProviderOpenAI:
		if c.Completion.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider openai")
		}
	case client.ProviderGemini:
		if c.Completion.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider gemini")
		}
	}
	return nil
}

// ClientConfig maps the completion settings onto the provider client.
func (c *Config) ClientConfig() client.ClientConfig {
	return client.ClientConfig{
		Provider: c.Completion.Provider,
		BaseURL:  c.Completion.Endpoint,
		APIKey:   c.Completion.APIKey,
		Model:    c.Completion.Model,
		Timeout:  c.Completion.Timeout,
	}
}

func apiKeyFor(provider string) string {
	switch provider {
	case client.ProviderOpenAI:
		return getEnv("OPENAI_API_KEY", os.Getenv("TSDR_API_KEY"))
	case client.ProviderGemini:
		return getEnv("GEMINI_API_KEY", os.Getenv("TSDR_API_KEY"))
	default:
		return os.Getenv("TSDR_API_KEY")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
