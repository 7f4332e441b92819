package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	ProviderHackClub = "hackclub"
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
	ProviderGemini   = "gemini"
)

// Completer turns a composed message list into the model's reply text.
// Implementations make exactly one attempt per call.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
	Name() string
}

// Client holds what every HTTP-based provider needs.
type Client struct {
	base    *url.URL
	http    *http.Client
	chatUrl *url.URL
	apiKey  string
	model   string
}

// ClientConfig holds the configuration for the client
type ClientConfig struct {
	Provider string
	BaseURL  string
	ChatPath string
	APIKey   string
	Model    string
	// Timeout of zero leaves the transport defaults in charge.
	Timeout time.Duration
}

var defaultEndpoints = map[string]ClientConfig{
	ProviderHackClub: {BaseURL: "https://ai.hackclub.com", ChatPath: "/chat/completions"},
	ProviderOpenAI:   {BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini"},
	ProviderOllama:   {BaseURL: "http://localhost:11434", ChatPath: "/api/chat", Model: "llama3:latest"},
	ProviderGemini:   {Model: "gemini-2.5-flash"},
}

func Providers() []string {
	return []string{ProviderHackClub, ProviderOpenAI, ProviderOllama, ProviderGemini}
}

// WithDefaults fills empty fields from the provider's known endpoint.
func (c ClientConfig) WithDefaults() ClientConfig {
	def := defaultEndpoints[c.Provider]
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.ChatPath == "" {
		c.ChatPath = def.ChatPath
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	return c
}

// NewClient creates a new API client with configurable base URL and endpoints
func NewClient(config ClientConfig) (*Client, error) {
	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", config.BaseURL, err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", config.BaseURL)
	}

	chatURL := *baseURL
	chatURL.Path = strings.TrimSuffix(baseURL.Path, "/") + config.ChatPath

	return &Client{
		base:    baseURL,
		http:    &http.Client{Timeout: config.Timeout},
		chatUrl: &chatURL,
		apiKey:  config.APIKey,
		model:   config.Model,
	}, nil
}

func (c *Client) GetChatURL() string {
	return c.chatUrl.String()
}

// NewCompleter picks the provider implementation named by config.Provider.
func NewCompleter(ctx context.Context, config ClientConfig, logger *zap.Logger) (Completer, error) {
	if config.Provider == "" {
		config.Provider = ProviderHackClub
	}
	config = config.WithDefaults()

	var (
		completer Completer
		err       error
	)
	switch config.Provider {
	case ProviderHackClub:
		completer, err = NewChatClient(config, logger)
	case ProviderOpenAI:
		completer, err = NewOpenAIClient(config, logger)
	case ProviderOllama:
		completer, err = NewOllamaClient(config, logger)
	case ProviderGemini:
		completer, err = NewGeminiClient(ctx, config, logger)
	default:
		return nil, fmt.Errorf("unknown provider %q", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Completion client initialized",
		zap.String("provider", completer.Name()),
		zap.String("endpoint", config.BaseURL),
		zap.String("model", config.Model),
	)
	return completer, nil
}
