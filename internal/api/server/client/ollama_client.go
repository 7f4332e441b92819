package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/bz888/tsdr/pkg/errors"
	"go.uber.org/zap"
)

// OllamaClient represents a client for a local Ollama server.
type OllamaClient struct {
	Client
	logger *zap.Logger
}

type OllamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type OllamaChatResponse struct {
	Model     string       `json:"model"`
	CreatedAt string       `json:"created_at"`
	Message   *ChatMessage `json:"message"`
	Done      bool         `json:"done"`
	EvalCount int          `json:"eval_count"`
}

func NewOllamaClient(config ClientConfig, logger *zap.Logger) (*OllamaClient, error) {
	base, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	return &OllamaClient{Client: *base, logger: logger}, nil
}

func (c *OllamaClient) Name() string {
	return ProviderOllama
}

// Complete asks Ollama for a single non-streamed reply.
func (c *OllamaClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	bts, err := json.Marshal(OllamaChatRequest{Model: c.model, Messages: messages, Stream: false})
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.GetChatURL(), bytes.NewReader(bts))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.http.Do(request)
	if err != nil {
		c.logger.Error("Failed to request on ollama chat", zap.Error(err))
		return "", errors.NewUpstreamError(ProviderOllama, 0, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, response.Body)
		return "", errors.NewUpstreamError(ProviderOllama, response.StatusCode, nil)
	}

	var apiResp OllamaChatResponse
	if err := json.NewDecoder(response.Body).Decode(&apiResp); err != nil {
		return "", errors.NewMalformedResponseError(ProviderOllama, "invalid json", err)
	}
	if apiResp.Message == nil || apiResp.Message.Content == "" {
		return "", errors.NewMalformedResponseError(ProviderOllama, "empty message", nil)
	}

	c.logger.Debug("Completed response", zap.String("model", apiResp.Model), zap.Int("eval_count", apiResp.EvalCount))
	return apiResp.Message.Content, nil
}
