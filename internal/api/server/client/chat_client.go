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

// ChatClient talks to any endpoint that speaks the OpenAI chat-completions
// wire format over plain HTTP, such as ai.hackclub.com.
type ChatClient struct {
	Client
	provider string
	logger   *zap.Logger
}

func NewChatClient(config ClientConfig, logger *zap.Logger) (*ChatClient, error) {
	base, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	provider := config.Provider
	if provider == "" {
		provider = ProviderHackClub
	}
	return &ChatClient{
		Client:   *base,
		provider: provider,
		logger:   logger,
	}, nil
}

func (c *ChatClient) Name() string {
	return c.provider
}

// Complete posts {messages} once and returns choices[0].message.content.
func (c *ChatClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	bts, err := json.Marshal(ChatCompletionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.GetChatURL(), bytes.NewReader(bts))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	response, err := c.http.Do(request)
	if err != nil {
		c.logger.Error("Chat completion request failed", zap.String("url", c.GetChatURL()), zap.Error(err))
		return "", errors.NewUpstreamError(c.provider, 0, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		discarded, _ := io.Copy(io.Discard, response.Body)
		c.logger.Warn("Chat completion returned non-success status",
			zap.Int("status", response.StatusCode),
			zap.Int64("body_bytes", discarded),
		)
		return "", errors.NewUpstreamError(c.provider, response.StatusCode, nil)
	}

	var completion ChatCompletionResponse
	if err := json.NewDecoder(response.Body).Decode(&completion); err != nil {
		return "", errors.NewMalformedResponseError(c.provider, "invalid json", err)
	}

	content, err := firstChoiceContent(c.provider, completion)
	if err != nil {
		c.logger.Warn("Chat completion response malformed", zap.Error(err))
		return "", err
	}

	c.logger.Debug("Chat completion received", zap.Int("length", len(content)))
	return content, nil
}

func firstChoiceContent(provider string, completion ChatCompletionResponse) (string, error) {
	if len(completion.Choices) == 0 {
		return "", errors.NewMalformedResponseError(provider, "no choices", nil)
	}
	message := completion.Choices[0].Message
	if message == nil {
		return "", errors.NewMalformedResponseError(provider, "first choice has no message", nil)
	}
	if message.Content == "" {
		return "", errors.NewMalformedResponseError(provider, "empty content", nil)
	}
	return message.Content, nil
}
