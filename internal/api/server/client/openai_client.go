package client

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/bz888/tsdr/pkg/errors"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// OpenAIClient completes through the official SDK. BaseURL can point at any
// OpenAI-compatible server.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIClient(config ClientConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, errors.NewValidationError("OpenAI API key not provided", "OPENAI_API_KEY", "")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
		// one attempt per request
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := openai.NewClient(opts...)
	return &OpenAIClient{
		client: &client,
		model:  config.Model,
		logger: logger,
	}, nil
}

func (o *OpenAIClient) Name() string {
	return ProviderOpenAI
}

func (o *OpenAIClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: toOpenAIMessages(messages),
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if stderrors.As(err, &apiErr) {
			o.logger.Warn("OpenAI returned error status", zap.Int("status", apiErr.StatusCode))
			return "", errors.NewUpstreamError(ProviderOpenAI, apiErr.StatusCode, err)
		}
		o.logger.Error("OpenAI generation failed", zap.Error(err))
		return "", errors.NewUpstreamError(ProviderOpenAI, 0, err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.NewMalformedResponseError(ProviderOpenAI, "no choices", nil)
	}
	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", errors.NewMalformedResponseError(ProviderOpenAI, "empty content", nil)
	}

	o.logger.Debug("OpenAI response received",
		zap.Int("length", len(text)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)
	return text, nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
