package client

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/bz888/tsdr/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient maps the system message onto SystemInstruction and the rest
// onto conversation contents.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGeminiClient(ctx context.Context, config ClientConfig, logger *zap.Logger) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, errors.NewValidationError("Gemini API key not provided", "GEMINI_API_KEY", "")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: config.Timeout},
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, errors.NewUpstreamError(ProviderGemini, 0, err)
	}
	return &GeminiClient{client: client, model: config.Model, logger: logger}, nil
}

func (g *GeminiClient) Name() string {
	return ProviderGemini
}

func (g *GeminiClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	system, contents := toGeminiContents(messages)

	var genConfig *genai.GenerateContentConfig
	if system != nil {
		genConfig = &genai.GenerateContentConfig{SystemInstruction: system}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genConfig)
	if err != nil {
		if status := geminiStatus(err); status > 0 {
			g.logger.Warn("Gemini returned error status", zap.Int("status", status))
			return "", errors.NewUpstreamError(ProviderGemini, status, err)
		}
		g.logger.Error("Gemini generation failed", zap.Error(err))
		return "", errors.NewUpstreamError(ProviderGemini, 0, err)
	}

	text := extractTextFromGeminiResponse(resp)
	if text == "" {
		return "", errors.NewMalformedResponseError(ProviderGemini, "no candidate text", nil)
	}

	g.logger.Debug("Gemini response received", zap.Int("length", len(text)))
	return text, nil
}

// geminiStatus digs the HTTP status out of a genai error, which the SDK may
// return by value or by pointer.
func geminiStatus(err error) int {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if stderrors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}

func toGeminiContents(messages []ChatMessage) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: m.Content})
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	return system, contents
}

func extractTextFromGeminiResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "")
}
